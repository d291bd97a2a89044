package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// TokenBytes is the amount of random bytes behind a product token. The hex
// encoded token is twice as long.
const TokenBytes = 32
