// Package client is the gRPC client used by verifyctl.
//
// GRPCClient manages a connection to the vendorverify server, injects the
// access token into every call via an interceptor and maps gRPC status codes
// to sentinel errors (ErrUnavailable, ErrUnauthorized) that callers can match
// with errors.Is. Other status errors are returned with their message.
package client
