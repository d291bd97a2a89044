// Package auth issues and validates the access tokens used by the gRPC API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
	// RoleProxy is a trusted front end that relays verifications and may
	// name the end user's address. It cannot manage products.
	RoleProxy Role = "proxy"
)

func (r Role) Valid() bool {
	return r == RoleVendor || r == RoleAdmin || r == RoleProxy
}

// Claims carries the caller identity. For vendors UserID is the vendor ID
// that owns products.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
	Role   Role
}

func GenerateToken(userID string, role Role, secretKey []byte, validityDuration time.Duration) (string, error) {
	if userID == "" || !role.Valid() {
		return "", fmt.Errorf("%w: user id and a known role are required", common.ErrorValidation)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: userID,
		Role:   role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken validates the signature and expiry. Expired tokens yield
// common.ErrTokenExpired, anything else common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" || !claims.Role.Valid() {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

type claimsKey struct{}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}

// CanRelay reports whether the caller may supply a presentation's source
// address instead of the transport peer address.
func (c *Claims) CanRelay() bool {
	return c.Role == RoleProxy || c.Role == RoleAdmin
}

// CanManage reports whether the caller may act on a product of vendorID.
func (c *Claims) CanManage(vendorID string) bool {
	return c.Role == RoleAdmin || (c.Role == RoleVendor && c.UserID == vendorID)
}
