package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/api"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/common"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var publicMethods = map[string]bool{
	api.FullMethod(api.MethodPing):   true,
	api.FullMethod(api.MethodVerify): true,
}

func accessTokenFrom(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// accessTokenInterceptor authenticates every non-public method. Public
// methods run anonymously, but a valid token still attaches its claims so
// handlers can grant relay rights.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	accessToken := accessTokenFrom(ctx)

	if publicMethods[info.FullMethod] {
		if accessToken != "" {
			if claims, err := auth.ParseToken(accessToken, s.jwtSecret); err == nil {
				ctx = auth.WithClaims(ctx, claims)
			}
		}
		return handler(ctx, req)
	}

	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	claims, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, "token expired")
		}
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}
	if claims.Role == auth.RoleProxy {
		return nil, status.Error(codes.PermissionDenied, "proxy tokens only relay verifications")
	}

	return handler(auth.WithClaims(ctx, claims), req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
	if code == codes.Internal || code == codes.Unavailable {
		s.logger.Error(ctx, "rpc failed", append(args, "error", err)...)
	} else {
		s.logger.Debug(ctx, "rpc", args...)
	}
	return resp, err
}
