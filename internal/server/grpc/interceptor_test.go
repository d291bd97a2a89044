package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/api"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/common"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// helper to build server
func newTestServer(secret string) *GRPCServer {
	return &GRPCServer{
		logger:    nopLogger{},
		jwtSecret: []byte(secret),
		engine:    &fakeVerifier{},
		products:  &fakeProducts{},
		reports:   &fakeReports{},
	}
}

func withToken(t *testing.T, token string) context.Context {
	t.Helper()
	md := metadata.New(map[string]string{common.AccessTokenHeaderName: token})
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestInterceptor_PublicMethods_AllowWithoutToken(t *testing.T) {
	s := newTestServer("secret")

	for _, m := range []string{api.MethodPing, api.MethodVerify} {
		info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod(m)}
		handlerCalled := false

		h := func(ctx context.Context, req any) (any, error) {
			handlerCalled = true
			return "ok", nil
		}

		resp, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", m, err)
		}
		if !handlerCalled || resp != "ok" {
			t.Fatalf("%s: handler was not called", m)
		}
	}
}

func TestInterceptor_MissingToken(t *testing.T) {
	s := newTestServer("secret")

	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod(api.MethodRotateToken)}
	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called when token missing")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
	if status.Convert(err).Message() != "missing token" {
		t.Fatalf("expected 'missing token', got %q", status.Convert(err).Message())
	}
}

func TestInterceptor_InvalidToken(t *testing.T) {
	s := newTestServer("secret")

	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod(api.MethodGetProduct)}
	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called with invalid token")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(withToken(t, "not-a-valid-jwt"), nil, info, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
}

func TestInterceptor_ExpiredToken(t *testing.T) {
	s := newTestServer("secret")

	tok, err := auth.GenerateToken("v1", auth.RoleVendor, []byte("secret"), -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod(api.MethodGetProduct)}
	_, err = s.accessTokenInterceptor(withToken(t, tok), nil, info, func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called with expired token")
		return nil, nil
	})
	if status.Convert(err).Message() != "token expired" {
		t.Fatalf("expected 'token expired', got %v", err)
	}
}

func TestInterceptor_ValidToken_PutsClaimsInContext(t *testing.T) {
	s := newTestServer("secret")

	tok, err := auth.GenerateToken("v1", auth.RoleVendor, []byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod(api.MethodListProducts)}
	var got *auth.Claims
	_, err = s.accessTokenInterceptor(withToken(t, tok), nil, info, func(ctx context.Context, req any) (any, error) {
		got, _ = auth.ClaimsFromContext(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.UserID != "v1" || got.Role != auth.RoleVendor {
		t.Fatalf("claims not propagated: %+v", got)
	}
}

func TestInterceptor_PublicMethod_AttachesValidClaims(t *testing.T) {
	s := newTestServer("secret")

	tok, err := auth.GenerateToken("edge-1", auth.RoleProxy, []byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod(api.MethodVerify)}
	var got *auth.Claims
	_, err = s.accessTokenInterceptor(withToken(t, tok), nil, info, func(ctx context.Context, req any) (any, error) {
		got, _ = auth.ClaimsFromContext(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Role != auth.RoleProxy {
		t.Fatalf("proxy claims not attached: %+v", got)
	}

	// A bad token on a public method is ignored, not rejected.
	got = nil
	_, err = s.accessTokenInterceptor(withToken(t, "garbage"), nil, info, func(ctx context.Context, req any) (any, error) {
		got, _ = auth.ClaimsFromContext(ctx)
		return nil, nil
	})
	if err != nil || got != nil {
		t.Fatalf("expected anonymous call, got claims %+v err %v", got, err)
	}
}

func TestInterceptor_ProxyTokenCannotManage(t *testing.T) {
	s := newTestServer("secret")

	tok, err := auth.GenerateToken("edge-1", auth.RoleProxy, []byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod(api.MethodCreateProduct)}
	_, err = s.accessTokenInterceptor(withToken(t, tok), nil, info, func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called for a proxy token")
		return nil, nil
	})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
}
