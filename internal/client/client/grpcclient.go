package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/api"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      api.VendorVerifyClient
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withAccessToken(ctx, s.accessToken), method, req, reply, cc, opts...)
}

// NewVendorVerifyClientService dials endpointURL without TLS. Extra dial
// options are appended, which tests use to swap in a bufconn dialer.
func NewVendorVerifyClientService(endpointURL, accessToken string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = api.NewVendorVerifyClient(conn)
	return c, nil
}

// SetAccessToken replaces the token used for subsequent calls.
func (s *GRPCClient) SetAccessToken(token string) {
	s.accessToken = token
}

func (s *GRPCClient) HasAccessToken() bool {
	return s.accessToken != ""
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	_, err := s.client.Ping(ctx, &api.PingRequest{})
	return s.mapError(err)
}

func (s *GRPCClient) Verify(ctx context.Context, token string) (*api.VerifyResponse, error) {
	resp, err := s.client.Verify(ctx, &api.VerifyRequest{Token: token, UserAgent: "verifyctl"})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) CreateProduct(ctx context.Context, req *api.CreateProductRequest) (*api.Product, error) {
	resp, err := s.client.CreateProduct(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &resp.Product, nil
}

func (s *GRPCClient) GetProduct(ctx context.Context, ref string) (*api.Product, error) {
	resp, err := s.client.GetProduct(ctx, &api.GetProductRequest{ID: ref})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &resp.Product, nil
}

func (s *GRPCClient) ListProducts(ctx context.Context, vendorID string) ([]api.Product, error) {
	resp, err := s.client.ListProducts(ctx, &api.ListProductsRequest{VendorID: vendorID})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Products, nil
}

func (s *GRPCClient) RotateToken(ctx context.Context, productID string) (*api.RotateTokenResponse, error) {
	resp, err := s.client.RotateToken(ctx, &api.RotateTokenRequest{ProductID: productID})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) SetLifecycleState(ctx context.Context, ref, state string, flagged *bool) (*api.Product, error) {
	resp, err := s.client.SetLifecycleState(ctx, &api.SetLifecycleStateRequest{Ref: ref, State: state, Flagged: flagged})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &resp.Product, nil
}

func (s *GRPCClient) ListScans(ctx context.Context, productID string, limit int) ([]api.Scan, error) {
	resp, err := s.client.ListScans(ctx, &api.ListScansRequest{ProductID: productID, Limit: limit})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Scans, nil
}

// ListVendorScans lists recent scans across a vendor's products. An empty
// vendorID means the caller's own vendor, or every vendor for admins.
func (s *GRPCClient) ListVendorScans(ctx context.Context, vendorID string, limit int) ([]api.Scan, error) {
	resp, err := s.client.ListVendorScans(ctx, &api.ListVendorScansRequest{VendorID: vendorID, Limit: limit})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Scans, nil
}

func (s *GRPCClient) ListScansByToken(ctx context.Context, token string, limit int) ([]api.Scan, error) {
	resp, err := s.client.ListScansByToken(ctx, &api.ListScansByTokenRequest{Token: token, Limit: limit})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Scans, nil
}

func (s *GRPCClient) DashboardStats(ctx context.Context, vendorID string) (*api.DashboardStatsResponse, error) {
	resp, err := s.client.DashboardStats(ctx, &api.DashboardStatsRequest{VendorID: vendorID})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) ListFakeReports(ctx context.Context, status string, page, limit int) (*api.ListFakeReportsResponse, error) {
	resp, err := s.client.ListFakeReports(ctx, &api.ListFakeReportsRequest{Status: status, Page: page, Limit: limit})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) UpdateFakeReport(ctx context.Context, id, status, notes string) (*api.FakeReport, error) {
	resp, err := s.client.UpdateFakeReport(ctx, &api.UpdateFakeReportRequest{ID: id, Status: status, Notes: notes})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &resp.Report, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.Unavailable:
		if st.Message() != "" {
			return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
		}
		return ErrUnavailable
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	}

	return errors.New(st.Message())
}
