package api

import (
	"context"

	"google.golang.org/grpc"
)

type VendorVerifyClient interface {
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	Verify(ctx context.Context, in *VerifyRequest, opts ...grpc.CallOption) (*VerifyResponse, error)
	CreateProduct(ctx context.Context, in *CreateProductRequest, opts ...grpc.CallOption) (*ProductResponse, error)
	GetProduct(ctx context.Context, in *GetProductRequest, opts ...grpc.CallOption) (*ProductResponse, error)
	ListProducts(ctx context.Context, in *ListProductsRequest, opts ...grpc.CallOption) (*ListProductsResponse, error)
	RotateToken(ctx context.Context, in *RotateTokenRequest, opts ...grpc.CallOption) (*RotateTokenResponse, error)
	SetLifecycleState(ctx context.Context, in *SetLifecycleStateRequest, opts ...grpc.CallOption) (*ProductResponse, error)
	ListScans(ctx context.Context, in *ListScansRequest, opts ...grpc.CallOption) (*ListScansResponse, error)
	ListVendorScans(ctx context.Context, in *ListVendorScansRequest, opts ...grpc.CallOption) (*ListScansResponse, error)
	ListScansByToken(ctx context.Context, in *ListScansByTokenRequest, opts ...grpc.CallOption) (*ListScansResponse, error)
	DashboardStats(ctx context.Context, in *DashboardStatsRequest, opts ...grpc.CallOption) (*DashboardStatsResponse, error)
	ListFakeReports(ctx context.Context, in *ListFakeReportsRequest, opts ...grpc.CallOption) (*ListFakeReportsResponse, error)
	UpdateFakeReport(ctx context.Context, in *UpdateFakeReportRequest, opts ...grpc.CallOption) (*FakeReportResponse, error)
}

type vendorVerifyClient struct {
	cc grpc.ClientConnInterface
}

// NewVendorVerifyClient returns a client that always speaks the JSON codec.
func NewVendorVerifyClient(cc grpc.ClientConnInterface) VendorVerifyClient {
	return &vendorVerifyClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *vendorVerifyClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *vendorVerifyClient) Verify(ctx context.Context, in *VerifyRequest, opts ...grpc.CallOption) (*VerifyResponse, error) {
	return invoke[VerifyResponse](ctx, c.cc, MethodVerify, in, opts)
}

func (c *vendorVerifyClient) CreateProduct(ctx context.Context, in *CreateProductRequest, opts ...grpc.CallOption) (*ProductResponse, error) {
	return invoke[ProductResponse](ctx, c.cc, MethodCreateProduct, in, opts)
}

func (c *vendorVerifyClient) GetProduct(ctx context.Context, in *GetProductRequest, opts ...grpc.CallOption) (*ProductResponse, error) {
	return invoke[ProductResponse](ctx, c.cc, MethodGetProduct, in, opts)
}

func (c *vendorVerifyClient) ListProducts(ctx context.Context, in *ListProductsRequest, opts ...grpc.CallOption) (*ListProductsResponse, error) {
	return invoke[ListProductsResponse](ctx, c.cc, MethodListProducts, in, opts)
}

func (c *vendorVerifyClient) RotateToken(ctx context.Context, in *RotateTokenRequest, opts ...grpc.CallOption) (*RotateTokenResponse, error) {
	return invoke[RotateTokenResponse](ctx, c.cc, MethodRotateToken, in, opts)
}

func (c *vendorVerifyClient) SetLifecycleState(ctx context.Context, in *SetLifecycleStateRequest, opts ...grpc.CallOption) (*ProductResponse, error) {
	return invoke[ProductResponse](ctx, c.cc, MethodSetLifecycleState, in, opts)
}

func (c *vendorVerifyClient) ListScans(ctx context.Context, in *ListScansRequest, opts ...grpc.CallOption) (*ListScansResponse, error) {
	return invoke[ListScansResponse](ctx, c.cc, MethodListScans, in, opts)
}

func (c *vendorVerifyClient) ListVendorScans(ctx context.Context, in *ListVendorScansRequest, opts ...grpc.CallOption) (*ListScansResponse, error) {
	return invoke[ListScansResponse](ctx, c.cc, MethodListVendorScans, in, opts)
}

func (c *vendorVerifyClient) ListScansByToken(ctx context.Context, in *ListScansByTokenRequest, opts ...grpc.CallOption) (*ListScansResponse, error) {
	return invoke[ListScansResponse](ctx, c.cc, MethodListScansByToken, in, opts)
}

func (c *vendorVerifyClient) DashboardStats(ctx context.Context, in *DashboardStatsRequest, opts ...grpc.CallOption) (*DashboardStatsResponse, error) {
	return invoke[DashboardStatsResponse](ctx, c.cc, MethodDashboardStats, in, opts)
}

func (c *vendorVerifyClient) ListFakeReports(ctx context.Context, in *ListFakeReportsRequest, opts ...grpc.CallOption) (*ListFakeReportsResponse, error) {
	return invoke[ListFakeReportsResponse](ctx, c.cc, MethodListFakeReports, in, opts)
}

func (c *vendorVerifyClient) UpdateFakeReport(ctx context.Context, in *UpdateFakeReportRequest, opts ...grpc.CallOption) (*FakeReportResponse, error) {
	return invoke[FakeReportResponse](ctx, c.cc, MethodUpdateFakeReport, in, opts)
}
