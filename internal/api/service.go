package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "vendorverify.v1.VendorVerify"

// FullMethod returns the gRPC path of a method of the service.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

const (
	MethodPing              = "Ping"
	MethodVerify            = "Verify"
	MethodCreateProduct     = "CreateProduct"
	MethodGetProduct        = "GetProduct"
	MethodListProducts      = "ListProducts"
	MethodRotateToken       = "RotateToken"
	MethodSetLifecycleState = "SetLifecycleState"
	MethodListScans         = "ListScans"
	MethodListVendorScans   = "ListVendorScans"
	MethodListScansByToken  = "ListScansByToken"
	MethodDashboardStats    = "DashboardStats"
	MethodListFakeReports   = "ListFakeReports"
	MethodUpdateFakeReport  = "UpdateFakeReport"
)

// VendorVerifyServer is implemented by the gRPC transport.
type VendorVerifyServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	Verify(context.Context, *VerifyRequest) (*VerifyResponse, error)
	CreateProduct(context.Context, *CreateProductRequest) (*ProductResponse, error)
	GetProduct(context.Context, *GetProductRequest) (*ProductResponse, error)
	ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error)
	RotateToken(context.Context, *RotateTokenRequest) (*RotateTokenResponse, error)
	SetLifecycleState(context.Context, *SetLifecycleStateRequest) (*ProductResponse, error)
	ListScans(context.Context, *ListScansRequest) (*ListScansResponse, error)
	ListVendorScans(context.Context, *ListVendorScansRequest) (*ListScansResponse, error)
	ListScansByToken(context.Context, *ListScansByTokenRequest) (*ListScansResponse, error)
	DashboardStats(context.Context, *DashboardStatsRequest) (*DashboardStatsResponse, error)
	ListFakeReports(context.Context, *ListFakeReportsRequest) (*ListFakeReportsResponse, error)
	UpdateFakeReport(context.Context, *UpdateFakeReportRequest) (*FakeReportResponse, error)
}

func unary[Req, Resp any](method string, call func(VendorVerifyServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(VendorVerifyServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(VendorVerifyServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VendorVerifyServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPing, VendorVerifyServer.Ping),
		unary(MethodVerify, VendorVerifyServer.Verify),
		unary(MethodCreateProduct, VendorVerifyServer.CreateProduct),
		unary(MethodGetProduct, VendorVerifyServer.GetProduct),
		unary(MethodListProducts, VendorVerifyServer.ListProducts),
		unary(MethodRotateToken, VendorVerifyServer.RotateToken),
		unary(MethodSetLifecycleState, VendorVerifyServer.SetLifecycleState),
		unary(MethodListScans, VendorVerifyServer.ListScans),
		unary(MethodListVendorScans, VendorVerifyServer.ListVendorScans),
		unary(MethodListScansByToken, VendorVerifyServer.ListScansByToken),
		unary(MethodDashboardStats, VendorVerifyServer.DashboardStats),
		unary(MethodListFakeReports, VendorVerifyServer.ListFakeReports),
		unary(MethodUpdateFakeReport, VendorVerifyServer.UpdateFakeReport),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vendorverify/v1/vendorverify.json",
}

func RegisterVendorVerifyServer(s grpc.ServiceRegistrar, srv VendorVerifyServer) {
	s.RegisterService(&ServiceDesc, srv)
}
