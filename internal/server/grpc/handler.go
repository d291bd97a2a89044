package grpc

import (
	"context"
	"strings"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/api"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/auth"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/dto"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/services"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/verification"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {

	return &api.PingResponse{Status: "OK"}, nil

}

func (s *GRPCServer) Verify(ctx context.Context, req *api.VerifyRequest) (*api.VerifyResponse, error) {

	// The declared source address is only taken from a trusted relay;
	// anyone else is identified by the transport peer.
	var addr string
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		addr = p.Addr.String()
	}
	if req.SourceAddress != "" {
		if c, ok := auth.ClaimsFromContext(ctx); ok && c.CanRelay() {
			addr = req.SourceAddress
		}
	}

	d, err := s.engine.Evaluate(ctx, verification.Presentation{
		Token:         req.Token,
		SourceAddress: addr,
		UserAgent:     req.UserAgent,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return dto.Decision(d), nil

}

// ownedProduct loads a product and checks the caller may manage it.
func (s *GRPCServer) ownedProduct(ctx context.Context, load func() (*models.Product, error)) (*models.Product, error) {
	caller, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}

	p, err := load()
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if !caller.CanManage(p.VendorID) {
		return nil, status.Error(codes.PermissionDenied, "product belongs to another vendor")
	}
	return p, nil
}

func (s *GRPCServer) CreateProduct(ctx context.Context, req *api.CreateProductRequest) (*api.ProductResponse, error) {

	caller, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}

	vendorID := caller.UserID
	if caller.Role == auth.RoleAdmin {
		vendorID = req.VendorID
	} else if req.VendorID != "" && req.VendorID != caller.UserID {
		return nil, status.Error(codes.PermissionDenied, "vendors can only create their own products")
	}

	p, err := s.products.Create(ctx, services.CreateProductInput{
		VendorID:        vendorID,
		VendorName:      req.VendorName,
		ProductName:     req.ProductName,
		Description:     req.Description,
		Category:        req.Category,
		BatchID:         req.BatchID,
		ManufactureDate: req.ManufactureDate,
		ExpiresAt:       req.ExpiresAt,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Product created", "product_id", p.ID, "caller", caller.UserID)
	return &api.ProductResponse{Product: dto.Product(p)}, nil

}

func (s *GRPCServer) GetProduct(ctx context.Context, req *api.GetProductRequest) (*api.ProductResponse, error) {

	p, err := s.ownedProduct(ctx, func() (*models.Product, error) { return s.products.Get(ctx, req.ID) })
	if err != nil {
		return nil, err
	}

	return &api.ProductResponse{Product: dto.Product(p)}, nil

}

func (s *GRPCServer) ListProducts(ctx context.Context, req *api.ListProductsRequest) (*api.ListProductsResponse, error) {

	caller, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}

	vendorID := caller.UserID
	if caller.Role == auth.RoleAdmin {
		vendorID = req.VendorID
	}

	list, err := s.products.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp := &api.ListProductsResponse{Products: make([]api.Product, 0, len(list))}
	for _, p := range list {
		resp.Products = append(resp.Products, dto.Product(p))
	}
	return resp, nil

}

func (s *GRPCServer) RotateToken(ctx context.Context, req *api.RotateTokenRequest) (*api.RotateTokenResponse, error) {

	p, err := s.ownedProduct(ctx, func() (*models.Product, error) { return s.products.Get(ctx, req.ProductID) })
	if err != nil {
		return nil, err
	}

	rotated, err := s.products.Rotate(ctx, p.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.RotateTokenResponse{
		Token:      rotated.Token,
		QRImageURL: rotated.QRImageURL,
		Product:    dto.Product(rotated),
	}, nil

}

func (s *GRPCServer) SetLifecycleState(ctx context.Context, req *api.SetLifecycleStateRequest) (*api.ProductResponse, error) {

	target, ok := models.ParseLifecycleState(req.State)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown lifecycle state %q", req.State)
	}

	p, err := s.ownedProduct(ctx, func() (*models.Product, error) { return s.products.Resolve(ctx, req.Ref) })
	if err != nil {
		return nil, err
	}

	updated, err := s.products.SetLifecycleState(ctx, p.ID, target, req.Flagged)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.ProductResponse{Product: dto.Product(updated)}, nil

}

func (s *GRPCServer) ListScans(ctx context.Context, req *api.ListScansRequest) (*api.ListScansResponse, error) {

	p, err := s.ownedProduct(ctx, func() (*models.Product, error) { return s.products.Get(ctx, req.ProductID) })
	if err != nil {
		return nil, err
	}

	list, err := s.products.ScanHistory(ctx, p.ID, req.Limit)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.ListScansResponse{Scans: dto.Scans(list)}, nil

}

// vendorScope returns the vendor a caller may read aggregates for. Vendors
// are pinned to themselves; admins may name anyone or nobody.
func vendorScope(ctx context.Context, requested string) (string, error) {
	caller, err := callerFrom(ctx)
	if err != nil {
		return "", err
	}

	requested = strings.TrimSpace(requested)
	if caller.Role == auth.RoleAdmin {
		return requested, nil
	}
	if requested != "" && requested != caller.UserID {
		return "", status.Error(codes.PermissionDenied, "vendors may only read their own data")
	}
	return caller.UserID, nil
}

func (s *GRPCServer) ListVendorScans(ctx context.Context, req *api.ListVendorScansRequest) (*api.ListScansResponse, error) {

	vendorID, err := vendorScope(ctx, req.VendorID)
	if err != nil {
		return nil, err
	}

	list, err := s.products.VendorScanHistory(ctx, vendorID, req.Limit)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.ListScansResponse{Scans: dto.Scans(list)}, nil

}

func (s *GRPCServer) ListScansByToken(ctx context.Context, req *api.ListScansByTokenRequest) (*api.ListScansResponse, error) {

	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	list, err := s.products.TokenScanHistory(ctx, req.Token, req.Limit)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.ListScansResponse{Scans: dto.Scans(list)}, nil

}

func (s *GRPCServer) DashboardStats(ctx context.Context, req *api.DashboardStatsRequest) (*api.DashboardStatsResponse, error) {

	vendorID, err := vendorScope(ctx, req.VendorID)
	if err != nil {
		return nil, err
	}

	st, err := s.products.DashboardStats(ctx, vendorID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return dto.DashboardStats(vendorID, st), nil

}

func (s *GRPCServer) ListFakeReports(ctx context.Context, req *api.ListFakeReportsRequest) (*api.ListFakeReportsResponse, error) {

	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	st := models.FakeReportStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	list, total, err := s.reports.List(ctx, st, req.Page, req.Limit)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp := &api.ListFakeReportsResponse{Reports: make([]api.FakeReport, 0, len(list)), Total: total}
	for _, r := range list {
		resp.Reports = append(resp.Reports, dto.FakeReport(r))
	}
	return resp, nil

}

func (s *GRPCServer) UpdateFakeReport(ctx context.Context, req *api.UpdateFakeReportRequest) (*api.FakeReportResponse, error) {

	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	r, err := s.reports.Update(ctx, req.ID, models.FakeReportStatus(strings.ToLower(strings.TrimSpace(req.Status))), req.Notes)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.FakeReportResponse{Report: dto.FakeReport(r)}, nil

}
