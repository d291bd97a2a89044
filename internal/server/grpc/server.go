// Package grpc exposes the vendorverify service over gRPC with the JSON
// codec declared in internal/api.
package grpc

import (
	"context"
	"net"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/api"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/logging"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/services"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/verification"
	"google.golang.org/grpc"
)

// Verifier evaluates presentations.
type Verifier interface {
	Evaluate(ctx context.Context, p verification.Presentation) (*verification.Decision, error)
}

// ProductManager is the product side of the service layer.
type ProductManager interface {
	Create(ctx context.Context, in services.CreateProductInput) (*models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	Resolve(ctx context.Context, ref string) (*models.Product, error)
	ListByVendor(ctx context.Context, vendorID string) ([]*models.Product, error)
	Rotate(ctx context.Context, productID string) (*models.Product, error)
	SetLifecycleState(ctx context.Context, ref string, target models.LifecycleState, flagged *bool) (*models.Product, error)
	ScanHistory(ctx context.Context, productID string, limit int) ([]*models.ScanEntry, error)
	VendorScanHistory(ctx context.Context, vendorID string, limit int) ([]*models.ScanEntry, error)
	TokenScanHistory(ctx context.Context, token string, limit int) ([]*models.ScanEntry, error)
	DashboardStats(ctx context.Context, vendorID string) (*models.DashboardStats, error)
}

// ReportManager is the fake-report side of the service layer.
type ReportManager interface {
	List(ctx context.Context, status models.FakeReportStatus, page, limit int) ([]*models.FakeReport, int, error)
	Update(ctx context.Context, id string, status models.FakeReportStatus, notes string) (*models.FakeReport, error)
}

type GRPCServer struct {
	address   string
	engine    Verifier
	products  ProductManager
	reports   ReportManager
	logger    logging.Logger
	jwtSecret []byte
}

var _ api.VendorVerifyServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, engine Verifier, ps ProductManager, rs ReportManager, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		engine:    engine,
		products:  ps,
		reports:   rs,
		jwtSecret: []byte(secretKey),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	api.RegisterVendorVerifyServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
