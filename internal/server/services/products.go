// Package services contains server-side business logic behind the gRPC and
// HTTP transports. This file implements ProductService: product creation,
// token rotation, administrative lifecycle overrides and scan history reads.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/common"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/dbx"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/logging"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/config"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/events"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/lifecycle"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/metrics"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/qr"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/repositories/products"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200

	defaultPublicHistoryLimit = 8
	maxPublicHistoryLimit     = 20

	maxProductNameLen = 200
	maxDescriptionLen = 2000
)

// CreateProductInput carries the vendor supplied catalogue fields.
type CreateProductInput struct {
	VendorID        string
	VendorName      string
	ProductName     string
	Description     string
	Category        string
	BatchID         string
	ManufactureDate *time.Time
	ExpiresAt       time.Time
}

type ProductService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	renderer    qr.Renderer
	machine     *lifecycle.Machine
	publisher   events.Publisher
	metrics     metrics.API
	logger      logging.Logger

	rotationAttempts int
	activateOnCreate bool

	newToken func() (string, error)
	now      func() time.Time
}

// NewProductService wires a ProductService. db may be nil when m is backed
// by in-memory stores.
func NewProductService(db dbx.DBTX, m repomanager.RepositoryManager, renderer qr.Renderer,
	mm metrics.API, logger logging.Logger, cfg *config.Config) *ProductService {

	attempts := cfg.RotationAttempts
	if attempts <= 0 {
		attempts = 1
	}
	if mm == nil {
		mm = metrics.Nop{}
	}

	return &ProductService{
		db:               db,
		repomanager:      m,
		renderer:         renderer,
		machine:          lifecycle.NewMachine(),
		publisher:        events.NopPublisher{},
		metrics:          mm,
		logger:           logger.With("module", "products"),
		rotationAttempts: attempts,
		activateOnCreate: cfg.ActivateOnCreate,
		newToken:         func() (string, error) { return common.MakeRandHexString(common.TokenBytes) },
		now:              time.Now,
	}
}

// WithPublisher sets where rotation events go.
func (s *ProductService) WithPublisher(p events.Publisher) *ProductService {
	if p != nil {
		s.publisher = p
	}
	return s
}

func (s *ProductService) repo() products.Repository {
	return s.repomanager.Products(s.db)
}

func validateCreate(in *CreateProductInput, now time.Time) error {
	in.VendorID = strings.TrimSpace(in.VendorID)
	in.ProductName = strings.TrimSpace(in.ProductName)

	switch {
	case in.VendorID == "":
		return fmt.Errorf("%w: vendor id is required", common.ErrorValidation)
	case in.ProductName == "":
		return fmt.Errorf("%w: product name is required", common.ErrorValidation)
	case len(in.ProductName) > maxProductNameLen:
		return fmt.Errorf("%w: product name is too long", common.ErrorValidation)
	case len(in.Description) > maxDescriptionLen:
		return fmt.Errorf("%w: description is too long", common.ErrorValidation)
	case in.ExpiresAt.IsZero():
		return fmt.Errorf("%w: expiry date is required", common.ErrorValidation)
	case !in.ExpiresAt.After(now):
		return fmt.Errorf("%w: expiry date must be in the future", common.ErrorValidation)
	case in.ManufactureDate != nil && in.ManufactureDate.After(in.ExpiresAt):
		return fmt.Errorf("%w: manufacture date is after expiry date", common.ErrorValidation)
	}
	return nil
}

// Create mints a token for a new product, renders its QR artifact and
// stores the record. The initial state is active or generated depending on
// the activate-on-create policy.
func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	now := s.now()
	if err := validateCreate(&in, now); err != nil {
		return nil, err
	}

	state := models.StateGenerated
	if s.activateOnCreate {
		state = models.StateActive
	}

	p := &models.Product{
		ID:              uuid.NewString(),
		VendorID:        in.VendorID,
		VendorName:      strings.TrimSpace(in.VendorName),
		ProductName:     in.ProductName,
		Description:     strings.TrimSpace(in.Description),
		Category:        strings.TrimSpace(in.Category),
		BatchID:         strings.TrimSpace(in.BatchID),
		ManufactureDate: in.ManufactureDate,
		ExpiresAt:       in.ExpiresAt,
		LifecycleState:  state,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.allocateToken(ctx, func(token, url string) error {
		p.Token, p.QRImageURL = token, url
		return s.repo().Insert(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "product created", "product_id", p.ID, "vendor_id", p.VendorID, "state", p.LifecycleState)
	return p, nil
}

// allocateToken generates candidate tokens until store succeeds or the
// attempt budget is spent. store returning common.ErrorConflict means the
// token was taken concurrently and another candidate is tried.
func (s *ProductService) allocateToken(ctx context.Context, store func(token, url string) error) error {
	repo := s.repo()

	for attempt := 1; attempt <= s.rotationAttempts; attempt++ {
		token, err := s.newToken()
		if err != nil {
			return fmt.Errorf("%w: token generation: %v", common.ErrorInternal, err)
		}

		_, err = repo.FindByToken(ctx, token)
		if err == nil {
			s.logger.Warn(ctx, "token collision", "attempt", attempt)
			continue
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: token lookup: %v", common.ErrorUnavailable, err)
		}

		url, err := s.renderer.Render(ctx, token)
		if err != nil {
			return err
		}

		err = store(token, url)
		if err != nil {
			s.discard(ctx, token)
		}
		if errors.Is(err, common.ErrorConflict) {
			s.logger.Warn(ctx, "token collision on write", "attempt", attempt)
			continue
		}
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return err
			}
			return fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
		}
		return nil
	}

	return common.ErrTokenCollision
}

// discard removes the artifact rendered for a token that did not make it
// into the store. Failure leaves an orphaned object and is only logged.
func (s *ProductService) discard(ctx context.Context, token string) {
	if err := s.renderer.Discard(ctx, token); err != nil {
		s.logger.Warn(ctx, "orphaned qr artifact not removed", "error", err)
	}
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.repo().FindByID(ctx, id)
	if err != nil {
		return nil, storeError("product lookup", err)
	}
	return p, nil
}

// Resolve finds a product by ID when ref is uuid-shaped, otherwise by token.
func (s *ProductService) Resolve(ctx context.Context, ref string) (*models.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: product reference is required", common.ErrorValidation)
	}

	var (
		p   *models.Product
		err error
	)
	if _, perr := uuid.Parse(ref); perr == nil {
		p, err = s.repo().FindByID(ctx, ref)
	} else {
		p, err = s.repo().FindByToken(ctx, ref)
	}
	if err != nil {
		return nil, storeError("product lookup", err)
	}
	return p, nil
}

// ListByVendor lists products newest first; an empty vendorID lists all.
func (s *ProductService) ListByVendor(ctx context.Context, vendorID string) ([]*models.Product, error) {
	list, err := s.repo().ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, storeError("product list", err)
	}
	return list, nil
}

// Rotate replaces the product's token and QR artifact and resets it to a
// fresh active record. The previous token stops resolving; its history is
// kept.
func (s *ProductService) Rotate(ctx context.Context, productID string) (*models.Product, error) {
	p, err := s.Get(ctx, productID)
	if err != nil {
		s.metrics.Rotation("not_found")
		return nil, err
	}

	var rotated models.Product
	err = s.allocateToken(ctx, func(token, url string) error {
		rotated = *p
		update, err := s.machine.Apply(&rotated, lifecycle.Rotate{Token: token, QRImageURL: url})
		if err != nil {
			return err
		}
		return s.repo().ApplyPartialUpdate(ctx, p.ID, update)
	})

	switch {
	case errors.Is(err, common.ErrTokenCollision):
		s.metrics.Rotation("collision")
		s.logger.Error(ctx, "token rotation exhausted its attempts", "product_id", p.ID, "attempts", s.rotationAttempts)
		return nil, err
	case errors.Is(err, common.ErrRenderFailed):
		s.metrics.Rotation("render_failed")
		return nil, err
	case err != nil:
		s.metrics.Rotation("error")
		return nil, err
	}

	s.metrics.Rotation("ok")
	s.logger.Info(ctx, "token rotated", "product_id", p.ID)

	ev := events.DecisionEvent{
		Type:          events.TypeRotation,
		Token:         rotated.Token,
		PreviousToken: p.Token,
		ProductID:     p.ID,
		VendorID:      p.VendorID,
		At:            s.now(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.metrics.EventPublishFailed()
		s.logger.Warn(ctx, "rotation event not published", "product_id", p.ID, "error", err)
	}
	return &rotated, nil
}

// SetLifecycleState applies an administrative override. ref is a product ID
// or a token. flagged, when set, overrides the flag; otherwise the flag is
// left as is.
func (s *ProductService) SetLifecycleState(ctx context.Context, ref string, target models.LifecycleState, flagged *bool) (*models.Product, error) {
	p, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	update, err := s.machine.Apply(p, lifecycle.AdminSetState{Target: target, Flagged: flagged})
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return p, nil
	}

	if err := s.repo().ApplyPartialUpdate(ctx, p.ID, update); err != nil {
		return nil, storeError("product update", err)
	}

	s.logger.Info(ctx, "lifecycle state set", "product_id", p.ID, "state", p.LifecycleState, "flagged", p.IsFlagged)
	return p, nil
}

// ScanHistory returns the full history rows of a product, newest first.
func (s *ProductService) ScanHistory(ctx context.Context, productID string, limit int) ([]*models.ScanEntry, error) {
	if _, err := s.Get(ctx, productID); err != nil {
		return nil, err
	}

	list, err := s.repomanager.Scans(s.db).ListByProduct(ctx, productID, clampLimit(limit, defaultHistoryLimit, maxHistoryLimit))
	if err != nil {
		return nil, storeError("scan history", err)
	}
	return list, nil
}

// PublicScanHistory returns the anonymous view of recent scans: outcome,
// location and time only.
func (s *ProductService) PublicScanHistory(ctx context.Context, productID string, limit int) ([]models.PublicScan, error) {
	if _, err := s.Get(ctx, productID); err != nil {
		return nil, err
	}

	list, err := s.repomanager.Scans(s.db).ListByProduct(ctx, productID, clampLimit(limit, defaultPublicHistoryLimit, maxPublicHistoryLimit))
	if err != nil {
		return nil, storeError("scan history", err)
	}

	out := make([]models.PublicScan, 0, len(list))
	for _, e := range list {
		out = append(out, e.Public())
	}
	return out, nil
}

// VendorScanHistory lists the newest history rows across every product of
// a vendor. An empty vendorID lists all vendors.
func (s *ProductService) VendorScanHistory(ctx context.Context, vendorID string, limit int) ([]*models.ScanEntry, error) {
	list, err := s.repomanager.Scans(s.db).ListByVendor(ctx, vendorID, clampLimit(limit, defaultHistoryLimit, maxHistoryLimit))
	if err != nil {
		return nil, storeError("vendor scan history", err)
	}
	return list, nil
}

// TokenScanHistory lists the rows written under one token string. It is
// the only way to reach rows of a token that has been rotated away.
func (s *ProductService) TokenScanHistory(ctx context.Context, token string, limit int) ([]*models.ScanEntry, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", common.ErrorValidation)
	}

	list, err := s.repomanager.Scans(s.db).ListByToken(ctx, token, clampLimit(limit, defaultHistoryLimit, maxHistoryLimit))
	if err != nil {
		return nil, storeError("token scan history", err)
	}
	return list, nil
}

// DashboardStats aggregates product and scan counts for one vendor, or for
// everyone when vendorID is empty.
func (s *ProductService) DashboardStats(ctx context.Context, vendorID string) (*models.DashboardStats, error) {
	ps, err := s.repo().Stats(ctx, vendorID)
	if err != nil {
		return nil, storeError("product stats", err)
	}
	ss, err := s.repomanager.Scans(s.db).Stats(ctx, vendorID)
	if err != nil {
		return nil, storeError("scan stats", err)
	}
	return &models.DashboardStats{Products: ps, Scans: ss}, nil
}

func clampLimit(limit, def, hi int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, hi)
}

// storeError keeps not-found and conflict visible to the transport and
// marks anything else as a transient dependency failure.
func storeError(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorConflict) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", common.ErrorUnavailable, op, err)
}
