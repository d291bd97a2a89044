// Package verification decides, for one presentation of a token, whether
// it is genuine, already used, expired, blocked or invalid, and escalates
// tokens that look cloned or shared to blocked.
//
// The engine holds no state between calls. Concurrent presentations of the
// same token are not serialized; a race that yields two Valid results is
// visible to the anomaly window of the next presentation. Reveal writes are
// conditional on the stored state, so a concurrent block is never undone,
// and every evaluation write is conditional on the presented token, so a
// record rotated in between is left alone.
package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/common"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/logging"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/events"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/geo"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/lifecycle"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/metrics"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/repositories/products"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/repositories/scans"
	"github.com/google/uuid"
)

const maxUserAgentLen = 300

// Presentation is one verification request.
type Presentation struct {
	Token         string
	SourceAddress string
	UserAgent     string
	// At defaults to the engine clock when zero.
	At time.Time
}

// Decision is the engine's answer. Product is the record as it stands
// after this evaluation's writes (nil for unknown tokens); it is not
// re-read from the store.
type Decision struct {
	Outcome  models.Outcome
	Expired  bool
	Flagged  bool
	Message  string
	Location string
	Product  *models.Product
	Anomaly  *AnomalyReport
}

type Dependencies struct {
	Products   products.Repository
	Scans      scans.Repository
	Geo        geo.Resolver
	Machine    *lifecycle.Machine
	Publisher  events.Publisher
	Metrics    metrics.API
	Logger     logging.Logger
	Thresholds Thresholds
}

type Engine struct {
	products   products.Repository
	scans      scans.Repository
	geo        geo.Resolver
	machine    *lifecycle.Machine
	publisher  events.Publisher
	metrics    metrics.API
	logger     logging.Logger
	thresholds Thresholds

	now   func() time.Time
	newID func() string
}

func NewEngine(d Dependencies) *Engine {
	e := &Engine{
		products:   d.Products,
		scans:      d.Scans,
		geo:        d.Geo,
		machine:    d.Machine,
		publisher:  d.Publisher,
		metrics:    d.Metrics,
		logger:     d.Logger.With("module", "verification"),
		thresholds: d.Thresholds.normalized(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	if e.geo == nil {
		e.geo = geo.StaticResolver{}
	}
	if e.machine == nil {
		e.machine = lifecycle.NewMachine()
	}
	if e.publisher == nil {
		e.publisher = events.NopPublisher{}
	}
	if e.metrics == nil {
		e.metrics = metrics.Nop{}
	}
	return e
}

func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate classifies one presentation and applies its side effects.
//
// Errors: common.ErrorValidation for an empty token, common.ErrorUnavailable
// when the record or the recent history cannot be read or the record cannot
// be updated. A failed history append is logged and counted, never returned.
func (e *Engine) Evaluate(ctx context.Context, p Presentation) (*Decision, error) {
	token := strings.TrimSpace(p.Token)
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", common.ErrorValidation)
	}
	at := p.At
	if at.IsZero() {
		at = e.now()
	}
	started := e.now()
	defer func() { e.metrics.Duration("evaluate", e.now().Sub(started)) }()

	addr := geo.NormalizeAddress(p.SourceAddress)

	product, err := e.products.FindByToken(ctx, token)
	if errors.Is(err, common.ErrorNotFound) {
		return e.unknownToken(ctx, token, addr, at), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: token lookup: %v", common.ErrorUnavailable, err)
	}

	baseline := classify(product, at)
	location := e.geo.Resolve(ctx, addr)
	outcome := baseline

	var report *AnomalyReport
	if baseline == models.OutcomeValid || baseline == models.OutcomeAlreadyUsed {
		window, err := e.scans.FindRecent(ctx, token, at.Add(-e.thresholds.Window), e.thresholds.HistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("%w: history read: %v", common.ErrorUnavailable, err)
		}

		r := e.thresholds.Score(baseline, window, addr, location)
		report = &r

		update, err := e.machine.Apply(product, lifecycle.Evaluate{Anomalous: r.Anomalous(), At: at})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		err = e.products.ApplyPartialUpdate(ctx, product.ID, update)
		switch {
		case errors.Is(err, common.ErrStateChanged):
			// Another writer moved or rotated the record since it was read;
			// the stored record is authoritative and this is not a reveal.
			product, outcome, err = e.reclassify(ctx, product.ID, token, at)
			if err != nil {
				return nil, err
			}
			e.logger.Warn(ctx, "record changed during evaluation", "product_id", product.ID, "outcome", outcome)
		case err != nil:
			return nil, fmt.Errorf("%w: record update: %v", common.ErrorUnavailable, err)
		case r.Anomalous():
			outcome = models.OutcomeBlocked
			for _, reason := range r.Reasons {
				e.metrics.Anomaly(string(reason))
			}
			e.logger.Warn(ctx, "anomalous presentation, token blocked",
				"product_id", product.ID, "reasons", r.Reasons,
				"scan_count", r.ScanCount, "unique_sources", r.UniqueSources, "unique_locations", r.UniqueLocations)
		}
	}

	e.appendHistory(ctx, &models.ScanEntry{
		ID:            e.newID(),
		ProductID:     product.ID,
		VendorID:      product.VendorID,
		Token:         token,
		Outcome:       outcome,
		SourceAddress: addr,
		Location:      location,
		UserAgent:     common.ClampString(p.UserAgent, maxUserAgentLen),
		ScannedAt:     at,
	})

	e.metrics.Verification(string(outcome))
	e.logger.Info(ctx, "presentation evaluated", "product_id", product.ID, "baseline", baseline, "outcome", outcome)

	ev := events.DecisionEvent{
		Type:          events.TypeDecision,
		Token:         token,
		ProductID:     product.ID,
		VendorID:      product.VendorID,
		Outcome:       string(outcome),
		Flagged:       product.IsFlagged,
		Location:      location,
		SourceAddress: addr,
		At:            at,
	}
	if report != nil {
		for _, r := range report.Reasons {
			ev.Reasons = append(ev.Reasons, string(r))
		}
	}
	e.publish(ctx, ev)

	return &Decision{
		Outcome:  outcome,
		Expired:  product.Expired(at),
		Flagged:  product.IsFlagged,
		Message:  message(outcome, product.LifecycleState),
		Location: location,
		Product:  product,
		Anomaly:  report,
	}, nil
}

// classify computes the baseline outcome from stored state and expiry.
// Blocked wins over Expired; expiry wins over every other state.
func classify(p *models.Product, at time.Time) models.Outcome {
	switch {
	case p.LifecycleState == models.StateBlocked:
		return models.OutcomeBlocked
	case p.Expired(at):
		return models.OutcomeExpired
	case p.LifecycleState == models.StateActive:
		return models.OutcomeValid
	case p.LifecycleState == models.StateConsumed:
		return models.OutcomeAlreadyUsed
	default:
		return models.OutcomeInvalid
	}
}

// reclassify re-reads a record whose guarded write was rejected. A token
// rotated away in the meantime no longer identifies the product.
func (e *Engine) reclassify(ctx context.Context, id, token string, at time.Time) (*models.Product, models.Outcome, error) {
	fresh, err := e.products.FindByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("%w: record re-read: %v", common.ErrorUnavailable, err)
	}
	if fresh.Token != token {
		return fresh, models.OutcomeInvalid, nil
	}
	return fresh, classify(fresh, at), nil
}

func (e *Engine) unknownToken(ctx context.Context, token, addr string, at time.Time) *Decision {
	e.logger.Warn(ctx, "presentation of unknown token", "token", token, "source_address", addr)
	e.metrics.Verification(string(models.OutcomeInvalid))
	e.publish(ctx, events.DecisionEvent{
		Type:          events.TypeUnknownToken,
		Token:         token,
		Outcome:       string(models.OutcomeInvalid),
		SourceAddress: addr,
		At:            at,
	})

	return &Decision{
		Outcome:  models.OutcomeInvalid,
		Message:  "This code is not recognised.",
		Location: geo.UnknownLocation,
	}
}

func (e *Engine) appendHistory(ctx context.Context, entry *models.ScanEntry) {
	if err := e.scans.Append(ctx, entry); err != nil {
		e.metrics.HistoryAppendFailed()
		e.logger.Error(ctx, "scan history append failed",
			"product_id", entry.ProductID, "outcome", entry.Outcome, "error", err)
	}
}

func (e *Engine) publish(ctx context.Context, ev events.DecisionEvent) {
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.metrics.EventPublishFailed()
		e.logger.Warn(ctx, "decision event not published", "type", ev.Type, "error", err)
	}
}

func message(outcome models.Outcome, state models.LifecycleState) string {
	switch outcome {
	case models.OutcomeValid:
		return "Genuine product. This is the first verification of this code."
	case models.OutcomeAlreadyUsed:
		return "This code has already been verified. If you did not scan it before, the product may be counterfeit."
	case models.OutcomeExpired:
		return "This product is past its expiry date."
	case models.OutcomeBlocked:
		return "This code has been blocked. Do not trust this product."
	}
	if state == models.StateGenerated {
		return "This code has not been activated yet."
	}
	return "This code is not valid."
}
