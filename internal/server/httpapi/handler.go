// Package httpapi serves the public consumer-facing HTTP API: token
// verification, public scan history and counterfeit reports.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/api"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/common"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/logging"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/dto"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/services"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/verification"
	"github.com/gorilla/mux"
)

const defaultMaxBody = 16 << 10

type Verifier interface {
	Evaluate(ctx context.Context, p verification.Presentation) (*verification.Decision, error)
}

type ScanHistory interface {
	PublicScanHistory(ctx context.Context, productID string, limit int) ([]models.PublicScan, error)
}

type Reporter interface {
	Report(ctx context.Context, in services.FakeReportInput) (*models.FakeReport, bool, error)
}

type HTTPHandler struct {
	engine  Verifier
	history ScanHistory
	reports Reporter
	logger  logging.Logger
	proxies TrustedProxies
	maxBody int64
}

func NewHTTPHandler(engine Verifier, history ScanHistory, reports Reporter, logger logging.Logger) *HTTPHandler {
	return &HTTPHandler{
		engine:  engine,
		history: history,
		reports: reports,
		logger:  logger,
		maxBody: defaultMaxBody,
	}
}

// WithTrustedProxies sets the peers whose X-Forwarded-For is believed.
func (h *HTTPHandler) WithTrustedProxies(p TrustedProxies) *HTTPHandler {
	h.proxies = p
	return h
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/verify/{token}", h.handleVerify).Methods(http.MethodGet)
	router.HandleFunc("/products/{id}/scans", h.handleScans).Methods(http.MethodGet)
	router.HandleFunc("/products/{id}/report-fake", h.handleReportFake).Methods(http.MethodPost)
}

func (h *HTTPHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	d, err := h.engine.Evaluate(r.Context(), verification.Presentation{
		Token:         mux.Vars(r)["token"],
		SourceAddress: h.proxies.ClientIP(r),
		UserAgent:     r.UserAgent(),
	})
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.Decision(d))
}

func (h *HTTPHandler) handleScans(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	list, err := h.history.PublicScanHistory(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	resp := api.PublicScansResponse{Scans: make([]api.PublicScan, 0, len(list))}
	for _, s := range list {
		resp.Scans = append(resp.Scans, dto.PublicScan(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) handleReportFake(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var req api.ReportFakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn(r.Context(), "invalid fake report payload", "error", err)
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	report, duplicate, err := h.reports.Report(r.Context(), services.FakeReportInput{
		ProductID:     mux.Vars(r)["id"],
		Reason:        req.Reason,
		Details:       req.Details,
		ReporterName:  req.ReporterName,
		ReporterEmail: req.ReporterEmail,
		SourceAddress: h.proxies.ClientIP(r),
		UserAgent:     r.UserAgent(),
	})
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	code := http.StatusCreated
	if duplicate {
		code = http.StatusOK
	}
	writeJSON(w, code, api.ReportFakeResponse{ReportID: report.ID, Duplicate: duplicate})
}

func (h *HTTPHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "not found"})
	case errors.Is(err, common.ErrorConflict), errors.Is(err, common.ErrStateChanged):
		writeJSON(w, http.StatusConflict, api.ErrorResponse{Error: "conflict"})
	case errors.Is(err, common.ErrorUnavailable):
		h.logger.Error(ctx, "dependency unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, api.ErrorResponse{Error: "temporarily unavailable, retry later"})
	default:
		h.logger.Error(ctx, "internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
