package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/civoranexus/FSD117-PYxMAFIA/internal/api"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/common"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/dbx"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/logging"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/config"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/geo"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/metrics"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/models"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/qr"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/repositories/repomanager"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/services"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/server/verification"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger          { return n }

type stack struct {
	server   *httptest.Server
	products *services.ProductService
	product  *models.Product
}

func newStack(t *testing.T) *stack {
	t.Helper()

	rm := repomanager.NewInMemoryRepositoryManager()
	registry := prometheus.NewRegistry()
	mm := metrics.NewMetricsManager(registry)

	ps := services.NewProductService(nil, rm, qr.InlineRenderer{PayloadPrefix: "https://verify.example/"}, mm, nopLogger{},
		&config.Config{RotationAttempts: 3, ActivateOnCreate: true})
	rs := services.NewFakeReportService(&dbx.LockTransactor{}, rm, nopLogger{})
	engine := verification.NewEngine(verification.Dependencies{
		Products:   rm.Products(nil),
		Scans:      rm.Scans(nil),
		Geo:        geo.StaticResolver{Label: "Riga, Latvia"},
		Metrics:    mm,
		Logger:     nopLogger{},
		Thresholds: verification.DefaultThresholds(),
	})

	p, err := ps.Create(context.Background(), services.CreateProductInput{
		VendorID:    "v1",
		ProductName: "Olive oil",
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	proxies, err := ParseTrustedProxies([]string{"127.0.0.1", "::1", "10.0.0.0/8"})
	require.NoError(t, err)

	router := NewRouter(NewHTTPHandler(engine, ps, rs, nopLogger{}).WithTrustedProxies(proxies), registry, nopLogger{})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &stack{server: srv, products: ps, product: p}
}

func (s *stack) get(t *testing.T, path string, header map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.server.URL+path, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func (s *stack) post(t *testing.T, path, body string, header map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, s.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func TestHealthz(t *testing.T) {
	s := newStack(t)

	resp, body := s.get(t, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))
}

func TestVerify(t *testing.T) {
	s := newStack(t)

	resp, body := s.get(t, "/api/v1/verify/"+s.product.Token, map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got api.VerifyResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Valid", got.Outcome)
	assert.Equal(t, "Riga, Latvia", got.Location)
	require.NotNil(t, got.Product)
	assert.Equal(t, int64(1), got.Product.VerificationCount)
	assert.NotContains(t, string(body), s.product.Token)

	scans, err := s.products.ScanHistory(context.Background(), s.product.ID, 10)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, "203.0.113.5", scans[0].SourceAddress)
}

func TestVerify_UnknownToken(t *testing.T) {
	s := newStack(t)

	resp, body := s.get(t, "/api/v1/verify/deadbeef", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got api.VerifyResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Invalid", got.Outcome)
	assert.Nil(t, got.Product)
}

func TestPublicScans(t *testing.T) {
	s := newStack(t)

	for i := 0; i < 3; i++ {
		resp, _ := s.get(t, "/api/v1/verify/"+s.product.Token, map[string]string{"X-Forwarded-For": "203.0.113.5"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := s.get(t, "/api/v1/products/"+s.product.ID+"/scans?limit=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got api.PublicScansResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Len(t, got.Scans, 2)
	assert.NotContains(t, string(body), "203.0.113.5")

	resp, _ = s.get(t, "/api/v1/products/"+s.product.ID+"/scans?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.get(t, "/api/v1/products/missing/scans", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReportFake(t *testing.T) {
	s := newStack(t)
	path := "/api/v1/products/" + s.product.ID + "/report-fake"
	xff := map[string]string{"X-Forwarded-For": "198.51.100.7"}

	resp, body := s.post(t, path, `{"reason":"broken seal","reporter_email":"A@B.com"}`, xff)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var first api.ReportFakeResponse
	require.NoError(t, json.Unmarshal(body, &first))
	assert.NotEmpty(t, first.ReportID)
	assert.False(t, first.Duplicate)

	resp, body = s.post(t, path, `{"reason":"again"}`, xff)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var again api.ReportFakeResponse
	require.NoError(t, json.Unmarshal(body, &again))
	assert.True(t, again.Duplicate)
	assert.Equal(t, first.ReportID, again.ReportID)

	p, err := s.products.Get(context.Background(), s.product.ID)
	require.NoError(t, err)
	assert.True(t, p.IsFlagged)

	resp, _ = s.post(t, path, `{"reason":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.post(t, path, `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.post(t, "/api/v1/products/missing/report-fake", `{"reason":"x"}`, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newStack(t)

	s.get(t, "/api/v1/verify/"+s.product.Token, nil)
	resp, body := s.get(t, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "vendorverify_service_verifications_total")
}

func TestClientIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.0.2.1 "})
	require.NoError(t, err)

	tests := []struct {
		name    string
		proxies TrustedProxies
		remote  string
		xff     string
		want    string
	}{
		{"no header", trusted, "198.51.100.7:5555", "", "198.51.100.7"},
		{"untrusted peer cannot forge", nil, "198.51.100.7:5555", "203.0.113.9", "198.51.100.7"},
		{"untrusted peer with trust list", trusted, "198.51.100.7:5555", "203.0.113.9", "198.51.100.7"},
		{"trusted peer", trusted, "192.0.2.1:5555", "203.0.113.9", "203.0.113.9"},
		{"spoofed leftmost hop skipped", trusted, "10.1.1.1:80", "1.2.3.4, 203.0.113.9, 10.0.0.2", "203.0.113.9"},
		{"all hops trusted", trusted, "10.1.1.1:80", "10.0.0.3", "10.0.0.3"},
		{"trusted peer without header", trusted, "10.1.1.1:80", "", "10.1.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, tt.proxies.ClientIP(r))
		})
	}
}

func TestParseTrustedProxies_Invalid(t *testing.T) {
	_, err := ParseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"proxy.local"})
	assert.Error(t, err)
}

type recordingVerifier struct {
	got verification.Presentation
}

func (v *recordingVerifier) Evaluate(_ context.Context, p verification.Presentation) (*verification.Decision, error) {
	v.got = p
	return &verification.Decision{Outcome: models.OutcomeInvalid}, nil
}

func TestVerify_ForwardedForNeedsTrustedPeer(t *testing.T) {
	v := &recordingVerifier{}
	router := NewRouter(NewHTTPHandler(v, nil, nil, nopLogger{}), nil, nopLogger{})

	r := httptest.NewRequest(http.MethodGet, "/api/v1/verify/tok", nil)
	r.RemoteAddr = "198.51.100.7:4000"
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	router.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "198.51.100.7", v.got.SourceAddress)

	trusted, err := ParseTrustedProxies([]string{"198.51.100.7"})
	require.NoError(t, err)
	router = NewRouter(NewHTTPHandler(v, nil, nil, nopLogger{}).WithTrustedProxies(trusted), nil, nopLogger{})
	router.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "203.0.113.9", v.got.SourceAddress)
}

type failingVerifier struct{ err error }

func (f failingVerifier) Evaluate(context.Context, verification.Presentation) (*verification.Decision, error) {
	return nil, f.err
}

func TestVerify_ErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{common.ErrorUnavailable, http.StatusServiceUnavailable},
		{common.ErrorValidation, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		h := NewHTTPHandler(failingVerifier{err: tt.err}, nil, nil, nopLogger{})
		rec := httptest.NewRecorder()
		NewRouter(h, nil, nopLogger{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/verify/abc", nil))
		assert.Equal(t, tt.code, rec.Code, tt.err.Error())
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(nopLogger{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
