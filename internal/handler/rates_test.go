package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
	"github.com/ikaadil/any-currency-to-bdt/internal/repository"
)

type stubSnapshots struct {
	snap *domain.Snapshot
	err  error
}

func (s stubSnapshots) Latest(context.Context) (*domain.Snapshot, error) { return s.snap, s.err }

type stubHistory struct {
	points []repository.HistoryPoint
	code   string
	limit  int
}

func (s *stubHistory) BestHistory(_ context.Context, code string, limit int) ([]repository.HistoryPoint, error) {
	s.code, s.limit = code, limit
	return s.points, nil
}

func sampleSnapshot() *domain.Snapshot {
	snap := domain.NewSnapshot(time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC))
	snap.Add("USD", domain.Rate{Provider: "Wise", URL: "https://wise.com", Rate: 122.2, Delivery: "Bank"})
	snap.Add("USD", domain.Rate{Provider: "Xe", URL: "https://xe.com", Rate: 121.8, Delivery: "Bank"})
	return snap
}

func newRouter(reader SnapshotReader, history HistoryReader, apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(trace.NewNoopTracerProvider().Tracer("test"), reader, history).RegisterRoutes(r, apiKey)
	return r
}

func get(r http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	r.ServeHTTP(w, req)
	return w
}

func TestGetRates(t *testing.T) {
	r := newRouter(stubSnapshots{snap: sampleSnapshot()}, nil, "")

	w := get(r, "/api/rates")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if snap.Best("USD").Provider != "Wise" || len(snap.Rates) != len(domain.Currencies) {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestGetRatesUnavailable(t *testing.T) {
	r := newRouter(stubSnapshots{err: errors.New("no snapshot yet")}, nil, "")

	if w := get(r, "/api/rates"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if w := get(r, "/api/best"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestGetCurrencyRates(t *testing.T) {
	r := newRouter(stubSnapshots{snap: sampleSnapshot()}, nil, "")

	w := get(r, "/api/rates/usd")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Currency domain.Currency `json:"currency"`
		Rates    []domain.Rate   `json:"rates"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Currency.Code != "USD" || len(body.Rates) != 2 || body.Rates[0].Provider != "Wise" {
		t.Fatalf("unexpected body: %+v", body)
	}

	w = get(r, "/api/rates/JPY")
	if w.Code != http.StatusOK || !json.Valid(w.Body.Bytes()) {
		t.Fatalf("empty bucket should still be 200, got %d", w.Code)
	}

	if w := get(r, "/api/rates/XYZ"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown currency, got %d", w.Code)
	}
}

func TestGetBest(t *testing.T) {
	r := newRouter(stubSnapshots{snap: sampleSnapshot()}, nil, "")

	w := get(r, "/api/best")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Best map[string]*domain.Rate `json:"best"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Best["USD"] == nil || body.Best["USD"].Provider != "Wise" {
		t.Fatalf("unexpected USD best: %+v", body.Best["USD"])
	}
	if v, ok := body.Best["GBP"]; !ok || v != nil {
		t.Fatalf("GBP should be present and null")
	}
}

func TestGetHistory(t *testing.T) {
	hist := &stubHistory{points: []repository.HistoryPoint{{Provider: "Wise", Rate: 122.2}}}
	r := newRouter(stubSnapshots{snap: sampleSnapshot()}, hist, "")

	w := get(r, "/api/history/gbp?limit=5")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if hist.code != "GBP" || hist.limit != 5 {
		t.Fatalf("unexpected query %s/%d", hist.code, hist.limit)
	}

	get(r, "/api/history/gbp?limit=100000")
	if hist.limit != defaultHistoryLimit {
		t.Fatalf("out-of-range limit should fall back to default, got %d", hist.limit)
	}
}

func TestHistoryRouteDisabledWithoutRepository(t *testing.T) {
	r := newRouter(stubSnapshots{snap: sampleSnapshot()}, nil, "")
	if w := get(r, "/api/history/USD"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAPIKeyProtectsAPIOnly(t *testing.T) {
	r := newRouter(stubSnapshots{snap: sampleSnapshot()}, nil, "secret")

	if w := get(r, "/health"); w.Code != http.StatusOK {
		t.Fatalf("health must stay public, got %d", w.Code)
	}
	if w := get(r, "/api/rates"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if w := get(r, "/api/rates", "X-API-Key", "wrong"); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if w := get(r, "/api/rates", "X-API-Key", "secret"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := get(r, "/api/best", "Authorization", "Bearer secret"); w.Code != http.StatusOK {
		t.Fatalf("expected bearer token to be accepted, got %d", w.Code)
	}
}
