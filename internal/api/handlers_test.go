package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cendeu-features-go/internal/processor"
	"cendeu-features-go/internal/types"
	"cendeu-features-go/internal/window"
)

type stubSource struct {
	debts []types.RawDebt
}

func (s stubSource) FetchDebts(_ context.Context, _ string) ([]types.RawDebt, error) {
	return s.debts, nil
}

func newMux(t *testing.T, debts []types.RawDebt) *http.ServeMux {
	t.Helper()
	p, err := processor.New(stubSource{debts: debts}, window.DefaultConfig())
	if err != nil {
		t.Fatalf("processor: %v", err)
	}
	p.WithClock(func() time.Time { return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC) })
	return NewMux(p)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestAggregateEndpoint(t *testing.T) {
	mux := newMux(t, nil)
	body := `{"now":"2026-10-15","debts":[
		{"information_date":"2025-09-01","situation":5},
		{"information_date":"not-a-date","situation":9}
	]}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/aggregate", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	out := decode(t, rec)
	data, ok := out["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing data: %v", out)
	}
	if data["is_in_cendeu"] != true {
		t.Fatalf("expected is_in_cendeu true: %v", data)
	}
	if data["cendeu_current_situation"] != float64(0) {
		t.Fatalf("current = %v", data["cendeu_current_situation"])
	}
	if _, ok := data["cendeu_worst_situation_last_12_months"]; ok {
		t.Fatalf("last_12_months should be absent: %v", data)
	}
	if data["cendeu_worst_situation_last_24_months"] != float64(5) {
		t.Fatalf("last_24_months = %v", data["cendeu_worst_situation_last_24_months"])
	}
	diags, ok := out["diagnostics"].([]interface{})
	if !ok || len(diags) != 1 {
		t.Fatalf("expected one diagnostic: %v", out["diagnostics"])
	}
}

func TestAggregateEndpointRejectsUnreadableBody(t *testing.T) {
	rec := httptest.NewRecorder()
	newMux(t, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/aggregate", strings.NewReader(`{"debts": 3}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestLookupEndpoint(t *testing.T) {
	mux := newMux(t, []types.RawDebt{{"information_date": "2026-10-01", "situation": 3}})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cendeu?cuit=20123456789", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	out := decode(t, rec)
	if len(out) != 1 || out["is_in_cendeu"] != true {
		t.Fatalf("unexpected non-verbose body: %v", out)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cendeu?cuit=20123456789&verbose=true", nil))
	out = decode(t, rec)
	data := out["data"].(map[string]interface{})
	if data["cendeu_worst_situation_last_12_months"] != float64(3) {
		t.Fatalf("unexpected verbose data: %v", data)
	}
	if _, ok := out["raw_data"]; !ok {
		t.Fatalf("verbose body should include raw_data")
	}
	if _, ok := out["response_time_ms"]; !ok {
		t.Fatalf("verbose body should include response_time_ms")
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cendeu", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing cuit status = %d", rec.Code)
	}
}
