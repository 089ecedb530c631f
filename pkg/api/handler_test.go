package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hazyhaar/scoutlens/pkg/delivery"
	"github.com/hazyhaar/scoutlens/pkg/dispatch"
	"github.com/hazyhaar/scoutlens/pkg/envelope"
	"github.com/hazyhaar/scoutlens/pkg/resolver"
	"github.com/hazyhaar/scoutlens/pkg/upstream"
)

type recordingResolver struct {
	mu      sync.Mutex
	queries []resolver.Query
	env     envelope.Envelope
}

func (r *recordingResolver) Resolve(_ context.Context, q resolver.Query) envelope.Envelope {
	r.mu.Lock()
	r.queries = append(r.queries, q)
	r.mu.Unlock()
	return r.env
}

func newTestRouter(t *testing.T, env envelope.Envelope, health HealthSource) (http.Handler, *recordingResolver) {
	t.Helper()
	res := &recordingResolver{env: env}
	d := dispatch.New(res, delivery.NewChannel(nil, nil), nil)
	t.Cleanup(d.Wait)
	return NewRouter(d, health, nil), res
}

func TestSearch_ReturnsEnvelope(t *testing.T) {
	router, res := newTestRouter(t, envelope.Error(resolver.MsgNoResults), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/search?q=Arda+G%C3%BCler", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var env envelope.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Kind != envelope.KindError || env.Message != resolver.MsgNoResults {
		t.Errorf("envelope = %+v", env)
	}
	if len(res.queries) != 1 || res.queries[0].Text != "Arda Güler" || res.queries[0].IsLocator {
		t.Errorf("queries = %+v", res.queries)
	}
}

func TestSearch_Locator(t *testing.T) {
	router, res := newTestRouter(t, envelope.Details([]byte(`{"name":"x"}`)), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/search?q=https%3A%2F%2Fexample.test%2Fp%2F1&locator=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"type":"DETAILS"`) {
		t.Errorf("body = %s", rec.Body)
	}
	if len(res.queries) != 1 || !res.queries[0].IsLocator {
		t.Errorf("queries = %+v", res.queries)
	}
}

func TestSearch_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"missing q", "/v1/search"},
		{"blank q", "/v1/search?q=%20%20"},
		{"bad locator", "/v1/search?q=arda&locator=maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, res := newTestRouter(t, envelope.Loading(), nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if len(res.queries) != 0 {
				t.Errorf("resolver called for rejected request: %+v", res.queries)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	router, _ := newTestRouter(t, envelope.Loading(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/search", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

type fakeHealth struct {
	checks []upstream.Check
	err    error
}

func (f fakeHealth) Latest() ([]upstream.Check, error) { return f.checks, f.err }

func TestHealth(t *testing.T) {
	ok, down := 200, 503
	now := int64(1700000000)
	msg := "HEAD failed"

	tests := []struct {
		name   string
		health HealthSource
		code   int
		status string
	}{
		{"no checker", nil, http.StatusOK, "ok"},
		{"reachable", fakeHealth{checks: []upstream.Check{{Endpoint: "a", LastStatus: &ok, LastCheck: &now}}}, http.StatusOK, "ok"},
		{"unchecked", fakeHealth{checks: []upstream.Check{{Endpoint: "a"}}}, http.StatusOK, "ok"},
		{"down", fakeHealth{checks: []upstream.Check{{Endpoint: "a", LastStatus: &down, LastCheck: &now, LastError: &msg}}}, http.StatusOK, "degraded"},
		{"store error", fakeHealth{err: errors.New("disk")}, http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, envelope.Loading(), tt.health)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			if tt.status == "" {
				return
			}
			var resp healthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.status {
				t.Errorf("status = %q, want %q", resp.Status, tt.status)
			}
		})
	}
}

type refusingDispatcher struct{}

func (refusingDispatcher) Dispatch(context.Context, dispatch.Inbound) bool { return false }

func TestSearchEndpoint_NotAccepted(t *testing.T) {
	_, err := searchEndpoint(refusingDispatcher{})(context.Background(), &searchReq{Query: "arda"})
	if !errors.Is(err, ErrNotAccepted) {
		t.Fatalf("err = %v, want ErrNotAccepted", err)
	}
}

type silentDispatcher struct{}

func (silentDispatcher) Dispatch(context.Context, dispatch.Inbound) bool { return true }

func TestSearchEndpoint_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := searchEndpoint(silentDispatcher{})(ctx, &searchReq{Query: "arda"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
