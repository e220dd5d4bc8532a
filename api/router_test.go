package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/use-agent/docket/cache"
	"github.com/use-agent/docket/config"
	"github.com/use-agent/docket/models"
)

func newTestRouter(t *testing.T, apiKeys []string) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Auth.Enabled = len(apiKeys) > 0
	cfg.Auth.APIKeys = apiKeys
	cfg.RateLimit.RequestsPerSecond = 100
	cfg.RateLimit.Burst = 100

	cc := cache.New(10)
	rec := &models.CanonicalRecord{
		EntityID: "CG-0001",
		Sections: map[string]map[string]string{
			"project": {"project_name": "Green Acres Phase II"},
		},
	}
	report := &models.QAReport{
		Entities: []models.EntityDiff{{EntityID: "CG-0001"}},
		Counts:   map[models.DiffStatus]int{},
	}
	cc.PutRun(map[string]*models.CanonicalRecord{"CG-0001": rec}, report)

	return NewRouter(cfg, cc, time.Now())
}

func doRequest(r http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthOpenWithoutKey(t *testing.T) {
	r := newTestRouter(t, []string{"secret"})

	w := doRequest(r, http.MethodGet, "/api/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", w.Code)
	}
}

func TestRouter_KnownRecordReturned(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/records/CG-0001", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.RecordResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Record == nil || resp.Record.EntityID != "CG-0001" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestRouter_UnknownRecordIsNotFound(t *testing.T) {
	r := newTestRouter(t, nil)

	for _, path := range []string{
		"/api/v1/records/CG-9999",
		"/api/v1/records/CG-9999/diff",
	} {
		w := doRequest(r, http.MethodGet, path, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, w.Code)
			continue
		}
		var resp models.APIResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
		if resp.Success || resp.Error == nil || resp.Error.Code != models.ErrCodeNotFound {
			t.Errorf("%s: error body = %+v, want code %s", path, resp.Error, models.ErrCodeNotFound)
		}
	}
}

func TestRouter_AuthChecksKey(t *testing.T) {
	r := newTestRouter(t, []string{"secret"})

	tests := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"no key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"X-API-Key": "guess"}, http.StatusUnauthorized},
		{"header key", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"bearer key", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, "/api/v1/records/CG-0001", tt.header)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
