package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/carryapp/carry-config/internal/asset"
	"github.com/carryapp/carry-config/internal/bridge"
	"github.com/carryapp/carry-config/internal/loader"
)

type controllableClock struct {
	mu  sync.RWMutex
	now time.Time
}

func newControllableClock(initial time.Time) *controllableClock {
	return &controllableClock{now: initial}
}

func (c *controllableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

type tableOnlyModule struct{}

func (tableOnlyModule) Name() string { return "Static" }

func (tableOnlyModule) Constants() (map[string]any, bool) {
	return map[string]any{"k": "v"}, true
}

const testConfig = `{
  "APP_NAME": "Carry",
  "VARIANT": "carry",
  "FEATURES_GATE": {"SUPPORTED_LANGUAGES": ["en", "es"], "DONATION": true},
  "EMPTY": {}
}`

func setupTestRouter(t *testing.T, files fstest.MapFS) (http.Handler, *controllableClock) {
	t.Helper()

	logger := zaptest.NewLogger(t)
	registry := bridge.NewRegistry()

	module := bridge.NewConfigModule(bridge.DefaultModuleName, loader.New(asset.NewFSProvider(files), logger))
	if err := registry.Register(module); err != nil {
		t.Fatalf("register module: %v", err)
	}
	if err := registry.Register(tableOnlyModule{}); err != nil {
		t.Fatalf("register module: %v", err)
	}

	clock := newControllableClock(time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC))
	handler := NewHandler(registry, WithClock(clock.Now))
	router := NewRouter(handler, logger, WithLogging(false))

	return router, clock
}

func withConfig(contents string) fstest.MapFS {
	return fstest.MapFS{"config.json": &fstest.MapFile{Data: []byte(contents)}}
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	resp := httptest.NewRecorder()
	writeInternalError(resp, assertError("boom"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.Code)
	}
}

type assertError string

func (a assertError) Error() string { return string(a) }

func TestHealthEndpoint(t *testing.T) {
	router, clock := setupTestRouter(t, withConfig(testConfig))

	rec := get(t, router, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %s", body.Status)
	}
	if !body.Timestamp.Equal(clock.Now()) {
		t.Fatalf("expected timestamp %s, got %s", clock.Now(), body.Timestamp)
	}
}

func TestListModules(t *testing.T) {
	router, _ := setupTestRouter(t, withConfig(testConfig))

	rec := get(t, router, "/api/modules")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Modules []string `json:"modules"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if diff := cmp.Diff([]string{"CarryConfig", "Static"}, body.Modules); diff != "" {
		t.Fatalf("unexpected modules (-want +got):\n%s", diff)
	}
}

func TestGetConstants(t *testing.T) {
	router, _ := setupTestRouter(t, withConfig(testConfig))

	rec := get(t, router, "/api/modules/CarryConfig/constants")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Module    string         `json:"module"`
		Available bool           `json:"available"`
		Constants map[string]any `json:"constants"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Module != "CarryConfig" || !body.Available {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	want := map[string]any{
		"APP_NAME": "Carry",
		"VARIANT":  "carry",
		"FEATURES_GATE": map[string]any{
			"SUPPORTED_LANGUAGES": []any{"en", "es"},
			"DONATION":            true,
		},
		"EMPTY": map[string]any{},
	}
	if diff := cmp.Diff(want, body.Constants); diff != "" {
		t.Fatalf("unexpected constants (-want +got):\n%s", diff)
	}
}

func TestGetConstantsEmptyObject(t *testing.T) {
	router, _ := setupTestRouter(t, withConfig(`{}`))

	rec := get(t, router, "/api/modules/CarryConfig/constants")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(body["available"]) != "true" || string(body["constants"]) != "{}" {
		t.Fatalf("expected available empty table, got available=%s constants=%s", body["available"], body["constants"])
	}
}

func TestGetConstantsAbsentConfig(t *testing.T) {
	router, _ := setupTestRouter(t, fstest.MapFS{})

	rec := get(t, router, "/api/modules/CarryConfig/constants")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(body["available"]) != "false" || string(body["constants"]) != "null" {
		t.Fatalf("expected absent table, got available=%s constants=%s", body["available"], body["constants"])
	}

	rec = get(t, router, "/api/modules/CarryConfig/constants/APP_NAME")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409 for lookup without configuration, got %d", rec.Code)
	}
}

func TestGetConstantsUnknownModule(t *testing.T) {
	router, _ := setupTestRouter(t, withConfig(testConfig))

	for _, target := range []string{"/api/modules/Nope/constants", "/api/modules/Nope/constants/APP_NAME"} {
		if rec := get(t, router, target); rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for %s, got %d", target, rec.Code)
		}
	}
}

func TestGetConstant(t *testing.T) {
	router, _ := setupTestRouter(t, withConfig(testConfig))

	tests := []struct {
		path   string
		status int
		want   any
	}{
		{path: "APP_NAME", status: http.StatusOK, want: "Carry"},
		{path: "FEATURES_GATE.DONATION", status: http.StatusOK, want: true},
		{path: "FEATURES_GATE.SUPPORTED_LANGUAGES.1", status: http.StatusOK, want: "es"},
		{path: "FEATURES_GATE.SUPPORTED_LANGUAGES", status: http.StatusOK, want: []any{"en", "es"}},
		{path: "FEATURES_GATE.MISSING", status: http.StatusNotFound},
		{path: "APP_NAME.length", status: http.StatusNotFound},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.path, func(t *testing.T) {
			rec := get(t, router, "/api/modules/CarryConfig/constants/"+tc.path)
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
			if tc.status != http.StatusOK {
				return
			}

			var body struct {
				Module string `json:"module"`
				Path   string `json:"path"`
				Value  any    `json:"value"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body.Path != tc.path {
				t.Fatalf("expected path %s, got %s", tc.path, body.Path)
			}
			if diff := cmp.Diff(tc.want, body.Value); diff != "" {
				t.Fatalf("unexpected value (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetConstantUnsupportedModule(t *testing.T) {
	router, _ := setupTestRouter(t, withConfig(testConfig))

	if rec := get(t, router, "/api/modules/Static/constants/k"); rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 for module without lookups, got %d", rec.Code)
	}
}

func TestCorsPreflight(t *testing.T) {
	router, _ := setupTestRouter(t, withConfig(testConfig))

	req := httptest.NewRequest(http.MethodOptions, "/api/modules/CarryConfig/constants", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected Access-Control-Allow-Origin header to be set")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router, _ := setupTestRouter(t, withConfig(testConfig))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "test-request-id")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "test-request-id" {
		t.Fatalf("expected X-Request-ID header to be echoed, got %s", got)
	}
}
