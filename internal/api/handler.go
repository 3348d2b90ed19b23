package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/carryapp/carry-config/internal/bridge"
	"github.com/carryapp/carry-config/internal/value"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// ModuleSource is the view of the module registry the HTTP handlers need.
type ModuleSource interface {
	Names() []string
	Lookup(name string) (bridge.Module, error)
	Constants(name string) (map[string]any, bool, error)
}

// pathLookuper is implemented by modules that can resolve a single value.
type pathLookuper interface {
	Lookup(path string) (value.Value, bool, error)
}

// Handler serves constants tables of registered bridge modules.
type Handler struct {
	modules ModuleSource
	clock   func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler serving modules.
func NewHandler(modules ModuleSource, opts ...HandlerOption) *Handler {
	h := &Handler{
		modules: modules,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListModules(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, modulesResponse{Modules: h.modules.Names()})
}

func (h *Handler) handleGetConstants(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	table, available, err := h.modules.Constants(name)
	if err != nil {
		if errors.Is(err, bridge.ErrUnknownModule) {
			writeError(w, http.StatusNotFound, "Unknown module", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, constantsResponse{
		Module:    name,
		Available: available,
		Constants: table,
	})
}

func (h *Handler) handleGetConstant(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	path := r.PathValue("path")

	module, err := h.modules.Lookup(name)
	if err != nil {
		if errors.Is(err, bridge.ErrUnknownModule) {
			writeError(w, http.StatusNotFound, "Unknown module", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	lookuper, ok := module.(pathLookuper)
	if !ok {
		writeError(w, http.StatusNotImplemented, "Unsupported lookup", "module does not support path lookups")
		return
	}

	v, available, err := lookuper.Lookup(path)
	if !available {
		writeError(w, http.StatusConflict, "Configuration unavailable", "module has no configuration loaded",
			"Apply host defaults; the bundled configuration could not be loaded")
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, value.ErrNotFound), errors.Is(err, value.ErrTypeMismatch):
			writeError(w, http.StatusNotFound, "Unknown path", err.Error())
		default:
			writeInternalError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, constantResponse{
		Module: name,
		Path:   path,
		Value:  v,
	})
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type modulesResponse struct {
	Modules []string `json:"modules"`
}

type constantsResponse struct {
	Module    string         `json:"module"`
	Available bool           `json:"available"`
	Constants map[string]any `json:"constants"`
}

type constantResponse struct {
	Module string      `json:"module"`
	Path   string      `json:"path"`
	Value  value.Value `json:"value"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
