package api

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/unitmap/internal/config"
	"github.com/gyaneshwarpardhi/unitmap/internal/engine"
	"github.com/gyaneshwarpardhi/unitmap/internal/naming"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, loader *config.Loader) http.Handler {
	h := &Handler{eng: eng, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/plan", h.plan)
	h.mux.HandleFunc("POST /v1/builds", h.build)
	h.mux.HandleFunc("GET /v1/names", h.names)
	h.mux.HandleFunc("GET /v1/config", h.getConfig)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// GET /v1/plan — compute the build plan without assigning names.
func (h *Handler) plan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.eng.Plan(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// POST /v1/builds — run a build synchronously.
func (h *Handler) build(w http.ResponseWriter, r *http.Request) {
	res, err := h.eng.Build(r.Context(), nil)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, engine.ErrBuildInProgress):
			writeError(w, http.StatusConflict, err.Error())
			return
		case errors.Is(err, engine.ErrPackagingFailed):
			status = http.StatusBadGateway
		}
		writeJSON(w, status, buildFailure{Error: err.Error(), Result: res})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /v1/names — current unit-name assignments.
func (h *Handler) names(w http.ResponseWriter, r *http.Request) {
	labels, err := h.eng.Labels()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	type entry struct {
		Path string `json:"path"`
		naming.Label
	}
	out := make([]entry, 0, len(labels))
	for _, p := range naming.Sorted(labels) {
		out = append(out, entry{Path: p, Label: labels[p]})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"names": out})
}

// GET /v1/config — the config builds currently use.
func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.Config())
}

// POST /v1/config/reload — re-read the config from disk.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := config.Validate(cfg); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.eng.SwapConfig(cfg)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":      true,
		"folders_count": len(cfg.Folders),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 while a build holds the engine.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.eng.Building() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "building"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
