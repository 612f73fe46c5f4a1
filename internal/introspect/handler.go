package introspect

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/conduit-lang/modelkit/internal/logging"
	"github.com/conduit-lang/modelkit/internal/model"
)

// maxBodyBytes bounds validation request bodies.
const maxBodyBytes = 1 << 20

// Handler serves the class registry over HTTP:
//
//	GET  /classes                  class listing
//	GET  /classes/{name}           one class
//	POST /classes/{name}/validate  dry-run validation of a JSON object
type Handler struct {
	registry atomic.Pointer[model.Registry]
	mux      chi.Router
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ValidationResponse is the body of a successful validation.
type ValidationResponse struct {
	Valid bool `json:"valid"`
}

// NewHandler creates a handler serving r.
func NewHandler(r *model.Registry) *Handler {
	h := &Handler{}
	h.registry.Store(r)

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(requestLogger)
	mux.Use(middleware.Recoverer)

	mux.Get("/classes", h.listClasses)
	mux.Route("/classes/{name}", func(r chi.Router) {
		r.Get("/", h.getClass)
		r.Post("/validate", h.validate)
	})
	h.mux = mux
	return h
}

// SetRegistry swaps the served registry, e.g. after definitions reload.
func (h *Handler) SetRegistry(r *model.Registry) {
	h.registry.Store(r)
}

// Registry returns the served registry.
func (h *Handler) Registry() *model.Registry {
	return h.registry.Load()
}

// Handle mounts an extra endpoint, such as a reload event stream.
func (h *Handler) Handle(pattern string, handler http.Handler) {
	h.mux.Handle(pattern, handler)
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) listClasses(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, Summarize(h.Registry()))
}

func (h *Handler) getClass(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	renderJSON(w, http.StatusOK, Describe(c))
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var values map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&values); err != nil {
		renderError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid JSON object: %v", err))
		return
	}

	err := c.Validate(values)
	var verrs *model.ValidationErrors
	switch {
	case err == nil:
		renderJSON(w, http.StatusOK, ValidationResponse{Valid: true})
	case errors.As(err, &verrs):
		renderJSON(w, http.StatusUnprocessableEntity, verrs)
	default:
		renderError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*model.Class, bool) {
	name := chi.URLParam(r, "name")
	c, ok := h.Registry().Lookup(name)
	if !ok || c.Parent() == nil {
		renderError(w, http.StatusNotFound, "not_found", fmt.Sprintf("class %q not found", name))
		return nil, false
	}
	return c, true
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.L().Warn("failed to encode response", zap.Error(err))
	}
}

func renderError(w http.ResponseWriter, status int, code, message string) {
	renderJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// requestLogger logs each request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.L().Debug("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
