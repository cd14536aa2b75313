package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/sinew/internal/dto"
	"github.com/aretw0/sinew/internal/logging"
	"github.com/aretw0/sinew/internal/runtime"
	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/fsm"
	"github.com/aretw0/sinew/pkg/graph"
	"github.com/aretw0/sinew/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIVersion is reported by GET /info.
const APIVersion = "0.1.0"

// maxFrames bounds a single evaluate request.
const maxFrames = 10000

// Engine defines what the HTTP API needs from the sinew engine.
type Engine interface {
	Assets(ctx context.Context) ([]string, error)
	Graph(ctx context.Context, name string) (*graph.Graph, error)
	Machine(ctx context.Context, name string) (*fsm.Machine, error)
	Validate(ctx context.Context) (map[string]error, error)
	Mermaid(ctx context.Context, name string) (string, error)
	NewInstance(ctx context.Context, name string, opts ...runtime.Option) (*runtime.Instance, error)
	Watch(ctx context.Context) (<-chan string, error)
	Reload()
}

// Server serves the introspection and evaluation API.
type Server struct {
	Engine   Engine
	Store    ports.AssetStore
	Version  string
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables PUT and DELETE on assets.
func WithStore(store ports.AssetStore) Option {
	return func(s *Server) {
		s.Store = store
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics exposes the gatherer on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithVersion sets the application version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{Engine: engine, Version: "dev", logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.Health)
	r.Get("/info", s.Info)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/validate", s.ValidateAll)
	r.Get("/events", s.SubscribeEvents)
	r.Route("/assets", func(r chi.Router) {
		r.Get("/", s.ListAssets)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.GetAsset)
			r.Put("/", s.PutAsset)
			r.Delete("/", s.DeleteAsset)
			r.Get("/mermaid", s.GetMermaid)
			r.Post("/evaluate", s.Evaluate)
		})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", ww.Status())
	})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Info handles GET /info.
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "sinew-http",
		"version":     s.Version,
		"api_version": APIVersion,
	})
}

// ListAssets handles GET /assets.
func (s *Server) ListAssets(w http.ResponseWriter, r *http.Request) {
	names, err := s.Engine.Assets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// GetAsset handles GET /assets/{name}: the compiled graph or machine.
func (s *Server) GetAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if g, err := s.Engine.Graph(r.Context(), name); err == nil {
		writeJSON(w, http.StatusOK, dto.DescribeGraph(g))
		return
	}
	m, err := s.Engine.Machine(r.Context(), name)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, dto.DescribeMachine(m))
}

// GetMermaid handles GET /assets/{name}/mermaid.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	out, err := s.Engine.Mermaid(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, out)
}

// PutAsset handles PUT /assets/{name}. The body is the YAML document.
func (s *Server) PutAsset(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusMethodNotAllowed, errors.New("asset store is read-only"))
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	name := chi.URLParam(r, "name")
	if err := s.Store.PutAsset(r.Context(), name, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.Engine.Reload()
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAsset handles DELETE /assets/{name}.
func (s *Server) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusMethodNotAllowed, errors.New("asset store is read-only"))
		return
	}
	if err := s.Store.DeleteAsset(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.Engine.Reload()
	w.WriteHeader(http.StatusNoContent)
}

// ValidateAll handles GET /validate.
func (s *Server) ValidateAll(w http.ResponseWriter, r *http.Request) {
	failures, err := s.Engine.Validate(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	errs := make(map[string]string, len(failures))
	for name, err := range failures {
		errs[name] = err.Error()
	}
	writeJSON(w, http.StatusOK, ValidateResponse{Valid: len(errs) == 0, Errors: errs})
}

// Evaluate handles POST /assets/{name}/evaluate: it runs a fresh instance
// for the requested frames and returns the pose and data outputs of each.
func (s *Server) Evaluate(w http.ResponseWriter, r *http.Request) {
	var body EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if len(body.Frames) == 0 || len(body.Frames) > maxFrames {
		writeError(w, http.StatusBadRequest, fmt.Errorf("frames must hold between 1 and %d entries", maxFrames))
		return
	}

	ctx := r.Context()
	in, err := s.Engine.NewInstance(ctx, chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	g := in.Graph()

	outputs := body.Outputs
	if outputs == nil {
		for _, p := range graph.DataPins(g.OutputData()) {
			outputs = append(outputs, string(p.ID))
		}
	}

	resp := EvaluateResponse{Instance: in.ID(), Frames: make([]dto.Frame, 0, len(body.Frames))}
	for i, f := range body.Frames {
		values, err := dto.DecodeInputs(g, f.Inputs)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("frame %d: %w", i, err))
			return
		}
		for pin, v := range values {
			in.SetInput(pin, v)
		}
		delta := body.Delta
		if f.Delta != nil {
			delta = *f.Delta
		}
		pose, err := in.Step(ctx, domain.Delta(delta))
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("frame %d: %w", i, err))
			return
		}
		data := make(map[domain.PinID]domain.Value, len(outputs))
		for _, pin := range outputs {
			v, err := in.Data(ctx, domain.PinID(pin))
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("frame %d output %q: %w", i, pin, err))
				return
			}
			data[domain.PinID(pin)] = v
		}
		resp.Frames = append(resp.Frames, dto.NewFrame(in.Frame(), pose, data))
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubscribeEvents handles the GET /events request (SSE): one event per changed asset.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	events, err := s.Engine.Watch(r.Context())
	if err != nil {
		writeError(w, http.StatusNotImplemented, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case name, ok := <-events:
			if !ok {
				return
			}
			s.logger.Debug("asset change streamed", "asset", name)
			fmt.Fprintf(w, "event: asset\ndata: %s\n\n", name)
			flusher.Flush()
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAssetNotFound), errors.Is(err, domain.ErrGraphAssetMissing):
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
