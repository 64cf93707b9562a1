// Package api serves the overlay pipeline over HTTP: classification,
// validation, compliance reports, rendering to SVG, render statistics and
// render history.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/overhuman/overlay/internal/canvas"
	"github.com/overhuman/overlay/internal/catalog"
	"github.com/overhuman/overlay/internal/classifier"
	"github.com/overhuman/overlay/internal/observability"
	"github.com/overhuman/overlay/internal/render"
	"github.com/overhuman/overlay/internal/storage"
	"github.com/overhuman/overlay/internal/validator"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 1 << 20

// Dependencies are the collaborators of a Server. Only Engine and SVG are
// tied together: SVG must be the surface Engine draws on.
type Dependencies struct {
	Engine     *render.Engine
	SVG        *canvas.SVG
	Catalog    *catalog.Catalog
	Classifier *classifier.Classifier
	Validator  *validator.Validator
	History    storage.Store // optional
	Logger     *observability.Logger
}

// Server is the HTTP host.
type Server struct {
	addr    string
	deps    Dependencies
	started time.Time
	router  chi.Router

	// renderMu keeps a render and the SVG read that follows it together.
	renderMu sync.Mutex

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
}

// New builds a server listening on addr. A nil Engine gets a 1920x1080 SVG
// surface of its own.
func New(addr string, deps Dependencies) (*Server, error) {
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	if deps.Classifier == nil {
		deps.Classifier = classifier.New(classifier.Dependencies{
			Catalog: deps.Catalog,
			Logger:  deps.Logger.Named("classifier"),
		})
	}
	if deps.Validator == nil {
		deps.Validator = validator.New(deps.Logger.Named("validator"))
	}
	if deps.Engine == nil {
		deps.SVG = canvas.NewSVG(1920, 1080)
		eng, err := render.New(render.Dependencies{
			Surface:    deps.SVG,
			Catalog:    deps.Catalog,
			Classifier: deps.Classifier,
			Validator:  deps.Validator,
			Logger:     deps.Logger.Named("render"),
		})
		if err != nil {
			return nil, fmt.Errorf("create engine: %w", err)
		}
		deps.Engine = eng
	}

	s := &Server{addr: addr, deps: deps, started: time.Now()}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.deps.Logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Get("/catalog", s.handleCatalog)
	r.Post("/classify", s.handleClassify)
	r.Post("/validate", s.handleValidate)
	r.Post("/report", s.handleReport)
	r.Post("/render", s.handleRender)
	r.Get("/stats", s.handleStats)
	r.Route("/history", func(r chi.Router) {
		r.Get("/", s.handleHistory)
		r.Get("/summary", s.handleHistorySummary)
		r.Get("/{id}", s.handleHistoryEntry)
	})
	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("api: listen: %w", err)
	}
	s.listener = ln
	srv := s.srv
	s.mu.Unlock()

	s.deps.Logger.Info("listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api: serve: %w", err)
	}
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// requestLogger logs one line per request with its status and duration.
func requestLogger(log *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", float64(time.Since(start).Microseconds())/1000,
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return false
	}
	return true
}
