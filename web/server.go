// ABOUTME: JSON HTTP API over the lifecycle engine
// ABOUTME: Routes entity CRUD, transitions, archive/restore, bulk and conversion on a chi router
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/config"
	"github.com/harperreed/studiocrm/engine"
	"github.com/harperreed/studiocrm/models"
)

// PerformedByHeader names the request header that attributes a mutation.
const PerformedByHeader = "X-Performed-By"

type Server struct {
	router  chi.Router
	engine  *engine.Engine
	display *config.Display
	metrics http.Handler
	health  func(context.Context) error
	logger  *log.Logger
}

type Option func(*Server)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithHealthCheck makes /api/health report the result of fn.
func WithHealthCheck(fn func(context.Context) error) Option {
	return func(s *Server) {
		s.health = fn
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewServer(eng *engine.Engine, display *config.Display, opts ...Option) *Server {
	if display == nil {
		display = config.DefaultDisplay()
	}
	s := &Server{
		router:  chi.NewRouter(),
		engine:  eng,
		display: display,
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting API server at http://localhost%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() {
	s.router.Use(s.logRequests, performedBy)

	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/display", s.handleDisplay)
	s.router.Get("/api/pipeline", s.handlePipeline)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics)
	}

	s.router.Route("/api/leads", func(r chi.Router) {
		r.Post("/", s.handleCreateLead)
		r.Get("/", s.handleListLeads)
		r.Post("/bulk", s.handleBulk(models.EntityLead))
		r.Get("/{id}", s.handleGetLead)
		r.Patch("/{id}", s.handleUpdateLead)
		r.Post("/{id}/convert", s.handleConvert)
		s.lifecycleRoutes(r, models.EntityLead)
	})

	s.router.Route("/api/clients", func(r chi.Router) {
		r.Post("/", s.handleCreateClient)
		r.Get("/", s.handleListClients)
		r.Post("/bulk", s.handleBulk(models.EntityClient))
		r.Get("/{id}", s.handleGetClient)
		r.Patch("/{id}", s.handleUpdateClient)
		r.Post("/{id}/notes", s.handleAddNote)
		s.lifecycleRoutes(r, models.EntityClient)
	})

	s.router.Route("/api/engagements", func(r chi.Router) {
		r.Post("/", s.handleCreateEngagement)
		r.Get("/", s.handleListEngagements)
		r.Post("/bulk", s.handleBulk(models.EntityEngagement))
		r.Get("/{id}", s.handleGetEngagement)
		r.Patch("/{id}", s.handleUpdateEngagement)
		s.lifecycleRoutes(r, models.EntityEngagement)
	})
}

// lifecycleRoutes registers the routes every entity type shares.
func (s *Server) lifecycleRoutes(r chi.Router, entity models.EntityType) {
	r.Post("/{id}/transition", s.handleTransition(entity))
	r.Post("/{id}/archive", s.handleArchive(entity))
	r.Post("/{id}/restore", s.handleRestore(entity))
	r.Get("/{id}/activities", s.handleActivities(entity))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Printf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}

func performedBy(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := strings.TrimSpace(r.Header.Get(PerformedByHeader)); actor != "" {
			r = r.WithContext(engine.WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Printf("health check failed: %v", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.display)
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	entities := models.EntityTypes
	if name := r.URL.Query().Get("entity"); name != "" {
		entity, ok := models.ParseEntityType(name)
		if !ok {
			s.writeEngineError(w, validationFailure("entity", "unknown entity type"))
			return
		}
		entities = []models.EntityType{entity}
	}

	out := make(map[models.EntityType][]models.StatusCount, len(entities))
	for _, entity := range entities {
		counts, err := s.engine.Pipeline(r.Context(), entity)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		out[entity] = counts
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error engine.Envelope `json:"error"`
}

// statusFor maps an envelope category to its HTTP status.
func statusFor(category engine.Category) int {
	switch category {
	case engine.CategoryConflict:
		return http.StatusConflict
	case engine.CategoryValidation:
		return http.StatusUnprocessableEntity
	case engine.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	env := engine.ToEnvelope(err)
	status := statusFor(env.Category)
	if status >= http.StatusInternalServerError {
		s.logger.Printf("request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: env})
}

func (s *Server) writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: engine.Envelope{
		Category: engine.CategoryValidation,
		Code:     engine.CodeValidation,
		Message:  message,
	}})
}

func validationFailure(field, message string) error {
	return &engine.Error{
		Category:    engine.CategoryValidation,
		Code:        engine.CodeValidation,
		Message:     "validation failed",
		FieldErrors: map[string]string{field: message},
	}
}

// decodeBody reads a JSON body into target. An empty body leaves target untouched.
func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// pathID parses the {id} route parameter; a malformed id cannot name a record.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, &engine.Error{
			Category: engine.CategoryNotFound,
			Code:     engine.CodeNotFound,
			Message:  "no record with id " + chi.URLParam(r, "id"),
		}
	}
	return id, nil
}
