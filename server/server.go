package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/Barac9492/contrarian-brief/pkg/domain"
)

// Server exposes the curation API over HTTP
type Server struct {
	config      Config
	store       Store
	classifier  Classifier
	synthesizer Synthesizer
	ingestor    Ingestor

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Config holds server settings
type Config struct {
	Listen     string
	Timeout    time.Duration
	Version    string
	Debug      bool
	CronSecret string // bearer credential for the cron endpoint, empty disables the check
	Production bool   // reject unauthenticated cron requests instead of warning
}

// Store is the collection the handlers operate on
type Store interface {
	List() []domain.Post
	Len() int
	Add(ctx context.Context, post domain.Post) (*domain.Post, error)
	Update(ctx context.Context, id string, patch domain.PostPatch) error
	Delete(ctx context.Context, id string) error
	SaveReport(ctx context.Context, draft domain.ReportDraft) error
	LastReport(ctx context.Context) (draft domain.ReportDraft, ok bool, err error)
}

// Classifier assigns theme, key insight and tags to content
type Classifier interface {
	Classify(ctx context.Context, title, content string) domain.Classification
}

// Synthesizer generates a narrative report over the collection
type Synthesizer interface {
	Synthesize(ctx context.Context, posts []domain.Post, dateRange string) (string, error)
}

// Ingestor executes one feed ingestion run
type Ingestor interface {
	Run(ctx context.Context) (added int, err error)
}

// New initializes a new server instance
func New(cfg Config, store Store, classifier Classifier, synthesizer Synthesizer, ingestor Ingestor) *Server {
	s := &Server{
		config:      cfg,
		store:       store,
		classifier:  classifier,
		synthesizer: synthesizer,
		ingestor:    ingestor,
		router:      routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	log.Printf("[INFO] starting server on %s", s.config.Listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.router,
		ReadTimeout:  s.config.Timeout,
		WriteTimeout: s.config.Timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("contrarian-brief", "Barac9492", s.config.Version))
	s.router.Use(rest.Ping)

	if s.config.Debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)

		r.HandleFunc("GET /posts", s.listPostsHandler)
		r.HandleFunc("POST /posts", s.addPostHandler)
		r.HandleFunc("PATCH /posts/{id}", s.updatePostHandler)
		r.HandleFunc("DELETE /posts/{id}", s.deletePostHandler)

		r.HandleFunc("POST /classify", s.classifyHandler)
		r.HandleFunc("GET /stats", s.statsHandler)

		r.HandleFunc("POST /report", s.generateReportHandler)
		r.HandleFunc("GET /report", s.lastReportHandler)

		r.HandleFunc("POST /ingest", s.ingestHandler)
		r.HandleFunc("GET /cron", s.cronHandler)
	})
}

// RenderJSON sends JSON response
func RenderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// RenderError sends error response as JSON
func RenderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	RenderJSON(w, r, code, map[string]string{"error": errMsg})
}
