// Package server exposes the verification pipeline and its feeds over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/ppiankov/verisense/internal/metrics"
	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/pipeline"
	"github.com/ppiankov/verisense/internal/reason"
	"github.com/ppiankov/verisense/internal/voice"
	"github.com/ppiankov/verisense/internal/worker"
)

// WelcomeMessage is returned by GET /
const WelcomeMessage = "Welcome to VeriSense Backend! Access API endpoints at /news, /claims, /voice, etc."

// Verifier runs the full pipeline over one text
type Verifier interface {
	Process(ctx context.Context, text string) pipeline.Outcome
}

// NewsFeed returns the aggregated article list
type NewsFeed interface {
	Articles(ctx context.Context) []model.Article
}

// SocialFeed returns the combined social listings
type SocialFeed interface {
	Feed(ctx context.Context) model.SocialFeed
}

// AudioProcessor handles one uploaded clip
type AudioProcessor interface {
	Process(ctx context.Context, upload io.Reader, filename string) (*voice.Result, error)
}

// SpeechStore serves previously synthesized audio by name
type SpeechStore interface {
	Open(name string) (*os.File, error)
}

// Dependencies are the request-independent handles the routes call into.
// Nil optional dependencies make their routes answer 503.
type Dependencies struct {
	Extractor pipeline.Extractor
	Verifier  Verifier
	Reasoner  reason.Reasoner
	News      NewsFeed
	Social    SocialFeed
	Voice     AudioProcessor
	Speech    SpeechStore
}

// Options configures the HTTP layer
type Options struct {
	Logger         *slog.Logger
	Metrics        *metrics.Collector
	Limiter        *worker.Limiter
	CORSOrigins    []string
	MaxUploadBytes int64
	Version        string
}

// Server is the VeriSense HTTP API
type Server struct {
	deps      Dependencies
	logger    *slog.Logger
	metrics   *metrics.Collector
	limiter   *worker.Limiter
	validate  *validator.Validate
	maxUpload int64
	version   string
	router    *mux.Router
	handler   http.Handler
}

// New builds the router and middleware chain
func New(deps Dependencies, opts Options) *Server {
	s := &Server{
		deps:      deps,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		limiter:   opts.Limiter,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		maxUpload: opts.MaxUploadBytes,
		version:   opts.Version,
		router:    mux.NewRouter(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.maxUpload <= 0 {
		s.maxUpload = 25 << 20
	}

	s.routes()

	var h http.Handler = s.router
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(false),
	)(h)
	if len(opts.CORSOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(opts.CORSOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With"}),
			handlers.AllowCredentials(),
		)(h)
	}
	s.handler = h
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.instrument, s.rateLimit)

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	claims := r.PathPrefix("/claims").Subrouter()
	claims.HandleFunc("/extract", s.handleExtract).Methods(http.MethodPost)

	r.HandleFunc("/verification", s.handleVerify).Methods(http.MethodPost)
	verification := r.PathPrefix("/verification").Subrouter()
	verification.HandleFunc("/", s.handleVerify).Methods(http.MethodPost)
	verification.HandleFunc("/run", s.handleVerify).Methods(http.MethodPost)

	reasoning := r.PathPrefix("/reasoning").Subrouter()
	reasoning.HandleFunc("/run", s.handleReason).Methods(http.MethodPost)

	r.HandleFunc("/news", s.handleNews).Methods(http.MethodGet)
	r.HandleFunc("/news/", s.handleNews).Methods(http.MethodGet)
	r.HandleFunc("/social", s.handleSocial).Methods(http.MethodGet)
	r.HandleFunc("/social/", s.handleSocial).Methods(http.MethodGet)

	v := r.PathPrefix("/voice").Subrouter()
	v.HandleFunc("/process-audio", s.handleProcessAudio).Methods(http.MethodPost)
	v.HandleFunc("/speech/{filename}", s.handleSpeech).Methods(http.MethodGet, http.MethodHead)
}

// Handler returns the root handler including CORS and panic recovery
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("handler panic", "error", fmt.Sprint(v...))
}
