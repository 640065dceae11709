// Package api serves the generation HTTP endpoints, the embedded web UI and the
// generated audio files.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/florianilch/aihub/internal/generation"
	"github.com/florianilch/aihub/internal/observability/middleware"
	"github.com/florianilch/aihub/internal/webui"
)

const (
	// DefaultMaxRequestBytes limits request bodies to 1 MiB.
	DefaultMaxRequestBytes = 1 << 20

	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 90 * time.Second
	defaultIdleTimeout  = 120 * time.Second
)

// Generators are the facades the generation routes call.
type Generators struct {
	Content generation.ContentGenerator
	Audio   generation.AudioGenerator
	Video   generation.VideoGenerator
}

// ReadinessChecker reports whether the application can serve traffic.
type ReadinessChecker interface {
	IsReady() bool
}

// Server is the HTTP front of the application.
type Server struct {
	handler http.Handler

	readTimeout  time.Duration
	writeTimeout time.Duration

	bindings        []generation.Binding
	audioDir        string
	allowedOrigins  []string
	maxRequestBytes int64
	launcher        Launcher
	tempDir         string
	logger          *slog.Logger

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

var _ http.Handler = (*Server)(nil)

// Option configures a Server.
type Option func(*Server)

// WithBindings sets the modality bindings reported by /api/generation/modalities.
func WithBindings(bindings []generation.Binding) Option {
	return func(s *Server) {
		s.bindings = bindings
	}
}

// WithAudioDir serves files from dir under /audio/.
func WithAudioDir(dir string) Option {
	return func(s *Server) {
		s.audioDir = dir
	}
}

// WithAllowedOrigins enables CORS for the given origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithMaxRequestBytes limits the size of request bodies.
func WithMaxRequestBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxRequestBytes = n
		}
	}
}

// WithLauncher enables the open-in-editor endpoint.
func WithLauncher(l Launcher) Option {
	return func(s *Server) {
		s.launcher = l
	}
}

// WithTempDir sets where the open-in-editor endpoint writes files.
// Defaults to os.TempDir().
func WithTempDir(dir string) Option {
	return func(s *Server) {
		s.tempDir = dir
	}
}

// WithTimeouts sets the server read and write timeouts. The write timeout
// must exceed the upstream provider timeout.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		if read > 0 {
			s.readTimeout = read
		}
		if write > 0 {
			s.writeTimeout = write
		}
	}
}

// WithLogger sets the request logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server. All generators are required.
func New(gens Generators, health ReadinessChecker, opts ...Option) (*Server, error) {
	if gens.Content == nil || gens.Audio == nil || gens.Video == nil {
		return nil, errors.New("content, audio and video generators are required")
	}
	if health == nil {
		return nil, errors.New("readiness checker is required")
	}

	s := &Server{
		readTimeout:     defaultReadTimeout,
		writeTimeout:    defaultWriteTimeout,
		bindings:        []generation.Binding{},
		maxRequestBytes: DefaultMaxRequestBytes,
		tempDir:         os.TempDir(),
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.handler = applyMiddlewares(s.routes(gens, health),
		Recovery,
		RequestSizeLimit(s.maxRequestBytes),
		middleware.RequestIDGeneration,
		middleware.TraceContextExtraction,
		middleware.Logging(s.logger),
		middleware.RequestIDPropagation,
		s.cors(),
	)

	return s, nil
}

func (s *Server) routes(gens Generators, health ReadinessChecker) http.Handler {
	r := chi.NewRouter()

	r.Get("/health/live", livenessHandler())
	r.Get("/health/ready", readinessHandler(health))

	r.Route("/api", func(r chi.Router) {
		r.Route("/generation", func(r chi.Router) {
			r.Post("/text", generationHandler(generation.Text, "text", gens.Content.GenerateText))
			r.Post("/image", generationHandler(generation.Image, "url", gens.Content.GenerateImage))
			r.Post("/code", generationHandler(generation.Code, "code", gens.Content.GenerateCode))
			r.Post("/audio", generationHandler(generation.Audio, "audioUrl", gens.Audio.GenerateAudio))
			r.Post("/video", generationHandler(generation.Video, "videoUrl", gens.Video.GenerateVideo))
			r.Get("/modalities", modalitiesHandler(s.bindings))
		})
		r.Post("/utils/open-in-notepad", openInEditorHandler(s.launcher, s.tempDir))
	})

	if s.audioDir != "" {
		r.Handle("/audio/*", http.StripPrefix("/audio/", audioHandler(s.audioDir)))
	}

	r.Handle("/*", webui.Handler())

	return r
}

func (s *Server) cors() func(http.Handler) http.Handler {
	if len(s.allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Start listens on addr and serves in the background. The returned channel
// receives the terminal serve error, or nil after Shutdown.
func (s *Server) Start(ctx context.Context, addr string) (<-chan error, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.readTimeout,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	s.mu.Lock()
	s.server = srv
	s.addr = ln.Addr()
	s.mu.Unlock()

	slog.InfoContext(ctx, "http server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return errCh, nil
}

// Addr returns the listening address once Start succeeded.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
