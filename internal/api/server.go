package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"upload-ai/internal/ai"
	"upload-ai/internal/logger"
	"upload-ai/internal/prompt"
)

// DefaultMaxUploadBytes is the largest accepted audio upload.
const DefaultMaxUploadBytes int64 = 25 << 20

// Config holds the server settings.
type Config struct {
	MaxUploadBytes int64
}

// Server is the companion HTTP API for uploads, transcription and completions.
type Server struct {
	echo        *echo.Echo
	repo        Repository
	transcriber ai.Transcriber
	completer   ai.Completer
	catalog     *prompt.Catalog
	maxBytes    int64
	logger      logger.Logger
}

// New builds the server and registers every route.
func New(cfg Config, repo Repository, transcriber ai.Transcriber, completer ai.Completer, catalog *prompt.Catalog, log logger.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if repo == nil {
		repo = NewMemoryRepository()
	}
	if catalog == nil {
		catalog = prompt.NewCatalog()
	}
	if log == nil {
		log = logger.Nop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if backend, ok := logger.Backend(log); ok {
		e.Logger = backend
	}

	s := &Server{
		echo:        e,
		repo:        repo,
		transcriber: transcriber,
		completer:   completer,
		catalog:     catalog,
		maxBytes:    cfg.MaxUploadBytes,
		logger:      log,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info(c.Request().Context(), "%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	// Multipart framing needs headroom above the file limit.
	bodyLimit := middleware.BodyLimit(fmt.Sprintf("%dK", (cfg.MaxUploadBytes>>10)+1024))

	e.GET("/prompts", s.listPrompts)
	e.POST("/videos", s.uploadVideo, bodyLimit)
	e.POST("/videos/:id/transcription", s.createTranscription)
	e.POST("/ai/complete", s.completeAI)
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info(context.Background(), "HTTP server running on %s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
