// Package server exposes the streaming chat core over HTTP. The interesting
// endpoint is POST /api/chat, which drives a provider stream through the
// wire encoder onto the response body as text/event-stream frames.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/leofalp/chatstream/internal/auth"
	"github.com/leofalp/chatstream/internal/config"
	"github.com/leofalp/chatstream/internal/store"
	"github.com/leofalp/chatstream/providers/ai"
)

const (
	maxBodyBytes        = 1 << 20 // 1 MiB
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	idleTimeout         = 120 * time.Second
)

// Dialer resolves and constructs completion backends. Implemented by
// registry.Registry; tests substitute fakes.
type Dialer interface {
	Resolve(override string) ai.ProviderName
	Available() []ai.ProviderName
	Dial(name ai.ProviderName) (ai.StreamProvider, error)
}

// Server is the HTTP front of the streaming chat core.
type Server struct {
	settings config.Settings
	dialer   Dialer
	store    store.Store
	sessions auth.Sessions
	quota    auth.Quota
	app      *echo.Echo
}

// New constructs a Server wired with routing and middleware.
func New(settings config.Settings, dialer Dialer, chatStore store.Store, sessions auth.Sessions, quota auth.Quota) (*Server, error) {
	if dialer == nil {
		return nil, errors.New("dialer must not be nil")
	}
	if chatStore == nil {
		return nil, errors.New("store must not be nil")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency: true,
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"error", v.Error,
			)
			return nil
		},
	}))

	srv := &Server{
		settings: settings,
		dialer:   dialer,
		store:    chatStore,
		sessions: sessions,
		quota:    quota,
		app:      e,
	}

	srv.registerRoutes()

	return srv, nil
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

// Run starts the HTTP server and blocks until the context is cancelled.
// Streaming responses hold the connection open, so no write timeout is set;
// slow-client protection is left to the transport's flow control.
func (s *Server) Run(ctx context.Context) error {
	address := s.settings.Server.Addr
	slog.Info("starting server", "addr", address)

	httpServer := &http.Server{
		Addr:        address,
		Handler:     s.app,
		ReadTimeout: readTimeout,
		IdleTimeout: idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		slog.Info("server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.app.GET("/health", s.handleHealth)
	s.app.GET("/api/providers", s.handleProviders)
	s.app.GET("/api/chats", s.handleListChats)
	s.app.POST("/api/chat", s.handleChat)
}

// requestError carries an HTTP status alongside a user-facing message.
type requestError struct {
	Status  int
	Message string
	Type    string
}

func (e requestError) Error() string {
	return e.Message
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func writeError(c echo.Context, status int, message, errType string) error {
	var payload errorBody
	payload.Error.Message = message
	payload.Error.Type = errType
	return c.JSON(status, payload)
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		// A streaming response already started; nothing sensible to write.
		return
	}

	var reqErr requestError
	if errors.As(err, &reqErr) {
		_ = writeError(c, reqErr.Status, reqErr.Message, reqErr.Type)
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		_ = writeError(c, httpErr.Code, fmt.Sprintf("%v", httpErr.Message), "invalid_request_error")
		return
	}

	_ = writeError(c, http.StatusInternalServerError, "internal server error", "server_error")
}
