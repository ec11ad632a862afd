// Package httpapi exposes the clipping pipeline over an authenticated JSON
// API: article ingestion, clip browsing, rule management, pipeline runs, and
// digest previews.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"horse.fit/recorte/internal/config"
	"horse.fit/recorte/internal/db"
	"horse.fit/recorte/internal/globaltime"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Session options default from config when zero-valued.
	SessionCookie string
	SessionSecure bool
	SessionTTL    time.Duration
}

type Server struct {
	pool   *db.Pool
	cfg    *config.Config
	logger zerolog.Logger
	opts   Options

	// authStore overrides the pool in tests.
	authStore authStore
}

func NewServer(pool *db.Pool, cfg *config.Config, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8090
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	sessionCookie := strings.TrimSpace(opts.SessionCookie)
	sessionSecure := opts.SessionSecure
	sessionTTL := opts.SessionTTL
	if cfg != nil {
		if sessionCookie == "" {
			sessionCookie = strings.TrimSpace(cfg.SessionCookieName)
		}
		if !sessionSecure {
			sessionSecure = cfg.SessionCookieSecure
		}
		if sessionTTL <= 0 {
			sessionTTL = time.Duration(cfg.SessionTTLHours) * time.Hour
		}
	}
	if sessionCookie == "" {
		sessionCookie = "recorte_session"
	}
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}

	return &Server{
		pool:   pool,
		cfg:    cfg,
		logger: logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			SessionCookie:   sessionCookie,
			SessionSecure:   sessionSecure,
			SessionTTL:      sessionTTL,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	allowOrigins := []string{"*"}
	if s.cfg != nil {
		if origins := s.cfg.CORSAllowedOriginsList(); len(origins) > 0 {
			allowOrigins = origins
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: len(allowOrigins) > 0 && allowOrigins[0] != "*",
		MaxAge:           3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/logout", s.handleLogout)

	authed := api.Group("", s.requireAuth())
	authed.GET("/me", s.handleMe)
	authed.PUT("/me/password", s.handleChangePassword)
	authed.GET("/stats", s.handleStats)
	authed.GET("/articles", s.handleArticles)
	authed.POST("/articles", s.handleIngestArticle)
	authed.GET("/clips", s.handleClips)
	authed.GET("/clips/:clip_uuid", s.handleClipDetail)
	authed.GET("/rules", s.handleRules)
	authed.PUT("/rules", s.handleImportRules)
	authed.GET("/clients", s.handleClients)
	authed.POST("/pipeline/run", s.handlePipelineRun)
	authed.GET("/digest/preview", s.handleDigestPreview)
	authed.GET("/indicators", s.handleIndicators)
	authed.GET("/settings", s.handleGetSettings)
	authed.PUT("/settings", s.handlePutSettings)

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("recorte api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("recorte api server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "recorte",
		"time":    globaltime.UTC(),
	})
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}

// parseDateParam accepts YYYY-MM-DD and returns the UTC midnight of that day.
// An empty value returns today.
func parseDateParam(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		now := globaltime.UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("must be YYYY-MM-DD")
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC), nil
}
