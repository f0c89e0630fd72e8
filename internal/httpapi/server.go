package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"horse.fit/telephone/internal/db"
	"horse.fit/telephone/internal/language"
	"horse.fit/telephone/internal/translation"
)

const maxRequestBodyBytes = 64 << 10

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	CORSAllowedOrigins []string
	// StreamRateLimit is requests per second per client IP on translation
	// endpoints. Zero disables limiting.
	StreamRateLimit float64
	// HistoryTokenHash is the bcrypt hash guarding the run history routes.
	HistoryTokenHash string
}

// HistoryStore persists completed runs. *db.Pool implements it.
type HistoryStore interface {
	InsertChainRun(ctx context.Context, params db.InsertChainRunParams) error
	ListChainRuns(ctx context.Context, limit, offset int) (db.ChainRunPage, error)
	GetChainRunByUUID(ctx context.Context, runUUID string) (db.ChainRunDetail, error)
}

type Server struct {
	catalog   *language.Catalog
	providers *translation.Registry
	history   HistoryStore
	logger    zerolog.Logger
	opts      Options
	now       func() time.Time
}

// NewServer builds the HTTP surface. A nil history disables the run history routes.
func NewServer(providers *translation.Registry, history HistoryStore, logger zerolog.Logger, opts Options) *Server {
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

	opts.Host = host
	opts.Port = port
	opts.ReadTimeout = readTimeout
	opts.WriteTimeout = writeTimeout
	opts.ShutdownTimeout = shutdownTimeout

	return &Server{
		catalog:   language.Default(),
		providers: providers,
		history:   history,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.providers == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.routes()

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

	s.logger.Info().
		Str("addr", addr).
		Str("default_provider", s.providers.DefaultProvider()).
		Bool("history_enabled", s.history != nil).
		Msg("telephone server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("telephone server stopped")
	return nil
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	allowOrigins := s.opts.CORSAllowedOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  allowOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{headerRunID},
		MaxAge:        3600,
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

	limited := s.rateLimiter()

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.POST("/api/translate-chain-stream", s.handleChainStream, limited...)
	e.POST("/api/translate-strings-batch", s.handleTranslateBatch, limited...)

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/languages", s.handleLanguages)
	api.POST("/chains/stream", s.handleChainStream, limited...)
	api.POST("/strings/translate-batch", s.handleTranslateBatch, limited...)

	runs := api.Group("/runs", s.requireHistoryToken())
	runs.GET("", s.handleListRuns)
	runs.GET("/:run_uuid", s.handleRunDetail)

	return e
}

func (s *Server) rateLimiter() []echo.MiddlewareFunc {
	if s.opts.StreamRateLimit <= 0 {
		return nil
	}
	burst := max(1, int(s.opts.StreamRateLimit))
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(s.opts.StreamRateLimit),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return []echo.MiddlewareFunc{middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		ErrorHandler: func(c echo.Context, err error) error {
			return fail(c, http.StatusForbidden, "Unable to identify client", nil)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return fail(c, http.StatusTooManyRequests, "Too many requests", nil)
		},
	})}
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

	isAPI := strings.HasPrefix(c.Request().URL.Path, "/api/")
	if isAPI {
		if status >= 500 {
			_ = internalError(c, "Internal server error")
			return
		}
		_ = fail(c, status, message, nil)
		return
	}

	_ = c.String(status, message)
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service":          "telephone",
		"time":             s.now().UTC(),
		"default_provider": s.providers.DefaultProvider(),
		"providers":        s.providers.ProviderNames(),
		"history_enabled":  s.history != nil,
	})
}
