package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/bobthearsonist/meeting-coach/internal/broadcast"
	"github.com/bobthearsonist/meeting-coach/internal/config"
	"github.com/bobthearsonist/meeting-coach/internal/errors"
)

type Server struct {
	echo        *echo.Echo
	config      *config.Config
	hub         *broadcast.Hub
	clock       clockwork.Clock
	startTime   time.Time
	globalLimit *GlobalConnectionLimiter
	ipLimit     *IPConnectionLimiter
	rateLimit   *ConnectionRateLimiter
}

func NewServer(cfg *config.Config, hub *broadcast.Hub, clock clockwork.Clock) *Server {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(errors.Middleware())

	srv := &Server{
		echo:        e,
		config:      cfg,
		hub:         hub,
		clock:       clock,
		startTime:   clock.Now(),
		globalLimit: NewGlobalConnectionLimiter(int64(cfg.MaxClients)),
		ipLimit:     NewIPConnectionLimiter(cfg.MaxConnectionsPerIP),
		rateLimit:   NewConnectionRateLimiter(cfg.ConnectionRatePerSecond, cfg.ConnectionBurst),
	}

	srv.registerRoutes()

	return srv
}

// Start binds and serves. A bind failure (port in use, invalid host) is
// returned to the caller, which treats it as fatal.
func (s *Server) Start() error {
	slog.Info("Starting server", "addr", s.config.Addr())
	return s.echo.Start(s.config.Addr())
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
