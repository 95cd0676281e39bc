// Package http provides the HTTP server implementation for the relay.
package http

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/mahirxmc/nova-agent-2/internal/config"
	"github.com/mahirxmc/nova-agent-2/internal/service"
	v1 "github.com/mahirxmc/nova-agent-2/internal/transport/http/v1"
	"github.com/mahirxmc/nova-agent-2/internal/transport/ws"
)

// NewServer creates and configures the relay HTTP server. gatherer backs
// /metrics; nil uses the default registry.
func NewServer(svc *service.Service, cfg *config.Config, gatherer prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))

	// Middleware
	e.Pre(CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	if cfg.RateLimitRPS > 0 {
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool {
				p := c.Path()
				return p == "/health" || p == "/metrics"
			},
			Store: middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimitRPS)),
		}))
	}

	// Handlers
	v1Handler := v1.NewHandler(svc)
	wsHandler := ws.NewHandler(svc)

	// Register Routes
	v1Handler.RegisterRoutes(e)
	wsHandler.RegisterRoutes(e)

	metrics := promhttp.Handler()
	if gatherer != nil {
		metrics = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	e.GET("/metrics", echo.WrapHandler(metrics))

	return e
}

// logLevel maps LOG_LEVEL to echo's logger level; unknown values mean info.
func logLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
