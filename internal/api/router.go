package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/customer-api/docs"
	"github.com/99minutos/customer-api/internal/api/handler"
	"github.com/99minutos/customer-api/internal/api/middleware"
	"github.com/99minutos/customer-api/internal/core/ports"
	"github.com/99minutos/customer-api/internal/infrastructure/http/handlers"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Customers ports.CustomerService
	Auth      ports.Authenticator
	Codec     ports.TokenCodec

	// LoginLimiter throttles POST /customers/login when non-nil.
	LoginLimiter middleware.AttemptLimiter

	// Readiness lists the dependencies pinged by /health/ready.
	Readiness map[string]ports.Pinger

	// Registry receives the HTTP request metrics; nil means the default
	// registry. /metrics always serves it together with the default one.
	Registry *prometheus.Registry

	// Routes overrides the access policy; nil means middleware.DefaultRouteTable.
	Routes middleware.RouteTable

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	routes := d.Routes
	if routes == nil {
		routes = middleware.DefaultRouteTable()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer = d.Registry
		gatherer = prometheus.Gatherers{d.Registry, prometheus.DefaultGatherer}
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "customer_api",
		Registerer: registerer,
	}))
	e.Use(middleware.Gate(routes, d.Codec))

	// --- Customer routes ---
	authHandler := handler.NewAuthHandler(d.Auth)
	customerHandler := handler.NewCustomerHandler(d.Customers)

	var loginMW []echo.MiddlewareFunc
	if d.LoginLimiter != nil {
		loginMW = append(loginMW, middleware.LoginRateLimit(d.LoginLimiter, d.Log))
	}
	e.POST("/customers/login", authHandler.Login, loginMW...)
	e.POST("/customers", customerHandler.Create)
	e.GET("/customers", customerHandler.List)
	e.GET("/customers/:id", customerHandler.Get)
	e.PUT("/customers/:id", customerHandler.Update)
	e.DELETE("/customers/:id", customerHandler.Delete)

	probes := handlers.NewProbeHandler(d.Readiness)
	e.GET("/health/live", probes.Live)
	e.GET("/health/ready", probes.Ready)

	// --- Docs and metrics ---
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))

	return e
}
