package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/agendavendas/scheduling-api/internal/api/docs"
	"github.com/agendavendas/scheduling-api/internal/api/handler"
	"github.com/agendavendas/scheduling-api/internal/api/middleware"
	"github.com/agendavendas/scheduling-api/internal/core/ports"
	"github.com/agendavendas/scheduling-api/internal/infrastructure/notify"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Users    ports.UserService
	Clients  ports.ClientService
	Policy   ports.AccessPolicy
	Hub      *notify.Hub
	Session  notify.SessionOptions
	Health   map[string]handler.PingFunc
	Location *time.Location

	APIPrefix string
	WSPath    string

	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log, d.WSPath))
	e.Use(echomiddleware.CORS())
	e.Use(prometheusMiddleware(d.Registry, d.WSPath))

	// --- Dependencies ---
	userHandler := handler.NewUserHandler(d.Users)
	clientHandler := handler.NewClientHandler(d.Clients, d.Policy, d.Location)
	healthHandler := handler.NewHealthHandler(d.Health)
	notifyHandler := handler.NewNotificationHandler(d.Hub, d.Session, d.Log)

	api := e.Group(d.APIPrefix, middleware.Identity())
	manageUsers := middleware.Require(d.Policy, ports.CapManageUsers)

	// --- Auth ---
	api.POST("/login", userHandler.Login)

	// --- Users ---
	api.GET("/users", userHandler.List, manageUsers)
	api.POST("/users", userHandler.Create, manageUsers)
	api.PATCH("/users/:id", userHandler.SetActive, manageUsers)
	api.DELETE("/users/:id", userHandler.Delete, manageUsers)

	// --- Clients ---
	api.GET("/clients", clientHandler.List)
	api.POST("/clients", clientHandler.Create)
	api.PUT("/clients/:id", clientHandler.Update)
	api.DELETE("/clients/:id", clientHandler.Delete)

	// --- Health checks ---
	api.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	api.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	// --- Notifications ---
	e.GET(d.WSPath, notifyHandler.Serve)

	// --- Operations ---
	e.GET("/metrics", metricsHandler(d.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger, wsPath string) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Bool("websocket", c.Path() == wsPath).
				Msg("request")
			return nil
		},
	})
}

func prometheusMiddleware(reg *prometheus.Registry, wsPath string) echo.MiddlewareFunc {
	cfg := echoprometheus.MiddlewareConfig{
		Subsystem: "http",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == wsPath
		},
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return echoprometheus.NewMiddlewareWithConfig(cfg)
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
}
