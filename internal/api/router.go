package api

import (
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/parcel-tracker/docs"
	"github.com/99minutos/parcel-tracker/internal/api/handler"
	"github.com/99minutos/parcel-tracker/internal/api/middleware"
	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

// Dependencies is everything the HTTP layer needs from the process.
type Dependencies struct {
	Parcels ports.ParcelService
	Auth    ports.AuthService
	Engine  ports.ProgressEngine
	// Health is pinged by /health/ready, keyed by dependency name.
	Health map[string]handler.Pinger

	JWTSecret string
	// APIKey enables POST /v1/progress/reconcile when non-empty.
	APIKey string

	Log zerolog.Logger
	// Registerer receives the HTTP metrics. Nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	registerer := d.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "parcel_tracker",
		Registerer: registerer,
		Skipper:    isStream,
	}))

	// --- Handlers ---
	healthHandler := handler.NewHealthHandler(d.Health)
	authHandler := handler.NewAuthHandler(d.Auth)
	parcelHandler := handler.NewParcelHandler(d.Parcels)
	progressHandler := handler.NewProgressHandler(d.Engine, d.Log)

	requireAuth := middleware.Auth(d.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Ops (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", authHandler.Me, requireAuth)

	// --- Parcels ---
	v1 := e.Group("/v1")
	parcels := v1.Group("/parcels")
	parcels.POST("", parcelHandler.Create, requireAuth, adminOnly)
	parcels.GET("", parcelHandler.List, requireAuth, adminOnly)
	parcels.DELETE("/:id", parcelHandler.Delete, requireAuth, adminOnly)

	// Tracking is public: the parcel id is the tracking number.
	parcels.GET("/:id", parcelHandler.Get)
	parcels.GET("/:id/position", parcelHandler.Position)
	parcels.GET("/:id/events", parcelHandler.History)
	parcels.GET("/:id/stream", parcelHandler.Stream)

	// --- Progress ---
	if d.APIKey != "" {
		v1.POST("/progress/reconcile", progressHandler.Reconcile, middleware.APIKey(d.APIKey))
	}

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil || v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency.Round(time.Microsecond)).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

// isStream keeps long-lived SSE connections out of the latency histograms.
func isStream(c echo.Context) bool {
	return strings.HasSuffix(c.Path(), "/stream")
}
