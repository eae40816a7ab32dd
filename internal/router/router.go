package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/carebridge/booking-api/internal/config"
	"github.com/carebridge/booking-api/internal/handler"
	adminhandler "github.com/carebridge/booking-api/internal/handler/admin"
	appointmenthandler "github.com/carebridge/booking-api/internal/handler/appointment"
	medicalhandler "github.com/carebridge/booking-api/internal/handler/medical"
	providerhandler "github.com/carebridge/booking-api/internal/handler/provider"
	userhandler "github.com/carebridge/booking-api/internal/handler/user"
	"github.com/carebridge/booking-api/internal/middleware"
	"github.com/carebridge/booking-api/internal/model"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	healthH      *handler.HealthHandler
	userH        *userhandler.Handler
	appointmentH *appointmenthandler.Handler
	providerH    *providerhandler.Handler
	medicalH     *medicalhandler.Handler
	adminH       *adminhandler.Handler
	metrics      *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

func NewRouter(
	cfg *config.Config,
	log zerolog.Logger,
	auth *middleware.AuthMiddleware,
	healthH *handler.HealthHandler,
	userH *userhandler.Handler,
	appointmentH *appointmenthandler.Handler,
	providerH *providerhandler.Handler,
	medicalH *medicalhandler.Handler,
	adminH *adminhandler.Handler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:       engine,
		auth:         auth,
		healthH:      healthH,
		userH:        userH,
		appointmentH: appointmentH,
		providerH:    providerH,
		medicalH:     medicalH,
		adminH:       adminH,
		metrics:      newRouterMetrics(),
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(cfg.Server.RequestTimeout),
		middleware.CORS(middleware.DefaultCORSConfig()),
	)

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		engine.Use(limiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	r.healthH.RegisterRoutes(api)

	// Public routes: signup, tokens, provider discovery.
	r.userH.RegisterPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.userH.RegisterRoutes(protected)
	r.appointmentH.RegisterRoutes(protected)

	providers := protected.Group("/provider")
	providers.Use(r.auth.RequireProvider())
	r.providerH.RegisterRoutes(providers)
	r.medicalH.RegisterRoutes(providers)

	admin := protected.Group("/admin")
	admin.Use(r.auth.RequireRole(model.RoleAdmin))
	r.adminH.RegisterRoutes(admin)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func newRouterMetrics() *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "booking_api_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_api_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_api_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path).Inc()
		}
	}
}
