package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/adsdental/clinic-api/internal/handler"
	"github.com/adsdental/clinic-api/internal/middleware"
	"github.com/adsdental/clinic-api/internal/model"
	"github.com/adsdental/clinic-api/pkg/metrics"
)

// Handler is the shape every area handler exposes: routes plus the
// guard middleware that enforces the area's role requirements.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup, *middleware.AuthMiddleware)
}

type Config struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
}

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	authH        Handler
	userH        Handler
	patientH     Handler
	dentistH     Handler
	surgeryH     Handler
	appointmentH Handler
	h            *handler.Handler
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH Handler,
	userH Handler,
	patientH Handler,
	dentistH Handler,
	surgeryH Handler,
	appointmentH Handler,
	h *handler.Handler,
	m *metrics.Metrics,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	model.RegisterValidators()
	engine := gin.New()

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(m),
		middleware.CORS(config.CORSConfig),
	)

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return &Router{
		engine:       engine,
		auth:         auth,
		authH:        authH,
		userH:        userH,
		patientH:     patientH,
		dentistH:     dentistH,
		surgeryH:     surgeryH,
		appointmentH: appointmentH,
		h:            h,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/health/live", r.h.LivenessCheck)
	r.engine.GET("/health/ready", r.h.ReadinessCheck)
	r.engine.GET("/metrics", r.h.MetricsHandler)

	api := r.engine.Group("/api/v1")

	r.authH.RegisterRoutes(api, r.auth)
	r.userH.RegisterRoutes(api, r.auth)
	r.patientH.RegisterRoutes(api, r.auth)
	r.dentistH.RegisterRoutes(api, r.auth)
	r.surgeryH.RegisterRoutes(api, r.auth)
	r.appointmentH.RegisterRoutes(api, r.auth)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
