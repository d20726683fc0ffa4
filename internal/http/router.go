package http

import (
	"context"
	"time"

	"github.com/geocoder89/jobtracker/internal/config"
	"github.com/geocoder89/jobtracker/internal/http/handlers"
	"github.com/geocoder89/jobtracker/internal/http/middlewares"
	"github.com/geocoder89/jobtracker/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type UserStore interface {
	handlers.UserStore
	handlers.ProfileStore
}

type StatsService interface {
	handlers.StatsReader
	handlers.StatsInvalidator
}

type TokenService interface {
	handlers.TokenIssuer
	middlewares.TokenVerifier
}

// Deps is everything the router needs from main. Ping and Gatherer may be nil.
type Deps struct {
	Users    UserStore
	Jobs     handlers.JobStore
	Stats    StatsService
	Tokens   TokenService
	Hasher   handlers.PasswordHasher
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Ping     func(ctx context.Context) error
}

func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health
	var ping func() error
	if deps.Ping != nil {
		ping = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()

			return deps.Ping(ctx)
		}
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Tokens, deps.Hasher, deps.Prom)
	profileHandler := handlers.NewProfileHandler(deps.Users)
	jobsHandler := handlers.NewJobsHandler(deps.Jobs, deps.Stats, deps.Prom)
	statsHandler := handlers.NewStatsHandler(deps.Stats)

	authMW := middlewares.NewAuthMiddleware(deps.Tokens)
	authLimiter := middlewares.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)

	api := r.Group("/api")

	authGroup := api.Group("/auth", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	authGroup.POST("/signup", authHandler.SignUp)
	authGroup.POST("/login", authHandler.Login)

	protected := api.Group("", authMW.RequireAuth())

	protected.GET("/user", profileHandler.Get)
	protected.PUT("/user", profileHandler.Update)

	protected.POST("/jobs", jobsHandler.Create)
	protected.GET("/jobs", jobsHandler.List)
	protected.PUT("/jobs/:id", jobsHandler.Update)
	protected.PATCH("/jobs/:id", jobsHandler.Update)
	protected.DELETE("/jobs/:id", jobsHandler.Delete)

	protected.GET("/stats", statsHandler.Get)

	return r
}
