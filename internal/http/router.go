package http

import (
	"log/slog"
	"time"

	"github.com/arcodify/arcodify-api/internal/auth"
	"github.com/arcodify/arcodify-api/internal/cache"
	"github.com/arcodify/arcodify-api/internal/config"
	"github.com/arcodify/arcodify-api/internal/http/handlers"
	"github.com/arcodify/arcodify-api/internal/http/middlewares"
	"github.com/arcodify/arcodify-api/internal/observability"
	"github.com/arcodify/arcodify-api/internal/posts"
	"github.com/arcodify/arcodify-api/internal/repo/postgres"
	"github.com/arcodify/arcodify-api/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps carries the process-level resources the router wires handlers to.
type Deps struct {
	Pool       *pgxpool.Pool
	CacheStore cache.Store
	CachePing  handlers.Pinger // nil when the store has no ping (memory)
}

func NewRouter(cfg config.Config, log *slog.Logger, deps Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(prom.GinHandleMiddleware())
	r.Use(otelgin.Middleware("arcodify-api"))

	// wire up repositories and services

	usersRepo := postgres.NewUsersRepo(deps.Pool, prom)
	jobsRepo := postgres.NewJobsRepo(deps.Pool, prom)

	tokens := auth.NewManager(cfg.SessionSecret, cfg.SessionTTL)
	sessions := session.NewManager(usersRepo, tokens, cfg.CookieName, log)
	gate := middlewares.NewAuthGate(tokens, usersRepo, sessions)

	postsSvc := posts.NewService(
		deps.CacheStore,
		posts.NewHTTPFetcher(cfg.PostsAPIURL),
		cfg.PostsCachePrefix,
		cfg.PostsCacheTTL,
		log,
		prom,
	)

	authHandler := handlers.NewAuthHandler(usersRepo, sessions, jobsRepo, log)
	profileHandler := handlers.NewProfileHandler()
	adminUsersHandler := handlers.NewAdminUsersHandler(usersRepo)
	adminJobsHandler := handlers.NewAdminJobsHandler(jobsRepo)
	postsHandler := handlers.NewPostsHandler(postsSvc)

	var dbPing handlers.Pinger
	if deps.Pool != nil {
		dbPing = deps.Pool
	}
	healthHandler := handlers.NewHealthHandler(dbPing, deps.CachePing)

	// ops surface

	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// credential endpoints get a per-IP window on top of everything else
	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
			authGroup.POST("/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
			authGroup.GET("/logout", authHandler.Logout)
			authGroup.GET("/validate", gate.RequireToken(), authHandler.Validate)
		}

		api.GET("/profile/me", gate.RequireUser(), profileHandler.Me)

		postsGroup := api.Group("/posts", gate.RequireUser())
		{
			postsGroup.GET("", postsHandler.List)
			postsGroup.GET("/:id", postsHandler.GetByID)
		}

		admin := api.Group("/admin", gate.RequireAdmin())
		{
			admin.GET("/users", adminUsersHandler.List)
			admin.POST("/users/:id/deactivate", adminUsersHandler.Deactivate)
			admin.GET("/jobs", adminJobsHandler.List)
			admin.GET("/cache/posts", postsHandler.CacheInfo)
			admin.DELETE("/cache/posts", postsHandler.CacheEvict)
		}
	}

	return r
}
