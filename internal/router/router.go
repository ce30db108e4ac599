// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/Prajwol-Chhetri/Task-REST-API/internal/config"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/handler"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/metrics"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/middleware"
)

// Deps is everything New needs. Redis may be nil; DB may be nil when the
// service runs on in-memory storage.
type Deps struct {
	Auth      *handler.AuthHandler
	Tasks     *handler.TaskHandler
	Tokens    middleware.Authenticator
	DB        handler.Pinger
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Metrics   metrics.Recorder
	Gatherer  prometheus.Gatherer
	Log       *slog.Logger
}

// New builds the echo instance with global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.Identify(d.Tokens))
	e.Use(middleware.RequestLogger(d.Log, d.Metrics))

	RegisterRoutes(e, d.DB, d.Gatherer)

	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	cache := middleware.NewRedisCache(d.Cache, d.Redis, d.Log)

	RegisterAuth(e.Group("/v1/auth", limit), d.Auth)
	RegisterUsers(e.Group("/v1/users", limit, cache), d.Auth)
	RegisterTasks(e.Group("/v1/tasks", limit, cache), d.Tasks)
	return e
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, gatherer prometheus.Gatherer) {
	e.GET("/healthz", handler.Health(db))
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(gatherer)))
	}
}

// RegisterAuth registers the session endpoints. None of them require an
// access token.
func RegisterAuth(g *echo.Group, a *handler.AuthHandler) {
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}

// RegisterUsers registers the caller's own profile endpoints.
func RegisterUsers(g *echo.Group, a *handler.AuthHandler) {
	g.GET("/me", a.Me)
	g.PUT("/me", a.UpdateMe)
	g.PATCH("/me", a.UpdateMe)
}

// RegisterTasks registers the task collection and item endpoints.
func RegisterTasks(g *echo.Group, t *handler.TaskHandler) {
	g.GET("", t.List)
	g.POST("", t.Create)
	g.GET("/:id", t.Get)
	g.PUT("/:id", t.Replace)
	g.PATCH("/:id", t.Patch)
	g.DELETE("/:id", t.Delete)
}
