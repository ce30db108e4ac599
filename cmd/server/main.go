package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Prajwol-Chhetri/Task-REST-API/internal/config"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/credential"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/handler"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/logger"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/metrics"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/policy"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/publisher"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/queue"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/router"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/storage"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/token"
)

const (
	shutdownTimeout = 15 * time.Second
	purgeInterval   = time.Hour
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load()
	if err != nil {
		logger.Setup(os.Stderr, "error").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.SetupDefault(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Error("storage unavailable", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable; caching disabled, rate limiting is per process")
	} else {
		defer rdb.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(reg)

	amqpCfg := config.LoadAMQPConfig()
	var events publisher.Publisher = publisher.Nop{}
	if amqpCfg.Enabled {
		p := publisher.NewAMQP(amqpCfg.URL, amqpCfg.Queue, log)
		defer p.Close()
		events = p
		go func() {
			c := queue.NewAuditConsumer(amqpCfg.URL, amqpCfg.Queue, amqpCfg.AuditLogDir, log)
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit consumer stopped", "error", err)
			}
		}()
	}

	tokens := token.NewService(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL(), token.WithDenylist(store.Tokens))
	users := credential.NewStore(store.Users, credential.Options{
		MinSecretLength: cfg.MinPasswordLength,
		BcryptCost:      cfg.BcryptCost,
	})
	access := &handler.Access{Tokens: tokens, Users: users, Policy: policy.NewEngine(), Metrics: rec}

	e := router.New(router.Deps{
		Auth:      handler.NewAuthHandler(users, tokens, access, events, rec, log),
		Tasks:     handler.NewTaskHandler(store.Tasks, access, events, log),
		Tokens:    tokens,
		DB:        store.Pinger(),
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Metrics:   rec,
		Gatherer:  reg,
		Log:       log,
	})

	go store.PurgeLoop(ctx, purgeInterval, log)

	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", "addr", addr, "env", cfg.Env, "storage", cfg.Storage)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}
