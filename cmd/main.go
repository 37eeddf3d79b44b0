package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/oksasatya/competitor-radar/config"
	"github.com/oksasatya/competitor-radar/internal/container"
	"github.com/oksasatya/competitor-radar/internal/infrastructure/insight"
	pginfra "github.com/oksasatya/competitor-radar/internal/infrastructure/postgres"
	"github.com/oksasatya/competitor-radar/internal/interface/middleware"
	"github.com/oksasatya/competitor-radar/internal/router"
	"github.com/oksasatya/competitor-radar/pkg/helpers"
	"github.com/oksasatya/competitor-radar/pkg/mailer"
	"github.com/oksasatya/competitor-radar/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres + migrations
	pool, err := pginfra.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := pginfra.Migrate(cfg.PostgresDSN(), cfg.MigrationsDir, true, logger); err != nil {
		logger.Fatalf("migration failed: %v", err)
	}

	// Redis backs every rate limiter
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()
	if err := helpers.PingRedis(ctx, rdb, 3*time.Second); err != nil {
		logger.Fatalf("failed to reach redis: %v", err)
	}

	completer, err := insight.NewGenAICompleter(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
	if err != nil {
		logger.Fatalf("failed to init reasoning model: %v", err)
	}

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetRedis(rdb)
	container.SetCompleter(completer)

	// Optional integrations: each one is skipped when unconfigured or unreachable
	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			helpers.LogWarn(logger, "GCS disabled", err, nil)
		} else {
			defer func() { _ = gcsClient.Close() }()
			container.SetGCS(gcsClient)
		}
	}
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			helpers.LogWarn(logger, "elasticsearch disabled", err, nil)
		} else {
			container.SetES(es)
		}
	}
	if cfg.MailSendEnabled && cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, cfg.AppName)
		if err != nil {
			helpers.LogWarn(logger, "rabbitmq unavailable, sending mail in-process", err, nil)
		} else {
			defer pub.Close()
			container.SetRabbitPub(pub)
		}
	}
	if cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "" {
		container.SetMailgun(mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	container.SetRegistry(reg)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP(cfg.TrustProxyHeaders))
	origins := cfg.CORSOrigins()
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	corsCfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled {
		r.Use(middleware.AccessLog(logger))
	}

	registry := router.NewRegistry(r)
	deps, err := router.InitModules(registry)
	if err != nil {
		logger.Fatalf("failed to init modules: %v", err)
	}
	registry.RegisterAll()

	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		deps.Cleanup.Start(workerCtx, cfg.CleanupInterval)
	}()

	// A scan can legitimately run for the whole scan budget
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.ScanBudget() + 30*time.Second,
	}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	stopWorker()
	<-workerDone
	deps.Wait()
	logger.Info("server exited properly")
}

