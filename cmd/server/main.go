package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Xreatlabs/Helium-sub000/internal/config"
	"github.com/Xreatlabs/Helium-sub000/internal/database"
	"github.com/Xreatlabs/Helium-sub000/internal/handlers"
	"github.com/Xreatlabs/Helium-sub000/internal/logger"
	"github.com/Xreatlabs/Helium-sub000/internal/middleware"
	"github.com/Xreatlabs/Helium-sub000/internal/notifier"
	"github.com/Xreatlabs/Helium-sub000/internal/renewal"
	"github.com/Xreatlabs/Helium-sub000/internal/services"
	"github.com/Xreatlabs/Helium-sub000/internal/sweeper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Couldn't load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Couldn't build logger: %v", err)
	}
	defer zlog.Sync()

	zlog.Info("starting helium gateway", zap.String("port", cfg.Server.Port), zap.String("panel", cfg.Pterodactyl.Domain))

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(cfg.Database.URL); err != nil {
			zlog.Fatal("database migration failed", zap.Error(err))
		}
	}

	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := services.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		zlog.Fatal("redis connection failed", zap.Error(err))
	}
	rateLimiter := services.NewRateLimiter(redisClient)
	defer rateLimiter.Close()

	metricsCollector, err := services.NewMetricsCollector()
	if err != nil {
		zlog.Fatal("couldn't register metrics", zap.Error(err))
	}

	var cache services.ResponseCache = services.NewMemoryCache()
	if cfg.Pterodactyl.CacheBackend == "redis" {
		cache = services.NewRedisCache(redisClient, "ptero")
	}

	panel := services.NewPteroClient(cfg.Pterodactyl.Domain, cfg.Pterodactyl.APIKey, services.PteroOptions{
		MaxRetries:        cfg.Pterodactyl.MaxRetries,
		RetryDelay:        cfg.Pterodactyl.RetryDelay,
		CacheTTL:          cfg.Pterodactyl.CacheTTL,
		Cache:             cache,
		HTTPClient:        &http.Client{Timeout: cfg.Pterodactyl.HTTPTimeout},
		RequestsPerSecond: cfg.Pterodactyl.RequestsPerSecond,
		Metrics:           metricsCollector,
	})

	sender := notifier.NewWebhookSender(notifier.SenderOptions{
		MaxAttempts: cfg.Webhook.MaxAttempts,
		RetryDelay:  cfg.Webhook.RetryDelay,
		Timeout:     cfg.Webhook.Timeout,
	})
	events := notifier.New(db, sender, zlog.Named("notifier"), notifier.Options{
		Username:    cfg.Webhook.Username,
		Concurrency: cfg.Webhook.Concurrency,
		Recorder:    db,
		Metrics:     metricsCollector,
	})
	// sweeps and request paths don't wait on webhook retries
	background := notifier.NewDetached(events)

	policy := sweeper.Policy{
		Cost:           cfg.Renewal.Cost,
		Period:         cfg.Renewal.Period,
		GracePeriod:    cfg.Renewal.GracePeriod,
		DeletionPeriod: cfg.Renewal.DeletionPeriod,
		AutoSuspend:    cfg.Renewal.AutoSuspend,
		AutoDelete:     cfg.Renewal.AutoDelete,
	}
	sweep := sweeper.New(db, panel, background, policy, zlog.Named("sweeper"), sweeper.Options{
		ResourceTimeout: cfg.Renewal.ResourceTimeout,
		Metrics:         metricsCollector,
	})
	scheduler, err := sweeper.NewScheduler(cfg.Renewal.SweepSchedule, sweep, zlog.Named("scheduler"))
	if err != nil {
		zlog.Fatal("invalid sweep schedule", zap.String("schedule", cfg.Renewal.SweepSchedule), zap.Error(err))
	}
	if cfg.Renewal.Enabled {
		scheduler.Start()
	} else {
		zlog.Info("renewals disabled, expiration sweeps only run on demand")
	}

	renewals := renewal.NewService(db, panel, background, cfg.Renewal.Enabled, policy, zlog.Named("renewal"))

	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth.SessionSecret, zlog)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(rateLimiter, cfg.Redis.RequestsPerMinute, metricsCollector, zlog)

	serverHandler := handlers.NewServerHandler(panel, renewals, background, zlog)
	adminHandler := handlers.NewAdminHandler(db, panel, scheduler, events, zlog)
	metricsHandler := handlers.NewMetricsHandler(metricsCollector.Handler(), db, rateLimiter, panel, zlog)

	requestLogger := middleware.RequestLogger(zlog, metricsCollector)
	router := mux.NewRouter()
	router.Use(requestLogger)
	// mux skips middleware for requests no route matched
	router.NotFoundHandler = requestLogger(http.NotFoundHandler())
	router.MethodNotAllowedHandler = requestLogger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))

	router.HandleFunc("/health", metricsHandler.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/metrics", metricsHandler.GetMetrics).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Middleware, rateLimitMiddleware.Middleware)
	api.HandleFunc("/servers", serverHandler.CreateServer).Methods(http.MethodPost)
	api.HandleFunc("/servers/{id}", serverHandler.DeleteServer).Methods(http.MethodDelete)
	api.HandleFunc("/servers/{id}/renewal", serverHandler.RenewalStatus).Methods(http.MethodGet)
	api.HandleFunc("/servers/{id}/renew", serverHandler.Renew).Methods(http.MethodPost)
	api.HandleFunc("/servers/{id}/autorenew", serverHandler.SetAutoRenew).Methods(http.MethodPut)

	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(authMiddleware.Middleware, middleware.AdminOnly)
	admin.HandleFunc("/webhooks", adminHandler.ListWebhooks).Methods(http.MethodGet)
	admin.HandleFunc("/webhooks", adminHandler.CreateWebhook).Methods(http.MethodPost)
	admin.HandleFunc("/webhooks/test", adminHandler.TestWebhook).Methods(http.MethodPost)
	admin.HandleFunc("/webhooks/{id}", adminHandler.UpdateWebhook).Methods(http.MethodPut)
	admin.HandleFunc("/webhooks/{id}", adminHandler.DeleteWebhook).Methods(http.MethodDelete)
	admin.HandleFunc("/webhooks/{id}/toggle", adminHandler.ToggleWebhook).Methods(http.MethodPut)
	admin.HandleFunc("/users/{id}/coins", adminHandler.AdjustCoins).Methods(http.MethodPost)
	admin.HandleFunc("/cache/clear", adminHandler.ClearCache).Methods(http.MethodPost)
	admin.HandleFunc("/ptero/ratelimit", adminHandler.RateLimit).Methods(http.MethodGet)
	admin.HandleFunc("/sweep", adminHandler.Sweep).Methods(http.MethodPost)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("ready", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zlog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zlog.Error("http shutdown did not finish cleanly", zap.Error(err))
	}
	if err := scheduler.Stop(ctx); err != nil {
		zlog.Error("sweep still running at shutdown", zap.Error(err))
	}
	if err := background.Wait(ctx); err != nil {
		zlog.Warn("pending notifications dropped at shutdown", zap.Error(err))
	}
}
