package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shanti-orders/config"
	"shanti-orders/internal/api"
	"shanti-orders/internal/broker"
	"shanti-orders/internal/interpreter"
	"shanti-orders/internal/redisclient"
	"shanti-orders/internal/service"
	"shanti-orders/internal/store"
	"shanti-orders/internal/util"
	"shanti-orders/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const submitLockTTL = 30 * time.Second

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting pharmacy order service")

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	backend, redisClient, err := openBackend(cfg)
	if err != nil {
		logger.Fatal("Failed to open order storage",
			zap.String("backend", cfg.Storage.Backend),
			zap.Error(err))
	}
	orderStore := store.NewStore(backend, cfg.Storage.Key)
	defer orderStore.Close()
	logger.Info("Order storage ready", zap.String("backend", cfg.Storage.Backend))

	var locker service.Locker = service.NewLocalLocker()
	if redisClient != nil {
		locker = service.NewRedisLocker(redisClient, submitLockTTL)
	}

	var eventPublisher service.EventPublisher = broker.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
		defer producer.Close()
		eventPublisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	} else {
		logger.Info("No Kafka brokers configured, order events are not published")
	}

	business := service.BusinessIdentity{
		Name:    cfg.Business.Name,
		Tagline: cfg.Business.Tagline,
		Address: cfg.Business.Address,
		Phones:  cfg.Business.Phones,
		Email:   cfg.Business.Email,
	}

	orderService := service.NewOrderService(orderStore, eventPublisher, locker, cfg.Business.MinOrderAmount)
	adminService := service.NewAdminService(orderStore, eventPublisher, business)
	registry := service.NewCartRegistry(orderService)

	if cfg.AI.APIKey == "" {
		logger.Warn("API_KEY is empty, AI note reading will fail")
	}
	gemini := interpreter.NewGeminiClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout)
	noteService := interpreter.NewNoteService(gemini, locker, cfg.AI.Timeout)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var notifier *worker.NotificationWorker
	if len(cfg.Kafka.Brokers) > 0 {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
		notifier = worker.NewNotificationWorker(consumer)
		go func() {
			if err := notifier.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Notification worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(registry, adminService, noteService, api.Storefront{
		Business:       business,
		PaymentPhone:   cfg.Business.PaymentPhone,
		MinOrderAmount: cfg.Business.MinOrderAmount,
		MaxImageBytes:  int64(cfg.Business.MaxImageBytes),
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	var metricsSrv *http.Server
	if p := cfg.Observ.PrometheusPort; p != "" && p != cfg.Server.Port {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: ":" + p, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server stopped", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	workerCancel()
	if notifier != nil {
		if err := notifier.Stop(); err != nil {
			logger.Warn("Error stopping notification worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

// openBackend builds the configured key-value substrate. The redis backend
// also hands back its client so submission locks can be shared.
func openBackend(cfg *config.Config) (store.KVBackend, *redisclient.Client, error) {
	switch cfg.Storage.Backend {
	case "pebble":
		backend, err := store.NewPebbleBackend(cfg.Storage.PebbleDir)
		if err != nil {
			return nil, nil, err
		}
		return backend, nil, nil
	case "postgres":
		backend, err := store.NewPostgresBackend(cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		return backend, nil, nil
	case "redis":
		client, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	case "memory":
		return store.NewMemoryBackend(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
