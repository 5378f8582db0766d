// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"garage-advisor/internal/api"
	"garage-advisor/internal/app"
	"garage-advisor/internal/common/camunda"
	"garage-advisor/internal/common/config"
	"garage-advisor/internal/common/database"
	"garage-advisor/internal/common/logger"
	"garage-advisor/internal/common/observability"

	dv "garage-advisor/internal/workers/garage/diagnose-vehicle"
	sg "garage-advisor/internal/workers/garage/search-garages"
)

const (
	sessionPruneInterval = time.Minute
	shutdownTimeout      = 30 * time.Second
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// connectRedis opens and pings a client, retrying with backoff. A client
// whose ping fails is closed before the next attempt.
func connectRedis(ctx context.Context, open func() (*database.RedisClient, error), attempts int, delay time.Duration, log *zap.Logger) (*database.RedisClient, error) {
	var redis *database.RedisClient
	err := retryWithBackoff(func() error {
		client, err := open()
		if err != nil {
			return err
		}
		if err := client.Ping(ctx); err != nil {
			_ = client.Close()
			return err
		}
		redis = client
		return nil
	}, attempts, delay, log, "Redis connection")
	if err != nil {
		return nil, err
	}
	return redis, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting garage advisor",
		zap.String("environment", cfg.App.Environment),
		zap.String("provider", cfg.Places.Provider),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel metrics exporter unavailable", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Optional Redis sub-query cache ---
	var redis *database.RedisClient
	if cfg.Database.Redis.Address != "" && cfg.Places.CacheTTL > 0 {
		redis, err = connectRedis(ctx, func() (*database.RedisClient, error) {
			return database.NewRedis(cfg.Database.Redis)
		}, 5, 2*time.Second, zapLog)

		if err != nil {
			// Searches still work uncached.
			zapLog.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer redis.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	components := app.New(cfg, app.NewCache(cfg, redis, log), obs, log)

	// --- Zeebe workers ---
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.Connect(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")

		searchHandler := sg.NewHandler(
			&sg.Config{Timeout: config.GetDuration(config.GetWorkerConfig(cfg, sg.TaskType).Timeout)},
			components.Orchestrator, components.Source.Kind(), obs, log,
		)
		camunda.StartWorker(zeebe.GetClient(), sg.TaskType, config.GetWorkerConfig(cfg, sg.TaskType), searchHandler, zapLog)

		diagnoseHandler := dv.NewHandler(
			&dv.Config{Timeout: config.GetDuration(config.GetWorkerConfig(cfg, dv.TaskType).Timeout)},
			components.Diagnosis, obs, log,
		)
		camunda.StartWorker(zeebe.GetClient(), dv.TaskType, config.GetWorkerConfig(cfg, dv.TaskType), diagnoseHandler, zapLog)
	}

	// --- HTTP API ---
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	var ready atomic.Bool
	server := api.NewServer(components.Registry, components.Sessions, components.Diagnosis, api.Options{
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		AllowedOrigins: api.ParseOrigins(cfg.Server.AllowedOrigins),
		Source:         components.Source.Kind(),
		Ready:          ready.Load,
	}, log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLog.Info("API server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return components.Sessions.Run(gctx, sessionPruneInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		ready.Store(false)
		zapLog.Info("Shutdown signal received, stopping server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	ready.Store(true)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		zapLog.Error("garage advisor stopped with error", zap.Error(err))
	}

	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Garage advisor stopped gracefully")
}
