package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"mineplan/internal/amqp"
	"mineplan/internal/backend"
	"mineplan/internal/cache"
	"mineplan/internal/cli"
	"mineplan/internal/core"
	apphttp "mineplan/internal/http"
	"mineplan/internal/log"
	"mineplan/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	// Plan events are optional; without a broker the export worker only
	// picks up changes through its periodic resync.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("Plan events enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Plan events disabled - no AMQP_URL provided")
	}

	planCache := cache.NewLRUCache[core.MonthlyPlan](cfg.PlanCacheSize, cfg.PlanCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(planCache)

	policy, err := services.ParseCarryOverPolicy(cfg.DailyCarryOverPolicy)
	if err != nil {
		logger.Error("Invalid carry-over policy", log.FieldError, err)
		os.Exit(1)
	}

	clock := cli.Clock(cfg)
	cascade := services.NewCascadeService(store.Store, services.CascadeOptions{
		Cache:      planCache,
		Publisher:  publisher,
		Clock:      clock,
		GuardEdits: cfg.GuardPlanEdits,
		Logger:     logger,
	})
	daily := services.NewDailyService(store.Store, policy, cascade, logger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Plans:              cascade,
		Daily:              daily,
		Ready:              store.Ping,
		CacheSize:          planCache.Size,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting minepland server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			log.FieldPolicy, policy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		cacheManager.StartCleanup(gctx, max(cfg.PlanCacheTTL, time.Minute))
		<-gctx.Done()
		cacheManager.Stop()
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		logger.Info("Shutting down server...", log.FieldOperation, log.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
