package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"moneygr/internal/amqp"
	"moneygr/internal/backend"
	"moneygr/internal/cache"
	"moneygr/internal/cli"
	"moneygr/internal/core"
	apphttp "moneygr/internal/http"
	"moneygr/internal/log"
	"moneygr/internal/lookup"
	"moneygr/internal/report"
	"moneygr/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	var (
		outcomePublisher services.Publisher[core.Outcome]
		incomePublisher  services.Publisher[core.Income]
	)
	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
			os.Exit(1)
		}
		defer amqpClient.Close()
		outcomePublisher = services.AMQPOutcomes(amqpClient)
		incomePublisher = services.AMQPIncomes(amqpClient)
		logger.Info("Records are submitted over AMQP", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		outcomePublisher = services.DirectOutcomes(be.Store)
		incomePublisher = services.DirectIncomes(be.Store)
		logger.Info("Records are written directly to the backend", "backend", cfg.DataBackend)
	}

	outcomeSubmitter := services.NewOutcomeSubmitter(outcomePublisher, cfg.SubmitTimeout, logger)
	incomeSubmitter := services.NewIncomeSubmitter(incomePublisher, cfg.SubmitTimeout, logger)

	lookupCache := lookup.NewCache(be.Store, cfg.LookupCacheSize, cfg.LookupCacheTTL)
	janitor := cache.NewManager(logger.Logger)
	janitor.Register(lookupCache.LRU())
	janitor.Start(ctx, cfg.LookupCacheTTL)
	defer janitor.Stop()

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Outcomes: services.NewOutcomeService(be.Store, outcomeSubmitter, logger),
		Incomes:  services.NewIncomeService(be.Store, incomeSubmitter, logger),
		Reports:  report.NewService(be.Store, be.Store),
		Lookup:   lookupCache,
		Ready:    be.Ping,
		Config:   cfg,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err.Error())
		os.Exit(1)
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting moneygr server", "port", cfg.Port, "backend", cfg.DataBackend)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err.Error())
	}
	if err := outcomeSubmitter.Wait(shutdownCtx); err != nil {
		logger.Warn("Pending outcome submissions abandoned", log.FieldError, err.Error())
	}
	if err := incomeSubmitter.Wait(shutdownCtx); err != nil {
		logger.Warn("Pending income submissions abandoned", log.FieldError, err.Error())
	}
	m := srv.Metrics()
	logger.Info("Server stopped gracefully", "requests", m.TotalRequests, "server_errors", m.ServerErrors)
}
