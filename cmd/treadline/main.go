package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/treadline/treadline/internal/app"
	"github.com/treadline/treadline/internal/bookings"
	"github.com/treadline/treadline/internal/catalog"
	"github.com/treadline/treadline/internal/customers"
	"github.com/treadline/treadline/internal/invoices"
	"github.com/treadline/treadline/internal/observability"
	"github.com/treadline/treadline/internal/platform/cache"
	"github.com/treadline/treadline/internal/platform/db"
	"github.com/treadline/treadline/internal/pricing"
	"github.com/treadline/treadline/internal/quotations"
	"github.com/treadline/treadline/jobs"
	"github.com/treadline/treadline/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, catalog cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	policy := pricing.NewRatePolicy(cfg.DefaultGSTRate, cfg.DefaultPSTRate)

	customerRepo := customers.NewRepository(pool)
	customerService := customers.NewService(customerRepo)

	var catalogCache *cache.JSONCache
	if redisClient != nil {
		catalogCache = cache.NewJSONCache(redisClient, "catalog", cfg.CatalogCacheTTL)
	}
	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo, catalogCache, logger)

	invoiceRepo := invoices.NewRepository(pool)
	invoiceService := invoices.NewService(invoiceRepo, customerRepo, policy, logger)

	quotationRepo := quotations.NewRepository(pool)
	quotationService := quotations.NewService(quotationRepo, customerRepo, invoiceService, policy, logger)

	bookingRepo := bookings.NewRepository(pool)
	bookingService := bookings.NewService(bookingRepo, customerRepo, catalogRepo, invoiceService, logger)

	pdfClient := report.NewClient(cfg.GotenbergURL)
	renderer, err := report.NewRenderer()
	if err != nil {
		logger.Error("init renderer", slog.Any("error", err))
		os.Exit(1)
	}
	var pdfStore *cache.JSONCache
	if redisClient != nil {
		pdfStore = cache.NewJSONCache(redisClient, "pdf", cfg.PDFCacheTTL)
	}
	reportService := report.NewService(pdfClient, renderer, invoiceService, quotationService, customerRepo, pdfStore, logger)

	var jobHandler *jobs.Handler
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("job queue unavailable", slog.Any("error", err))
	} else {
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		invoiceService.SetDispatcher(app.NewJobDispatcher(jobClient, logger))
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Pool:              pool,
		Metrics:           metrics,
		CustomersHandler:  customers.NewHandler(logger, customerService),
		CatalogHandler:    catalog.NewHandler(logger, catalogService),
		BookingsHandler:   bookings.NewHandler(bookingService),
		InvoicesHandler:   invoices.NewHandler(invoiceService),
		QuotationsHandler: quotations.NewHandler(quotationService),
		ReportHandler:     report.NewHandler(reportService),
		JobHandler:        jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
