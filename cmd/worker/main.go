package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/treadline/treadline/internal/app"
	"github.com/treadline/treadline/internal/customers"
	"github.com/treadline/treadline/internal/invoices"
	"github.com/treadline/treadline/internal/platform/cache"
	"github.com/treadline/treadline/internal/platform/db"
	"github.com/treadline/treadline/internal/pricing"
	"github.com/treadline/treadline/internal/quotations"
	"github.com/treadline/treadline/jobs"
	"github.com/treadline/treadline/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

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

	policy := pricing.NewRatePolicy(cfg.DefaultGSTRate, cfg.DefaultPSTRate)

	customerRepo := customers.NewRepository(pool)
	invoiceRepo := invoices.NewRepository(pool)
	invoiceService := invoices.NewService(invoiceRepo, customerRepo, policy, logger)
	quotationRepo := quotations.NewRepository(pool)
	quotationService := quotations.NewService(quotationRepo, customerRepo, invoiceService, policy, logger)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, pdf store disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

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

	mailer := jobs.NewSMTPMailer(fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort), cfg.SMTPFrom)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeInvoiceRender, Handler: jobs.HandleInvoiceRender(reportService, logger)},
			{Type: jobs.TaskTypeInvoiceEmail, Handler: jobs.HandleInvoiceEmail(reportService, mailer, logger)},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
