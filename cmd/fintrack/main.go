package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/middleware/security"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig((*config.Config).Validate)

	logger.Info("Starting fintrack server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend)

	backend := cli.InitBackend(context.Background(), logger, cfg)

	detector, err := security.NewDetector(cfg.TrustedProxies...)
	if err != nil {
		logger.Error("Invalid TRUSTED_PROXIES", log.FieldError, err)
		os.Exit(1)
	}

	summaries := services.NewSummaryService(backend.Store, time.Now)
	transactions := services.NewTransactionService(backend.Store, backend.Publisher)
	caches := cache.NewManager()
	if cfg.SummaryCacheTTL > 0 {
		summaryCache := cache.NewLRUCache[core.Summary](1000, cfg.SummaryCacheTTL)
		summaries.WithCache(summaryCache)
		transactions.WithSummaryInvalidator(summaries)
		caches.Register(summaryCache)
		caches.StartCleanup(5 * time.Minute)
		logger.Info("Dashboard summary cache enabled", "ttl", cfg.SummaryCacheTTL)
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	srv := apphttp.NewServer(apphttp.Deps{
		Accounts:     services.NewAccountService(backend.Store, tokens),
		Transactions: transactions,
		Summaries:    summaries,
		Tokens:       tokens,
		Store:        backend.Store,
	}, apphttp.Options{
		Addr:               ":" + cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AuthRateLimit:      cfg.AuthRateLimit,
		Detector:           detector,
		Logger:             logger,
	})
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if err := backend.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
		m := srv.GetMetrics()
		logger.Info("Server stopped",
			log.FieldOperation, log.OpShutdown,
			"requests", m.Requests.TotalRequests,
			"server_errors", m.Requests.ServerErrors,
			"rate_limited", m.RateLimit.TotalHits)
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
