// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edupay/internal/config"
	"edupay/internal/domain/ports/adapter"
	"edupay/internal/infra/analytics"
	"edupay/internal/infra/converter"
	pg "edupay/internal/infra/db/postgres"
	"edupay/internal/infra/download"
	httpapi "edupay/internal/infra/http"
	"edupay/internal/infra/invoicing"
	"edupay/internal/infra/logging"
	"edupay/internal/infra/mailer"
	"edupay/internal/infra/metrics"
	red "edupay/internal/infra/redis"
	"edupay/internal/infra/sched"
	"edupay/internal/infra/worker"
	"edupay/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop outbound adapters)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()

	// ---- Repositories ----
	txManager := pg.NewTxManager(pool)
	txRepo := pg.NewTransactionRepo(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient)
	couponRepo := pg.NewCouponRepo(pool)
	productRepo := pg.NewProductRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	bookRepo := pg.NewBookPurchaseRepo(pool)
	legacyRepo := pg.NewLegacyFulfillmentRepo(pool)

	// ---- Outbound adapters ----
	linker := download.NewLinker(cfg.Server.BaseURL, cfg.Storage)
	converterClient := converter.NewClient(cfg.Converter)
	invoicingClient := invoicing.NewClient(cfg.Invoicing)

	var mail adapter.Mailer = mailer.NewSMTPMailer(cfg.Mail)
	var events adapter.AnalyticsClient = analytics.NewClient(cfg.Analytics, logger)
	if cfg.Runtime.Dev {
		mail = mailer.NoopMailer{}
		events = analytics.Noop{}
	}

	// ---- Background workers ----
	pool4 := worker.NewPool(4, logger)
	pool4.Start(ctx)
	defer pool4.Stop()

	// ---- Use cases ----
	pricingUC := usecase.NewPricingUseCase(couponRepo, logger)
	bookUC := usecase.NewBookFulfillmentUseCase(bookRepo, linker, converterClient, pool4, logger)
	checkoutUC := usecase.NewCheckoutUseCase(txRepo, planRepo, bookRepo, pricingUC, events, cfg.Gateway, pool4, logger)
	legacyUC := usecase.NewLegacyCallbackUseCase(legacyRepo, planRepo, productRepo, bookUC, mail, cfg.Gateway.Secret, pool4, logger)
	fulfillmentUC := usecase.NewFulfillmentUseCase(
		txRepo, productRepo, subRepo, couponRepo,
		bookUC, pricingUC, invoicingClient, mail, legacyUC,
		cfg.Gateway.Secret, pool4, logger,
	)

	// ---- Reaper ----
	reaper := sched.NewCheckoutReaper(txManager, txRepo, cfg.Reaper.Interval, cfg.Reaper.StaleAfter, logger)
	go reaper.Start(ctx)

	// ---- HTTP ----
	srv := httpapi.NewServer(cfg, checkoutUC, fulfillmentUC, linker, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
}
