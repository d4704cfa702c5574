package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"funding-arb-bot/catalog"
	"funding-arb-bot/config"
	"funding-arb-bot/execution"
	"funding-arb-bot/marketdata"
	"funding-arb-bot/metrics"
	"funding-arb-bot/notification"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file, relying on environment variables")
	}

	cfgPath := os.Getenv("CONFIG_FILE")
	if cfgPath == "" {
		cfgPath = "config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	logger.Info("starting funding arbitrage bot",
		zap.String("api_url", cfg.APIURL),
		zap.Float64("min_funding_rate", cfg.MinFundingRate),
		zap.Float64("notional_usd", cfg.NotionalUSD),
		zap.Float64("max_slippage", cfg.MaxSlippage),
		zap.Int("poll_seconds", cfg.PollSeconds))

	signer, err := execution.NewPrivateKeySigner(cfg.PrivateKeyHex)
	if err != nil {
		logger.Fatal("invalid private key", zap.Error(err))
	}
	logger.Info("trading account", zap.String("address", signer.Address()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// No catalog means nothing can be traded; this failure is fatal.
	infoClient := catalog.NewInfoClient(cfg.APIURL, cfg.HTTPTimeout())
	cat, err := catalog.Build(ctx, infoClient, logger)
	if err != nil {
		logger.Fatal("catalog build failed", zap.Error(err))
	}

	met := metrics.New()
	health := metrics.NewHealth()

	var notifier notification.Notifier = notification.NewLogNotifier(logger)
	if cfg.AlertWebhookURL != "" {
		notifier = notification.NewWebhookNotifier(cfg.AlertWebhookURL)
	}

	feed := marketdata.NewFeed(marketdata.FeedConfig{
		BaseURL:        cfg.APIURL,
		Timeout:        cfg.HTTPTimeout(),
		PeriodsPerYear: cfg.FundingPeriodsPerYear,
	}, logger)

	ledger := execution.NewLedger()
	engine := execution.NewEngine(execution.Config{
		BaseURL:     cfg.APIURL,
		NotionalUSD: cfg.NotionalUSD,
		MaxSlippage: cfg.MaxSlippage,
		Timeout:     cfg.HTTPTimeout(),
	}, signer, ledger, logger, notifier, met)

	if cfg.EnableMidsWatcher {
		watcher := marketdata.NewMidsWatcher(marketdata.WatcherConfig{
			WSURL: cfg.WSURL,
		}, cat, logger)
		go watcher.Run(ctx)
	}

	var metricsSrv *metrics.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = metrics.NewServer(cfg.MetricsAddr, met, health, logger)
		metricsSrv.Start()
	}

	b := &bot{
		cat:            cat,
		feed:           feed,
		engine:         engine,
		ledger:         ledger,
		met:            met,
		health:         health,
		logger:         logger,
		minFundingRate: cfg.MinFundingRate,
		interval:       cfg.PollInterval(),
	}

	b.run(ctx)

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		metricsSrv.Stop(shutdownCtx)
		cancel()
	}

	logger.Info("shutdown complete")
}
