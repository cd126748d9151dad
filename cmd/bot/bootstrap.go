package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"ai-trading-bot/internal/auth"
	"ai-trading-bot/internal/engine"
	"ai-trading-bot/internal/engine/engineobs"
	"ai-trading-bot/internal/exchange"
	"ai-trading-bot/internal/exchange/exchangeobs"
	"ai-trading-bot/internal/history"
	"ai-trading-bot/internal/interfaces"
	"ai-trading-bot/internal/logger"
	"ai-trading-bot/internal/model"
	"ai-trading-bot/internal/pricelog"
	"ai-trading-bot/internal/store"
	"ai-trading-bot/internal/trace"
	"ai-trading-bot/internal/tradelog"
	"ai-trading-bot/internal/wallet"
)

// initializeSystem initializes the logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("TRADER_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	logger.Info(ctx, "Configuration loaded",
		"product_id", cfg.ProductID(),
		"mode", cfg.Mode,
		"sequence_length", cfg.SequenceLength,
		"interval_seconds", cfg.IntervalSeconds,
		"risk_tolerance", cfg.RiskTolerance,
		"limit_offset", cfg.LimitOffset.String(),
		"trade_percentage_threshold", cfg.TradePercentageThreshold.String(),
	)
	return cfg, nil
}

// compressOldLogs compresses old tradelog files if retention is configured
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// initializeExchange builds the exchange client with observability middleware
func initializeExchange(ctx context.Context, cfg *store.Config) interfaces.Exchange {
	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	}
	client := exchange.NewClient(cfg.RequestHost)
	return exchangeobs.Wrap(client)
}

// initializeModel fits the scaler from training data and loads the predictor
func initializeModel(ctx context.Context, cfg *store.Config) (*model.Scaler, interfaces.Predictor, func(), error) {
	scaler, err := model.FitFromCSV(cfg.Model.TrainingDataPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fit scaler", err, "path", cfg.Model.TrainingDataPath)
		return nil, nil, nil, err
	}
	min, max := scaler.Bounds()
	logger.Info(ctx, "Scaler fitted", "min", min.String(), "max", max.String())

	predictor, err := model.NewONNXPredictor(cfg.Model.Path, cfg.SequenceLength)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load model", err, "path", cfg.Model.Path)
		return nil, nil, nil, err
	}
	logger.Info(ctx, "Model loaded", "path", filepath.Base(cfg.Model.Path))

	return scaler, predictor, predictor.Close, nil
}

// initializeEngine wires the trading engine and its collaborators
func initializeEngine(ctx context.Context, cfg *store.Config, ex interfaces.Exchange, scaler *model.Scaler, predictor interfaces.Predictor) (interfaces.Engine, error) {
	// Price and prediction logs are cleared at startup and appended to for
	// the rest of the run; they feed later model retraining.
	priceLog, err := pricelog.New(cfg.Logs.PriceLogPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open price log", err, "path", cfg.Logs.PriceLogPath)
		return nil, err
	}
	predLog, err := pricelog.New(cfg.Logs.PredictionLogPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open prediction log", err, "path", cfg.Logs.PredictionLogPath)
		return nil, err
	}

	tokens := auth.NewManager(cfg.EnvFilePath, cfg.RequestHost)
	collector := history.NewCollector(ex, priceLog)
	wlt := wallet.New(tokens, ex)

	return engineobs.Wrap(engine.New(cfg, collector, predictor, scaler, wlt, ex, tokens, predLog)), nil
}
