package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"ai-trading-bot/internal/auth"
	"ai-trading-bot/internal/interfaces"
	"ai-trading-bot/internal/logger"
	"ai-trading-bot/internal/trace"
)

func main() {
	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer func() {
		_ = trace.Shutdown(context.Background())
		_ = logger.Shutdown(context.Background())
	}()

	cfg, err := loadConfig(ctx)
	if err != nil {
		os.Exit(1)
	}

	compressOldLogs(ctx)

	ex := initializeExchange(ctx, cfg)

	scaler, predictor, closeModel, err := initializeModel(ctx, cfg)
	if err != nil {
		os.Exit(1)
	}
	defer closeModel()

	eng, err := initializeEngine(ctx, cfg, ex, scaler, predictor)
	if err != nil {
		os.Exit(1)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	quit := watchForQuit()

	// A full window spans interval*sequenceLength seconds, so that is the
	// natural cadence between steps.
	cadence := time.Duration(cfg.IntervalSeconds*cfg.SequenceLength) * time.Second

	logger.Info(ctx, "Bot started", "cadence", cadence.String())
	fmt.Println("Enter 'q' to quit")

	for {
		// The step always runs to completion: an in-flight order submission
		// finishes or definitively fails before a quit is honored.
		step(ctx, eng)

		select {
		case <-quit:
			logger.Info(ctx, "Quit requested, exiting")
			return
		case s := <-sigc:
			logger.Info(ctx, "Signal received, shutting down", "signal", s.String())
			return
		case <-time.After(cadence):
		}
	}
}

// step invokes one engine traversal, reporting its outcome. No step-level
// fault crashes the run loop; every error is reported and the loop proceeds
// to its next scheduled invocation.
func step(ctx context.Context, eng interfaces.Engine) {
	logger.Info(ctx, "Executing run sequence", "at", time.Now().Format(time.Kitchen))

	result, err := eng.Step(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrCredentialMissing) {
			logger.Error(ctx, "Credentials missing - operator intervention required", "error", err)
		} else {
			logger.ErrorWithErr(ctx, "Step failed", err)
		}
		if result == nil {
			return
		}
	}
	if result != nil {
		b, _ := json.Marshal(result)
		fmt.Println(string(b))
	}
}

// watchForQuit reads stdin lines and signals when the operator asks to quit.
func watchForQuit() <-chan struct{} {
	quit := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if strings.EqualFold(line, "q") {
				close(quit)
				return
			}
		}
	}()
	return quit
}
