package engineobs

import (
	"context"
	"time"

	"ai-trading-bot/internal/interfaces"
	"ai-trading-bot/internal/logger"
	"ai-trading-bot/internal/trace"
	"ai-trading-bot/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Step(ctx context.Context) (*types.StepResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Step")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting trading step")

	result, err := oe.engine.Step(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Trading step failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return result, err
	}

	logger.InfoSkip(ctx, 1, "Trading step completed",
		"product_id", result.ProductID,
		"action", string(result.Decision.Action),
		"percent_diff", result.Decision.PercentDiff.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}
