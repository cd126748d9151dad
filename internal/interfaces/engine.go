package interfaces

import (
	"context"

	"ai-trading-bot/internal/types"
)

type Engine interface {
	Step(ctx context.Context) (*types.StepResult, error)
}
