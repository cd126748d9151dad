package interfaces

import (
	"context"

	"ai-trading-bot/internal/types"
)

// Exchange is the REST surface of the exchange the bot trades on.
type Exchange interface {
	GetPriceAt(ctx context.Context, productID string, unixTime int64) (types.PricePoint, error)
	GetAccounts(ctx context.Context, token string) ([]types.Account, error)
	SubmitLimitOrder(ctx context.Context, token string, req types.OrderReq) (*types.OrderReceipt, error)
}
