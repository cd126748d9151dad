package exchangeobs

import (
	"context"

	"ai-trading-bot/internal/interfaces"
	"ai-trading-bot/internal/logger"
	"ai-trading-bot/internal/trace"
	"ai-trading-bot/internal/types"
)

// observableExchange wraps an Exchange with observability (logging & tracing)
type observableExchange struct {
	ex interfaces.Exchange
}

// Compile-time interface check
var _ interfaces.Exchange = (*observableExchange)(nil)

// Wrap wraps an exchange client with observability middleware
func Wrap(ex interfaces.Exchange) interfaces.Exchange {
	return &observableExchange{ex: ex}
}

// GetPriceAt fetches a point price with observability
func (oe *observableExchange) GetPriceAt(ctx context.Context, productID string, unixTime int64) (types.PricePoint, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.GetPriceAt")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching price", "product_id", productID, "unix_time", unixTime)

	pt, err := oe.ex.GetPriceAt(ctx, productID, unixTime)
	if err != nil {
		// Recoverable lookups (no trades, rate limits) are routine; the
		// collector logs them at the retry site.
		logger.DebugSkip(ctx, 1, "Price fetch failed", "product_id", productID, "unix_time", unixTime, "error", err)
		return types.PricePoint{}, err
	}

	logger.DebugSkip(ctx, 1, "Price fetched successfully", "product_id", productID, "price", pt.Price.String())
	return pt, nil
}

// GetAccounts lists accounts with observability
func (oe *observableExchange) GetAccounts(ctx context.Context, token string) ([]types.Account, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.GetAccounts")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching accounts")

	accounts, err := oe.ex.GetAccounts(ctx, token)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch accounts", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Accounts fetched successfully", "count", len(accounts))
	return accounts, nil
}

// SubmitLimitOrder submits an order with observability
func (oe *observableExchange) SubmitLimitOrder(ctx context.Context, token string, req types.OrderReq) (*types.OrderReceipt, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.SubmitLimitOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Submitting limit order",
		"product_id", req.ProductID,
		"side", string(req.Side),
		"base_size", req.BaseSize.String(),
		"limit_price", req.LimitPrice.String(),
	)

	receipt, err := oe.ex.SubmitLimitOrder(ctx, token, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to submit order", err,
			"product_id", req.ProductID,
			"side", string(req.Side),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Order submitted successfully",
		"product_id", req.ProductID,
		"order_id", receipt.OrderID,
		"client_order_id", receipt.ClientOrderID,
		"status", receipt.Status,
	)
	return receipt, nil
}
