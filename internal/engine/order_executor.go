package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"ai-trading-bot/internal/interfaces"
	"ai-trading-bot/internal/logger"
	"ai-trading-bot/internal/tradelog"
	"ai-trading-bot/internal/types"
	"ai-trading-bot/internal/wallet"
)

const (
	ordersMethod = "POST"
	ordersPath   = "/api/v3/brokerage/orders"
)

// orderExecutor handles order submission and trade logging. Order tokens are
// scoped to the orders endpoint; the wallet's accounts token cannot be reused
// here under strict exchange verification.
type orderExecutor struct {
	ex     interfaces.Exchange
	tokens wallet.TokenSource
	dryRun bool
}

func newOrderExecutor(ex interfaces.Exchange, tokens wallet.TokenSource, dryRun bool) *orderExecutor {
	return &orderExecutor{ex: ex, tokens: tokens, dryRun: dryRun}
}

// place submits the order, logging the execution. In DRY_RUN mode the order
// is simulated and never reaches the exchange.
func (oe *orderExecutor) place(ctx context.Context, req types.OrderReq) (*types.OrderReceipt, error) {
	if oe.dryRun {
		logger.Info(ctx, "DRY_RUN: order simulated, not submitted",
			"product_id", req.ProductID,
			"side", string(req.Side),
			"base_size", req.BaseSize.String(),
			"limit_price", req.LimitPrice.String(),
		)
		return &types.OrderReceipt{Status: "SIMULATED"}, nil
	}

	tok, err := oe.tokens.Token(ordersMethod, ordersPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to obtain order token", err, "product_id", req.ProductID)
		return nil, err
	}

	receipt, err := oe.ex.SubmitLimitOrder(ctx, tok.Raw, req)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to submit order", err,
			"product_id", req.ProductID,
			"side", string(req.Side),
			"base_size", req.BaseSize.String(),
			"limit_price", req.LimitPrice.String(),
		)
		return nil, err
	}

	logger.Trade(ctx, req.ProductID, string(req.Side), req.BaseSize.String(), req.LimitPrice.String(), receipt.OrderID)
	_ = tradelog.Append(tradelog.Entry{
		ProductID:     req.ProductID,
		Side:          string(req.Side),
		BaseSize:      req.BaseSize.String(),
		LimitPrice:    req.LimitPrice.String(),
		OrderID:       receipt.OrderID,
		ClientOrderID: receipt.ClientOrderID,
	})

	return receipt, nil
}

// logDecision appends the decision to the decision log, traded or not.
func (oe *orderExecutor) logDecision(productID string, d types.Decision, current, predicted decimal.Decimal) {
	_ = tradelog.AppendDecision(tradelog.DecisionEntry{
		ProductID:      productID,
		Action:         string(d.Action),
		PercentDiff:    d.PercentDiff.String(),
		KellyFraction:  d.KellyFraction,
		CurrentPrice:   current.String(),
		PredictedPrice: predicted.String(),
	})
}
