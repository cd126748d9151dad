package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ai-trading-bot/internal/history"
	"ai-trading-bot/internal/interfaces"
	"ai-trading-bot/internal/logger"
	"ai-trading-bot/internal/model"
	"ai-trading-bot/internal/pricelog"
	"ai-trading-bot/internal/sizing"
	"ai-trading-bot/internal/store"
	"ai-trading-bot/internal/types"
	"ai-trading-bot/internal/wallet"
)

// phase names the stages of one decision step. The step is fully sequential:
// each phase's output is the next phase's input.
type phase string

const (
	phaseCollecting phase = "collecting_history"
	phasePredicting phase = "predicting"
	phaseSizing     phase = "sizing"
	phaseDeciding   phase = "deciding"
	phaseBuying     phase = "buying"
	phaseSelling    phase = "selling"
	phaseHolding    phase = "holding"
)

// tradeFraction is the share of the wallet spent or sold on a single decision.
var tradeFraction = decimal.RequireFromString("0.2")

// minLimitPrice is the floor for buy limit prices after the offset is applied.
var minLimitPrice = decimal.RequireFromString("0.01")

type engine struct {
	cfg       *store.Config
	collector *history.Collector
	predictor interfaces.Predictor
	scaler    *model.Scaler
	wlt       *wallet.Wallet
	executor  *orderExecutor
	predLog   *pricelog.Logger
}

func newEngine(
	cfg *store.Config,
	collector *history.Collector,
	predictor interfaces.Predictor,
	scaler *model.Scaler,
	wlt *wallet.Wallet,
	ex interfaces.Exchange,
	tokens wallet.TokenSource,
	predLog *pricelog.Logger,
) *engine {
	return &engine{
		cfg:       cfg,
		collector: collector,
		predictor: predictor,
		scaler:    scaler,
		wlt:       wlt,
		executor:  newOrderExecutor(ex, tokens, cfg.Mode == "DRY_RUN"),
		predLog:   predLog,
	}
}

// Step runs one full traversal of the decision state machine: collect a price
// window, predict, size, decide, and conditionally submit an order. Any error
// aborts the step; the run loop retries on its next scheduled cadence, never
// immediately.
func (e *engine) Step(ctx context.Context) (*types.StepResult, error) {
	productID := e.cfg.ProductID()
	logger.Debug(ctx, "Starting trading step", "product_id", productID, "phase", string(phaseCollecting))

	// Collect the price history window, most recent first.
	window, err := e.collector.Collect(
		ctx,
		productID,
		e.cfg.SequenceLength,
		time.Duration(e.cfg.IntervalSeconds)*time.Second,
	)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to collect price history", err, "product_id", productID)
		return nil, err
	}
	currentPrice := window[0]
	logger.Debug(ctx, "Price window collected",
		"product_id", productID,
		"window_len", len(window),
		"current_price", currentPrice.String(),
	)

	// Predict the next price through the scaled model boundary.
	logger.Debug(ctx, "Predicting", "product_id", productID, "phase", string(phasePredicting))
	scaled := e.scaler.Transform(window)
	rawPrediction, err := e.predictor.Predict(model.DecimalsToFloat32s(scaled))
	if err != nil {
		logger.ErrorWithErr(ctx, "Prediction failed", err, "product_id", productID)
		return nil, err
	}
	predictedPrice := e.scaler.Detransform(model.Float32ToDecimal(rawPrediction))
	e.logPrediction(ctx, predictedPrice)
	logger.Info(ctx, "Price predicted",
		"product_id", productID,
		"current_price", currentPrice.String(),
		"predicted_price", predictedPrice.StringFixed(2),
	)

	// Fetch balances and compute the trading signal. A missing credential
	// surfaces here, before any order can be attempted.
	logger.Debug(ctx, "Sizing", "product_id", productID, "phase", string(phaseSizing))
	usdAccount, err := e.wlt.USDAccount(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch USD account", err)
		return nil, err
	}
	assetBalance, err := e.wlt.AssetBalance(ctx, e.cfg.Symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch asset balance", err, "symbol", e.cfg.Symbol)
		return nil, err
	}
	usdBalance := usdAccount.Available.Amount

	percentDiff := predictedPrice.Sub(currentPrice).Div(currentPrice)
	currentF, _ := currentPrice.Float64()
	predictedF, _ := predictedPrice.Float64()
	kellyFraction := sizing.Fraction(currentF, predictedF, e.cfg.RiskTolerance)

	logger.Debug(ctx, "Signal computed",
		"product_id", productID,
		"percent_diff", percentDiff.String(),
		"kelly_fraction", kellyFraction,
		"usd_balance", usdBalance.String(),
		"asset_balance", assetBalance.String(),
	)

	// Decide.
	decision := e.decide(currentPrice, predictedPrice, percentDiff, kellyFraction, usdBalance, assetBalance)
	logger.Decision(ctx, productID, string(decision.Action), percentDiff.String(), kellyFraction)
	e.executor.logDecision(productID, decision, currentPrice, predictedPrice)

	result := &types.StepResult{
		ProductID:      productID,
		Decision:       decision,
		CurrentPrice:   currentPrice,
		PredictedPrice: predictedPrice,
		Time:           time.Now().Unix(),
	}

	// Execute.
	switch decision.Action {
	case types.ActionBuy:
		logger.Info(ctx, "Placing buy order",
			"product_id", productID,
			"phase", string(phaseBuying),
			"base_size", decision.Size.String(),
			"limit_price", decision.LimitPrice.String(),
		)
		receipt, err := e.executor.place(ctx, types.OrderReq{
			ProductID:  productID,
			Side:       types.Buy,
			BaseSize:   decision.Size,
			LimitPrice: decision.LimitPrice,
		})
		if err != nil {
			return result, err
		}
		result.Receipt = receipt

	case types.ActionSell:
		logger.Info(ctx, "Placing sell order",
			"product_id", productID,
			"phase", string(phaseSelling),
			"base_size", decision.Size.String(),
			"limit_price", decision.LimitPrice.String(),
		)
		receipt, err := e.executor.place(ctx, types.OrderReq{
			ProductID:  productID,
			Side:       types.Sell,
			BaseSize:   decision.Size,
			LimitPrice: decision.LimitPrice,
		})
		if err != nil {
			return result, err
		}
		result.Receipt = receipt

	case types.ActionHold:
		logger.Info(ctx, "Holding, no trade",
			"product_id", productID,
			"phase", string(phaseHolding),
			"percent_diff", percentDiff.String(),
		)
	}

	logger.Debug(ctx, "Trading step completed", "product_id", productID, "action", string(decision.Action))
	return result, nil
}

// decide turns the signal into an action with a size and limit price. The
// decision boundary is inclusive: a percent diff exactly at the threshold
// trades.
func (e *engine) decide(
	currentPrice, predictedPrice, percentDiff decimal.Decimal,
	kellyFraction float64,
	usdBalance, assetBalance decimal.Decimal,
) types.Decision {
	threshold := e.cfg.TradePercentageThreshold.Decimal
	offset := e.cfg.LimitOffset.Decimal

	d := types.Decision{
		Action:        types.ActionHold,
		PercentDiff:   percentDiff,
		KellyFraction: kellyFraction,
	}

	switch {
	case percentDiff.GreaterThanOrEqual(threshold):
		// Buy with a fixed fraction of the USD wallet, placed slightly
		// below market so the order rests as a maker.
		usdToSpend := usdBalance.Mul(tradeFraction)
		d.Action = types.ActionBuy
		d.Size = usdToSpend.Div(currentPrice)
		d.LimitPrice = decimal.Max(minLimitPrice, currentPrice.Sub(offset))

	case percentDiff.LessThanOrEqual(threshold.Neg()):
		// Sell a fixed fraction of the asset wallet, slightly above market.
		d.Action = types.ActionSell
		d.Size = assetBalance.Mul(tradeFraction)
		d.LimitPrice = currentPrice.Add(offset)
	}

	return d
}

// logPrediction appends the de-normalized prediction to the prediction log,
// stamped with the time the prediction corresponds to.
func (e *engine) logPrediction(ctx context.Context, predicted decimal.Decimal) {
	if e.predLog == nil {
		return
	}
	horizon := time.Duration(e.cfg.IntervalSeconds*e.cfg.PredictionInterval) * time.Second
	if err := e.predLog.Append(predicted, time.Now().Add(horizon)); err != nil {
		logger.Warn(ctx, "Failed to append to prediction log", "error", err)
	}
}
