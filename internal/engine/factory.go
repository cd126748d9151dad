package engine

import (
	"ai-trading-bot/internal/history"
	"ai-trading-bot/internal/interfaces"
	"ai-trading-bot/internal/model"
	"ai-trading-bot/internal/pricelog"
	"ai-trading-bot/internal/store"
	"ai-trading-bot/internal/wallet"
)

func New(
	cfg *store.Config,
	collector *history.Collector,
	predictor interfaces.Predictor,
	scaler *model.Scaler,
	wlt *wallet.Wallet,
	ex interfaces.Exchange,
	tokens wallet.TokenSource,
	predLog *pricelog.Logger,
) interfaces.Engine {
	return newEngine(cfg, collector, predictor, scaler, wlt, ex, tokens, predLog)
}
