package history

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"ai-trading-bot/internal/exchange"
	"ai-trading-bot/internal/interfaces"
	"ai-trading-bot/internal/logger"
	"ai-trading-bot/internal/pricelog"
)

// rateLimitBackoff is how long to wait before retrying a 429'd lookup.
const rateLimitBackoff = 3 * time.Second

// Collector builds fixed-length, evenly spaced price windows through repeated
// point lookups, absorbing thin spots in trade history and exchange rate
// limits along the way.
type Collector struct {
	ex       interfaces.Exchange
	priceLog *pricelog.Logger

	backoff time.Duration
	now     func() time.Time
}

func NewCollector(ex interfaces.Exchange, priceLog *pricelog.Logger) *Collector {
	return &Collector{
		ex:       ex,
		priceLog: priceLog,
		backoff:  rateLimitBackoff,
		now:      time.Now,
	}
}

// Collect returns exactly sequenceLength prices, most recent first, stepping
// the cursor back by interval per collected point. A slot with no trades
// shifts the cursor back one second and retries the same slot; a rate limit
// sleeps and retries the same request without moving the cursor. Every
// collected price is appended to the price log with its UTC slot time.
func (c *Collector) Collect(ctx context.Context, productID string, sequenceLength int, interval time.Duration) ([]decimal.Decimal, error) {
	if sequenceLength <= 0 {
		return nil, errors.Errorf("history: sequence length must be positive, got %d", sequenceLength)
	}

	window := make([]decimal.Decimal, 0, sequenceLength)
	cursor := c.now().Unix()
	step := int64(interval / time.Second)

	for len(window) < sequenceLength {
		pt, err := c.ex.GetPriceAt(ctx, productID, cursor)
		switch {
		case err == nil:
			window = append(window, pt.Price)
			if c.priceLog != nil {
				if lerr := c.priceLog.Append(pt.Price, time.Unix(cursor, 0).UTC()); lerr != nil {
					logger.Warn(ctx, "Failed to append to price log", "error", lerr)
				}
			}
			cursor -= step

		case errors.Is(err, exchange.ErrNoTrades):
			// No trade at this instant; shift one second and retry the
			// same slot. Does not count against the sequence length.
			cursor--

		case errors.Is(err, exchange.ErrRateLimited):
			logger.Warn(ctx, "Rate limited fetching price, backing off",
				"product_id", productID,
				"backoff", c.backoff.String(),
			)
			if serr := sleepCtx(ctx, c.backoff); serr != nil {
				return nil, serr
			}

		default:
			return nil, err
		}
	}

	return window, nil
}

// sleepCtx blocks for d but returns early with the context error when the
// caller cancels.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
