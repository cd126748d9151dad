package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"ai-trading-bot/internal/exchange"
	"ai-trading-bot/internal/types"
)

// scriptedExchange replays a canned response per requested timestamp and
// records the order of lookups.
type scriptedExchange struct {
	prices   map[int64]string
	failures map[int64][]error
	requests []int64
}

func (s *scriptedExchange) GetPriceAt(ctx context.Context, productID string, unixTime int64) (types.PricePoint, error) {
	s.requests = append(s.requests, unixTime)
	if errs := s.failures[unixTime]; len(errs) > 0 {
		err := errs[0]
		s.failures[unixTime] = errs[1:]
		return types.PricePoint{}, err
	}
	p, ok := s.prices[unixTime]
	if !ok {
		return types.PricePoint{}, exchange.ErrNoTrades
	}
	return types.PricePoint{Ts: unixTime, Price: decimal.RequireFromString(p)}, nil
}

func (s *scriptedExchange) GetAccounts(ctx context.Context, token string) ([]types.Account, error) {
	return nil, exchange.ErrNoAccounts
}

func (s *scriptedExchange) SubmitLimitOrder(ctx context.Context, token string, req types.OrderReq) (*types.OrderReceipt, error) {
	return nil, errors.New("not implemented")
}

func newTestCollector(ex *scriptedExchange, at int64) *Collector {
	c := NewCollector(ex, nil)
	c.backoff = time.Millisecond
	c.now = func() time.Time { return time.Unix(at, 0) }
	return c
}

func TestCollectBuildsWindowMostRecentFirst(t *testing.T) {
	const start = 1_000_000
	ex := &scriptedExchange{prices: map[int64]string{}}
	for i := int64(0); i < 5; i++ {
		ex.prices[start-i*15] = fmt.Sprintf("%d", 3000+i)
	}

	window, err := newTestCollector(ex, start).Collect(context.Background(), "ETH-USD", 5, 15*time.Second)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(window) != 5 {
		t.Fatalf("Window length %d, want 5", len(window))
	}
	for i := 0; i < 5; i++ {
		want := decimal.NewFromInt(int64(3000 + i))
		if !window[i].Equal(want) {
			t.Errorf("window[%d] = %s, want %s (most recent first)", i, window[i], want)
		}
	}
}

func TestCollectShiftsOneSecondOnNoTrades(t *testing.T) {
	const start = 1_000_000
	// Nothing at the exact cursor; a trade exists two seconds earlier.
	ex := &scriptedExchange{prices: map[int64]string{
		start - 2: "3000",
	}}

	window, err := newTestCollector(ex, start).Collect(context.Background(), "ETH-USD", 1, 15*time.Second)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(window) != 1 || !window[0].Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("Unexpected window %v", window)
	}

	want := []int64{start, start - 1, start - 2}
	if len(ex.requests) != len(want) {
		t.Fatalf("Requests %v, want %v", ex.requests, want)
	}
	for i, ts := range want {
		if ex.requests[i] != ts {
			t.Errorf("Request %d at %d, want %d (one-second shifts)", i, ex.requests[i], ts)
		}
	}
}

func TestCollectRetriesSameSlotAfterRateLimit(t *testing.T) {
	const start = 1_000_000
	ex := &scriptedExchange{
		prices:   map[int64]string{start: "3000"},
		failures: map[int64][]error{start: {exchange.ErrRateLimited, exchange.ErrRateLimited}},
	}

	window, err := newTestCollector(ex, start).Collect(context.Background(), "ETH-USD", 1, 15*time.Second)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(window) != 1 {
		t.Fatalf("Window length %d, want 1", len(window))
	}

	// All three lookups hit the same timestamp; the cursor never moved.
	if len(ex.requests) != 3 {
		t.Fatalf("Got %d requests, want 3", len(ex.requests))
	}
	for i, ts := range ex.requests {
		if ts != start {
			t.Errorf("Request %d at %d, want %d", i, ts, start)
		}
	}
}

func TestCollectAbortsOnUnexpectedError(t *testing.T) {
	const start = 1_000_000
	boom := errors.New("exchange exploded")
	ex := &scriptedExchange{
		failures: map[int64][]error{start: {boom}},
	}

	_, err := newTestCollector(ex, start).Collect(context.Background(), "ETH-USD", 3, 15*time.Second)
	if !errors.Is(err, boom) {
		t.Fatalf("Expected the underlying error, got %v", err)
	}
	if len(ex.requests) != 1 {
		t.Errorf("Got %d requests after a fatal error, want 1", len(ex.requests))
	}
}

func TestCollectHonorsContextDuringBackoff(t *testing.T) {
	const start = 1_000_000
	ex := &scriptedExchange{
		failures: map[int64][]error{start: {exchange.ErrRateLimited}},
	}

	c := newTestCollector(ex, start)
	c.backoff = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Collect(ctx, "ETH-USD", 1, 15*time.Second)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Collect did not return after cancellation")
	}
}

func TestCollectRejectsNonPositiveLength(t *testing.T) {
	ex := &scriptedExchange{}
	if _, err := newTestCollector(ex, 1_000_000).Collect(context.Background(), "ETH-USD", 0, 15*time.Second); err == nil {
		t.Fatal("Expected error for zero sequence length")
	}
}
