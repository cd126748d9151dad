package exchange

import (
	"fmt"

	"github.com/pkg/errors"
)

// Recoverable conditions are sentinel errors so callers can branch with
// errors.Is instead of filtering on exception types.
var (
	// ErrNoTrades means the ticker returned zero trades for the requested
	// instant. Recoverable: the collector shifts its cursor back one second.
	ErrNoTrades = errors.New("exchange: no trades found")

	// ErrRateLimited means the exchange answered 429. Recoverable: retry the
	// same request after a backoff.
	ErrRateLimited = errors.New("exchange: rate limited")

	// ErrNoAccounts means the accounts endpoint returned an empty result set.
	ErrNoAccounts = errors.New("exchange: no accounts found")

	// ErrAuthRequired means a call that needs a bearer token was made without
	// one. Fatal to the step; requires operator intervention.
	ErrAuthRequired = errors.New("exchange: auth token required")
)

// ExchangeError is any other non-success response or malformed body from the
// exchange. Aborts the current step; the step retries on its next cadence.
type ExchangeError struct {
	StatusCode int
	Body       string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange: unexpected response (status %d): %s", e.StatusCode, e.Body)
}

// TransportError is a failure below the HTTP layer: timeout, DNS, connection
// reset. Distinct from exchange-reported errors.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("exchange: transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TradeFailure carries the exchange's rejection of an order verbatim. A failed
// order is logged and the loop continues; it never crashes the process.
type TradeFailure struct {
	StatusCode int
	Body       string
}

func (e *TradeFailure) Error() string {
	return fmt.Sprintf("exchange: trade failed (status %d): %s", e.StatusCode, e.Body)
}
