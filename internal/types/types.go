package types

import (
	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Action is the outcome of one decision step.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// PricePoint is a single observed trade price at a point in time.
type PricePoint struct {
	Ts    int64
	Price decimal.Decimal
}

// Balance is a wallet amount in a single currency. Amounts come off the wire
// as strings and are parsed into decimals, never floats.
type Balance struct {
	Currency string
	Amount   decimal.Decimal
}

// Account is one exchange account (wallet) as reported by the accounts endpoint.
type Account struct {
	ID        string
	Name      string
	Currency  string
	Available Balance
}

// Decision is the derived outcome of one step. Never persisted; the tradelog
// keeps its own record.
type Decision struct {
	Action        Action          `json:"action"`
	Size          decimal.Decimal `json:"size"`
	LimitPrice    decimal.Decimal `json:"limit_price"`
	PercentDiff   decimal.Decimal `json:"percent_diff"`
	KellyFraction float64         `json:"kelly_fraction"`
}

// OrderReq describes a post-only limit order to submit.
type OrderReq struct {
	ProductID  string
	Side       Side
	BaseSize   decimal.Decimal
	LimitPrice decimal.Decimal
}

// OrderReceipt is the exchange's acknowledgement of a submitted order.
type OrderReceipt struct {
	OrderID       string `json:"order_id"`
	ClientOrderID string `json:"client_order_id"`
	Status        string `json:"status"`
}

// StepResult summarizes one full traversal of the trading state machine.
type StepResult struct {
	ProductID      string          `json:"product_id"`
	Decision       Decision        `json:"decision"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	PredictedPrice decimal.Decimal `json:"predicted_price"`
	Time           int64           `json:"time"`
	Receipt        *OrderReceipt   `json:"receipt,omitempty"`
}
