package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ai-trading-bot/internal/types"
)

const basePath = "/api/v3"

// Client is a stateless REST client for the exchange's brokerage API. Every
// call carries its own context; the client holds no session state beyond the
// underlying connection pool.
type Client struct {
	http *resty.Client
}

// NewClient builds a client for the given request host, e.g. "api.coinbase.com".
// A full URL is also accepted.
func NewClient(host string) *Client {
	baseURL := host
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	hc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{http: hc}
}

// GetPriceAt returns the trade price at or immediately before unixTime.
// Returns ErrNoTrades when the response holds zero trades and ErrRateLimited
// on a 429.
func (c *Client) GetPriceAt(ctx context.Context, productID string, unixTime int64) (types.PricePoint, error) {
	endpoint := fmt.Sprintf("%s/brokerage/market/products/%s/ticker", basePath, productID)

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"limit": "1",
			"start": fmt.Sprintf("%d", unixTime-1),
			"end":   fmt.Sprintf("%d", unixTime),
		}).
		Get(endpoint)
	if err != nil {
		return types.PricePoint{}, &TransportError{Op: "GetPriceAt", Err: err}
	}

	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		return types.PricePoint{}, ErrRateLimited
	case !resp.IsSuccess():
		return types.PricePoint{}, &ExchangeError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	var ticker tickerResponse
	if err := json.Unmarshal(resp.Body(), &ticker); err != nil {
		return types.PricePoint{}, &ExchangeError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	if len(ticker.Trades) == 0 {
		return types.PricePoint{}, ErrNoTrades
	}

	price, err := decimal.NewFromString(ticker.Trades[0].Price)
	if err != nil {
		return types.PricePoint{}, &ExchangeError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return types.PricePoint{Ts: unixTime, Price: price}, nil
}

// GetAccounts lists the caller's accounts. The token must be valid and
// non-expired; authorization failures come back as an ExchangeError with the
// exchange's status.
func (c *Client) GetAccounts(ctx context.Context, token string) ([]types.Account, error) {
	if token == "" {
		return nil, ErrAuthRequired
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get(basePath + "/brokerage/accounts")
	if err != nil {
		return nil, &TransportError{Op: "GetAccounts", Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &ExchangeError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	var parsed accountsResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, &ExchangeError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	if len(parsed.Accounts) == 0 {
		return nil, ErrNoAccounts
	}

	accounts := make([]types.Account, 0, len(parsed.Accounts))
	for _, wa := range parsed.Accounts {
		amount, err := decimal.NewFromString(wa.AvailableBalance.Value)
		if err != nil {
			return nil, &ExchangeError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
		}
		accounts = append(accounts, types.Account{
			ID:       wa.UUID,
			Name:     wa.Name,
			Currency: wa.Currency,
			Available: types.Balance{
				Currency: wa.AvailableBalance.Currency,
				Amount:   amount,
			},
		})
	}
	return accounts, nil
}

// SubmitLimitOrder posts a post-only limit order. Each submission attempt
// mints a fresh client_order_id; a retry after an ambiguous failure is a new
// order as far as the exchange is concerned.
func (c *Client) SubmitLimitOrder(ctx context.Context, token string, req types.OrderReq) (*types.OrderReceipt, error) {
	if token == "" {
		return nil, ErrAuthRequired
	}

	clientOrderID := uuid.NewString()
	body := orderRequest{
		ClientOrderID: clientOrderID,
		ProductID:     req.ProductID,
		Side:          string(req.Side),
		OrderConfiguration: orderConfiguration{
			LimitLimitGTC: limitLimitGTC{
				BaseSize:   req.BaseSize.String(),
				LimitPrice: req.LimitPrice.String(),
				PostOnly:   true,
			},
		},
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(basePath + "/brokerage/orders")
	if err != nil {
		return nil, &TransportError{Op: "SubmitLimitOrder", Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &TradeFailure{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	var parsed orderResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, &TradeFailure{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	orderID := parsed.SuccessResponse.OrderID
	if orderID == "" {
		orderID = parsed.OrderID
	}
	return &types.OrderReceipt{
		OrderID:       orderID,
		ClientOrderID: clientOrderID,
		Status:        "SUBMITTED",
	}, nil
}
