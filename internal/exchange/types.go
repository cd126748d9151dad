package exchange

// Wire representations of the exchange's JSON. Prices and amounts arrive as
// strings and are parsed into decimals at the boundary.

type wireTrade struct {
	TradeID   string `json:"trade_id"`
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Time      string `json:"time"`
	Side      string `json:"side"`
}

type tickerResponse struct {
	Trades  []wireTrade `json:"trades"`
	BestBid string      `json:"best_bid"`
	BestAsk string      `json:"best_ask"`
}

type wireBalance struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type wireAccount struct {
	UUID             string      `json:"uuid"`
	Name             string      `json:"name"`
	Currency         string      `json:"currency"`
	AvailableBalance wireBalance `json:"available_balance"`
	Default          bool        `json:"default"`
	Active           bool        `json:"active"`
	Type             string      `json:"type"`
	Ready            bool        `json:"ready"`
}

type accountsResponse struct {
	Accounts []wireAccount `json:"accounts"`
	HasNext  bool          `json:"has_next"`
	Cursor   string        `json:"cursor"`
	Size     int           `json:"size"`
}

type limitLimitGTC struct {
	BaseSize   string `json:"base_size"`
	LimitPrice string `json:"limit_price"`
	PostOnly   bool   `json:"post_only"`
}

type orderConfiguration struct {
	LimitLimitGTC limitLimitGTC `json:"limit_limit_gtc"`
}

type orderRequest struct {
	ClientOrderID      string             `json:"client_order_id"`
	ProductID          string             `json:"product_id"`
	Side               string             `json:"side"`
	OrderConfiguration orderConfiguration `json:"order_configuration"`
}

type orderResponse struct {
	Success         bool   `json:"success"`
	OrderID         string `json:"order_id"`
	SuccessResponse struct {
		OrderID       string `json:"order_id"`
		ProductID     string `json:"product_id"`
		Side          string `json:"side"`
		ClientOrderID string `json:"client_order_id"`
	} `json:"success_response"`
}
