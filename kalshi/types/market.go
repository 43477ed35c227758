package types

// Market is the exchange's market record. Only the consumed fields are
// declared; anything else the exchange sends is ignored. Prices are cents.
type Market struct {
	Ticker      string `json:"ticker"`
	EventTicker string `json:"event_ticker"`
	Title       string `json:"title"`
	YesSubTitle string `json:"yes_sub_title"`
	Status      string `json:"status"`
	YesBid      int    `json:"yes_bid"`
	YesAsk      int    `json:"yes_ask"`
	NoBid       int    `json:"no_bid"`
	NoAsk       int    `json:"no_ask"`
	LastPrice   int    `json:"last_price"`
}

// MarketsResponse wraps GET /markets.
type MarketsResponse struct {
	Markets []Market `json:"markets"`
	Cursor  string   `json:"cursor"`
}

// MarketResponse wraps GET /markets/{ticker}.
type MarketResponse struct {
	Market Market `json:"market"`
}
