package types

// MarketPosition is one entry of the portfolio positions endpoint.
// Position is the net yes-equivalent contract count (negative means no
// contracts). Monetary fields are cents.
type MarketPosition struct {
	Ticker         string `json:"ticker"`
	Position       int    `json:"position"`
	MarketExposure int    `json:"market_exposure"`
	RealizedPnl    int    `json:"realized_pnl"`
	FeesPaid       int    `json:"fees_paid"`
	TotalTraded    int    `json:"total_traded"`
}

// PositionsResponse wraps GET /portfolio/positions.
type PositionsResponse struct {
	MarketPositions []MarketPosition `json:"market_positions"`
	Cursor          string           `json:"cursor"`
}

// BalanceResponse wraps GET /portfolio/balance. Balance is cents.
type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

// QueuePosition reports how many resting contracts sit ahead of an order.
type QueuePosition struct {
	OrderID       string `json:"order_id"`
	Ticker        string `json:"market_ticker"`
	QueuePosition int    `json:"queue_position"`
}

// QueuePositionsResponse wraps GET /portfolio/orders/queue_positions.
type QueuePositionsResponse struct {
	QueuePositions []QueuePosition `json:"queue_positions"`
}
