package types

import "time"

// Order is the exchange's order record. Prices and costs are cents.
type Order struct {
	OrderID        string    `json:"order_id"`
	ClientOrderID  string    `json:"client_order_id"`
	Ticker         string    `json:"ticker"`
	Side           string    `json:"side"`
	Action         string    `json:"action"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	YesPrice       int       `json:"yes_price"`
	NoPrice        int       `json:"no_price"`
	RemainingCount int       `json:"remaining_count"`
	TakerFillCount int       `json:"taker_fill_count"`
	TakerFillCost  int       `json:"taker_fill_cost"`
	TakerFees      int       `json:"taker_fees"`
	MakerFillCount int       `json:"maker_fill_count"`
	MakerFillCost  int       `json:"maker_fill_cost"`
	MakerFees      int       `json:"maker_fees"`
	CreatedTime    time.Time `json:"created_time"`
	LastUpdateTime time.Time `json:"last_update_time"`
}

// CreateOrderRequest is the body of POST /portfolio/orders. Exactly one of
// YesPrice/NoPrice is set for limit orders; market orders carry neither.
type CreateOrderRequest struct {
	Ticker        string `json:"ticker"`
	Action        string `json:"action"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Count         int    `json:"count"`
	YesPrice      int    `json:"yes_price,omitempty"`
	NoPrice       int    `json:"no_price,omitempty"`
	ClientOrderID string `json:"client_order_id"`
}

// OrderResponse wraps the single-order endpoints.
type OrderResponse struct {
	Order Order `json:"order"`
}

// OrdersResponse wraps GET /portfolio/orders.
type OrdersResponse struct {
	Orders []Order `json:"orders"`
	Cursor string  `json:"cursor"`
}

// APIError is the exchange's error body. The exchange nests it under an
// "error" key on some routes and returns it flat on others.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Service string `json:"service"`
}

type ErrorResponse struct {
	Error *APIError `json:"error"`
	Code  string    `json:"code"`
	Msg   string    `json:"message"`
}

// Normalize collapses the two error body shapes into one APIError.
func (e *ErrorResponse) Normalize() APIError {
	if e.Error != nil {
		return *e.Error
	}
	return APIError{Code: e.Code, Message: e.Msg}
}
