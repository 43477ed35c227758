package domain

import "time"

// OrderStatus as reported by the exchange.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusResting  OrderStatus = "resting"
	OrderStatusExecuted OrderStatus = "executed"
	OrderStatusCanceled OrderStatus = "canceled"
	OrderStatusExpired  OrderStatus = "expired"
)

// IsTerminal reports whether the order can no longer fill.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusExecuted, OrderStatusCanceled, OrderStatusExpired:
		return true
	}
	return false
}

// RestingOrder is an order sitting on the book, identified by the
// exchange-assigned order id.
type RestingOrder struct {
	OrderID        string
	Ticker         string
	Side           Side
	Action         Action
	RemainingCount int
	PriceCents     int
	Status         OrderStatus
	QueuePosition  int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
