package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/betbot/gokalshi/internal/domain"
	"github.com/betbot/gokalshi/kalshi/signing"
	"github.com/betbot/gokalshi/kalshi/types"
)

const (
	basePath       = "/trade-api/v2"
	defaultTimeout = 10 * time.Second
)

// RestingOrder pairs an open order with its book queue position.
type RestingOrder struct {
	Order         types.Order
	QueuePosition int
}

// Client is the authenticated trade API client. Every request is signed
// individually; retries apply to GETs only, so order placement is never
// replayed after an ambiguous failure.
type Client struct {
	http   *resty.Client
	signer *signing.Signer
}

func New(baseURL string, signer *signing.Signer) *Client {
	hc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
				return false
			}
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})
	return &Client{http: hc, signer: signer}
}

// request returns a signed request builder. The signature covers the path
// without the query string.
func (c *Client) request(ctx context.Context, method, path string) (*resty.Request, error) {
	headers, err := c.signer.Sign(method, path)
	if err != nil {
		return nil, errors.Wrap(err, "sign request")
	}
	return c.http.R().SetContext(ctx).SetHeaders(headers), nil
}

// checkResponse maps transport failures and 5xx/429 to TransientError and
// other non-2xx statuses to RejectedError.
func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &domain.TransientError{Op: op, Err: err}
	}
	code := resp.StatusCode()
	switch {
	case code == http.StatusTooManyRequests || code >= 500:
		return &domain.TransientError{Op: op, Err: fmt.Errorf("exchange returned %d", code)}
	case code >= 400:
		var body types.ErrorResponse
		_ = json.Unmarshal(resp.Body(), &body)
		apiErr := body.Normalize()
		reason := apiErr.Message
		if reason == "" {
			reason = resp.Status()
		}
		return &domain.RejectedError{Op: op, Status: code, Code: apiErr.Code, Reason: reason}
	}
	return nil
}

// GetMarkets lists markets for an event.
func (c *Client) GetMarkets(ctx context.Context, eventTicker string) ([]types.Market, error) {
	const op = "get markets"
	req, err := c.request(ctx, http.MethodGet, basePath+"/markets")
	if err != nil {
		return nil, err
	}
	var out types.MarketsResponse
	resp, err := req.
		SetQueryParam("event_ticker", eventTicker).
		SetQueryParam("limit", "1000").
		SetResult(&out).
		Get(basePath + "/markets")
	if cerr := checkResponse(op, resp, err); cerr != nil {
		return nil, cerr
	}
	return out.Markets, nil
}

// GetMarket fetches a single market by ticker.
func (c *Client) GetMarket(ctx context.Context, ticker string) (types.Market, error) {
	const op = "get market"
	path := basePath + "/markets/" + ticker
	req, err := c.request(ctx, http.MethodGet, path)
	if err != nil {
		return types.Market{}, err
	}
	var out types.MarketResponse
	resp, err := req.SetResult(&out).Get(path)
	if cerr := checkResponse(op, resp, err); cerr != nil {
		return types.Market{}, cerr
	}
	return out.Market, nil
}

// GetPositions lists the account's market positions, optionally filtered to
// one event.
func (c *Client) GetPositions(ctx context.Context, eventTicker string) ([]types.MarketPosition, error) {
	const op = "get positions"
	path := basePath + "/portfolio/positions"
	req, err := c.request(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	req.SetQueryParam("limit", "1000")
	if eventTicker != "" {
		req.SetQueryParam("event_ticker", eventTicker)
	}
	var out types.PositionsResponse
	resp, err := req.SetResult(&out).Get(path)
	if cerr := checkResponse(op, resp, err); cerr != nil {
		return nil, cerr
	}
	return out.MarketPositions, nil
}

// GetBalance returns the account balance in cents.
func (c *Client) GetBalance(ctx context.Context) (int64, error) {
	const op = "get balance"
	path := basePath + "/portfolio/balance"
	req, err := c.request(ctx, http.MethodGet, path)
	if err != nil {
		return 0, err
	}
	var out types.BalanceResponse
	resp, err := req.SetResult(&out).Get(path)
	if cerr := checkResponse(op, resp, err); cerr != nil {
		return 0, cerr
	}
	return out.Balance, nil
}

// GetOrder fetches a single order by exchange id.
func (c *Client) GetOrder(ctx context.Context, orderID string) (types.Order, error) {
	const op = "get order"
	path := basePath + "/portfolio/orders/" + orderID
	req, err := c.request(ctx, http.MethodGet, path)
	if err != nil {
		return types.Order{}, err
	}
	var out types.OrderResponse
	resp, err := req.SetResult(&out).Get(path)
	if cerr := checkResponse(op, resp, err); cerr != nil {
		return types.Order{}, cerr
	}
	return out.Order, nil
}

// GetRestingOrders lists open orders with their queue positions. The queue
// endpoint only carries ids, so each order is hydrated individually. An order
// that disappears between the two calls is skipped, not an error.
func (c *Client) GetRestingOrders(ctx context.Context) ([]RestingOrder, error) {
	const op = "get queue positions"
	path := basePath + "/portfolio/orders/queue_positions"
	req, err := c.request(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	var out types.QueuePositionsResponse
	resp, err := req.SetResult(&out).Get(path)
	if cerr := checkResponse(op, resp, err); cerr != nil {
		return nil, cerr
	}
	orders := make([]RestingOrder, 0, len(out.QueuePositions))
	for _, qp := range out.QueuePositions {
		order, err := c.GetOrder(ctx, qp.OrderID)
		if err != nil {
			if domain.IsRejected(err) {
				continue
			}
			return nil, err
		}
		orders = append(orders, RestingOrder{Order: order, QueuePosition: qp.QueuePosition})
	}
	return orders, nil
}

// PlaceOrder submits an order. Never retried: a timeout here leaves the
// order's fate unknown and the caller decides what to do.
func (c *Client) PlaceOrder(ctx context.Context, order types.CreateOrderRequest) (types.Order, error) {
	const op = "place order"
	path := basePath + "/portfolio/orders"
	req, err := c.request(ctx, http.MethodPost, path)
	if err != nil {
		return types.Order{}, err
	}
	var out types.OrderResponse
	resp, err := req.SetBody(order).SetResult(&out).Post(path)
	if cerr := checkResponse(op, resp, err); cerr != nil {
		return types.Order{}, cerr
	}
	return out.Order, nil
}

// CancelOrder cancels a resting order and returns its final state.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (types.Order, error) {
	const op = "cancel order"
	path := basePath + "/portfolio/orders/" + orderID
	req, err := c.request(ctx, http.MethodDelete, path)
	if err != nil {
		return types.Order{}, err
	}
	var out types.OrderResponse
	resp, err := req.SetResult(&out).Delete(path)
	if cerr := checkResponse(op, resp, err); cerr != nil {
		return types.Order{}, cerr
	}
	return out.Order, nil
}
