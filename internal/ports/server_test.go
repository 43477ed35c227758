package ports

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/gokalshi/internal/domain"
	"github.com/betbot/gokalshi/internal/services"
	"github.com/betbot/gokalshi/internal/state"
	"github.com/betbot/gokalshi/kalshi/client"
	"github.com/betbot/gokalshi/kalshi/types"
)

// fakeExchange is the minimal scripted exchange the HTTP tests need.
type fakeExchange struct {
	placeResp  types.Order
	placeErr   error
	cancelResp types.Order
	cancelErr  error
	placed     []types.CreateOrderRequest
}

func (f *fakeExchange) GetMarkets(ctx context.Context, eventTicker string) ([]types.Market, error) {
	return nil, nil
}

func (f *fakeExchange) GetPositions(ctx context.Context, eventTicker string) ([]types.MarketPosition, error) {
	return nil, nil
}

func (f *fakeExchange) GetBalance(ctx context.Context) (int64, error) { return 0, nil }

func (f *fakeExchange) GetRestingOrders(ctx context.Context) ([]client.RestingOrder, error) {
	return nil, nil
}

func (f *fakeExchange) GetOrder(ctx context.Context, orderID string) (types.Order, error) {
	return types.Order{}, nil
}

func (f *fakeExchange) PlaceOrder(ctx context.Context, order types.CreateOrderRequest) (types.Order, error) {
	f.placed = append(f.placed, order)
	return f.placeResp, f.placeErr
}

func (f *fakeExchange) CancelOrder(ctx context.Context, orderID string) (types.Order, error) {
	return f.cancelResp, f.cancelErr
}

type testEnv struct {
	exchange *fakeExchange
	store    *state.Store
	status   *services.Status
	router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := state.NewStore()
	store.MergeMarkets([]domain.Market{{
		Ticker: "EVT-25-A", Status: "active",
		YesBidCents: 28, YesAskCents: 33, NoBidCents: 67, NoAskCents: 72,
	}}, time.Now())
	store.SetBalance(250075)

	ex := &fakeExchange{}
	messages := services.NewMessageLog()
	status := services.NewStatus(store, messages)
	gateway := services.NewGateway(ex, store, messages, nil)
	srv := NewServer(status, gateway, nil, nil)
	return &testEnv{exchange: ex, store: store, status: status, router: srv.Router()}
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/healthz", nil).Code)
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report services.StatusReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.True(t, report.Initialized)
	assert.Equal(t, "2500.75", report.Balance)
	require.Len(t, report.Markets, 1)
	assert.Equal(t, "EVT-25-A", report.Markets[0].Ticker)
}

func TestBuyEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.exchange.placeResp = types.Order{
		OrderID: "ord-1", Ticker: "EVT-25-A", Side: "yes", Action: "buy",
		Status: "executed", TakerFillCount: 2, TakerFillCost: 66, TakerFees: 4,
	}

	w := env.do(http.MethodPost, "/api/order/buy", map[string]any{
		"ticker": "EVT-25-A", "side": "yes", "quantity": 2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result services.OrderResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "ord-1", result.OrderID)
	assert.Equal(t, "0.66", result.FillCost)

	require.Len(t, env.exchange.placed, 1)
	assert.Equal(t, 33, env.exchange.placed[0].YesPrice)
}

func TestBuyEndpointBadBody(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/order/buy", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBuyEndpointValidationError(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodPost, "/api/order/buy", map[string]any{
		"ticker": "NOPE", "side": "yes", "quantity": 1,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"validation"`)
	assert.Empty(t, env.exchange.placed)
}

func TestSellEndpointRejected(t *testing.T) {
	env := newTestEnv(t)
	env.exchange.placeErr = &domain.RejectedError{
		Op: "place order", Status: 400, Code: "insufficient_balance", Reason: "not enough funds",
	}
	w := env.do(http.MethodPost, "/api/order/sell", map[string]any{
		"ticker": "EVT-25-A", "side": "no", "quantity": 1,
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient_balance")
}

func TestCancelEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.store.ApplyOrder(domain.RestingOrder{OrderID: "ord-9", Ticker: "EVT-25-A", Status: domain.OrderStatusResting})
	env.exchange.cancelResp = types.Order{OrderID: "ord-9", Ticker: "EVT-25-A", Status: "canceled"}

	w := env.do(http.MethodDelete, "/api/orders/cancel/ord-9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, env.store.Snapshot().RestingOrders)
}

func TestCancelEndpointTransient(t *testing.T) {
	env := newTestEnv(t)
	env.exchange.cancelErr = &domain.TransientError{Op: "cancel order", Err: context.DeadlineExceeded}
	w := env.do(http.MethodDelete, "/api/orders/cancel/ord-9", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRestingOrdersEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.store.ApplyOrder(domain.RestingOrder{
		OrderID: "ord-5", Ticker: "EVT-25-A", Side: domain.SideYes,
		Action: domain.ActionBuy, Status: domain.OrderStatusResting, PriceCents: 30, RemainingCount: 1,
	})
	w := env.do(http.MethodGet, "/api/orders/resting", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ord-5")
}

func TestStatusStreamSeedsAndPushes(t *testing.T) {
	store := state.NewStore()
	store.MergeMarkets([]domain.Market{{Ticker: "EVT-25-A", Status: "active", YesBidCents: 28, YesAskCents: 33}}, time.Now())

	messages := services.NewMessageLog()
	status := services.NewStatus(store, messages)
	ex := &fakeExchange{}
	gateway := services.NewGateway(ex, store, messages, nil)
	poller := services.NewPoller(ex, store, "EVT-25", time.Hour, time.Hour)
	hub := NewHub(status, poller.Updates())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(NewServer(status, gateway, nil, hub).Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/status/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var report services.StatusReport
	require.NoError(t, json.Unmarshal(payload, &report))
	assert.True(t, report.Initialized)

	store.SetBalance(9900)
	poller.Updates().Emit()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(payload, &report))
	assert.Equal(t, "99.00", report.Balance)
}
