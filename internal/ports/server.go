package ports

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/betbot/gokalshi/internal/domain"
	"github.com/betbot/gokalshi/internal/services"
	"github.com/betbot/gokalshi/internal/storage"
)

// Server is the HTTP boundary. It reads through the status service and
// writes through the order gateway; it never touches the store directly.
type Server struct {
	status   *services.Status
	gateway  *services.Gateway
	activity *storage.ActivityLog
	hub      *Hub
}

// NewServer wires the boundary. activity and hub may be nil; the routes that
// need them are simply not registered.
func NewServer(status *services.Status, gateway *services.Gateway, activity *storage.ActivityLog, hub *Hub) *Server {
	return &Server{status: status, gateway: gateway, activity: activity, hub: hub}
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")
	api.GET("/status", s.handleStatus)

	order := api.Group("/order")
	order.POST("/buy", s.handleBuy)
	order.POST("/sell", s.handleSell)

	orders := api.Group("/orders")
	orders.GET("/resting", s.handleRestingOrders)
	orders.DELETE("/cancel/:orderID", s.handleCancel)

	if s.activity != nil {
		api.GET("/activity", s.handleActivity)
	}
	if s.hub != nil {
		api.GET("/status/ws", s.hub.handleStream)
	}
	return r
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.status.Current())
}

type orderRequest struct {
	Ticker   string `json:"ticker" binding:"required"`
	Side     string `json:"side" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

func (s *Server) handleBuy(c *gin.Context) {
	s.handlePlace(c, s.gateway.Buy)
}

func (s *Server) handleSell(c *gin.Context) {
	s.handlePlace(c, s.gateway.Sell)
}

func (s *Server) handlePlace(c *gin.Context, place func(context.Context, string, domain.Side, int) (services.OrderResult, error)) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	result, err := place(c.Request.Context(), req.Ticker, domain.Side(req.Side), req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleRestingOrders(c *gin.Context) {
	report := s.status.Current()
	c.JSON(http.StatusOK, gin.H{
		"initialized":    report.Initialized,
		"resting_orders": report.RestingOrders,
	})
}

func (s *Server) handleCancel(c *gin.Context) {
	result, err := s.gateway.Cancel(c.Request.Context(), c.Param("orderID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleActivity(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := s.activity.Recent(c.Request.Context(), n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": rows})
}

// writeError translates the error taxonomy onto HTTP: caller mistakes are
// 400, definitive exchange refusals 422, anything transient 502.
func writeError(c *gin.Context, err error) {
	var validation *domain.ValidationError
	var rejected *domain.RejectedError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Reason, "kind": "validation"})
	case errors.As(err, &rejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": rejected.Reason, "kind": "rejected", "code": rejected.Code,
		})
	case domain.IsTransient(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "kind": "transient"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
