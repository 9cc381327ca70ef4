package api

import (
	"net/http"
	"strconv"

	"brigade/internal/auth"
	"brigade/internal/models"
	"brigade/internal/orders"

	"github.com/gin-gonic/gin"
)

// CreateOrder opens a new order for a table. Same gateway call as the
// real-time new-order message, so both paths broadcast identically.
func (s *Server) CreateOrder(c *gin.Context) {
	var req orders.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := s.svc.CreateOrder(auth.IdentityFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// ListOrders returns all orders, optionally filtered with ?status=.
func (s *Server) ListOrders(c *gin.Context) {
	status := models.OrderStatus(c.Query("status"))
	list, err := s.svc.ListOrders(status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetOrder returns one fully-populated order.
func (s *Server) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := s.svc.GetOrder(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// orderUpdateRequest carries order-level transitions. Either field may be
// omitted; both may be set.
type orderUpdateRequest struct {
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
}

// UpdateOrder applies order-level status and payment transitions.
func (s *Server) UpdateOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req orderUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := auth.IdentityFrom(c)
	var order *models.Order
	var err error

	switch req.Status {
	case "":
	case models.OrderStatusCompleted:
		order, err = s.svc.CompleteOrder(actor, id)
	case models.OrderStatusCancelled:
		order, err = s.svc.CancelOrder(actor, id)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported status: " + string(req.Status)})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if req.PaymentStatus == models.PaymentStatusPaid {
		order, err = s.svc.MarkPaid(actor, id)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	if order == nil {
		order, err = s.svc.GetOrder(id)
		if err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, order)
}

// replaceItemsRequest swaps an order's line items.
type replaceItemsRequest struct {
	Items []orders.NewItem `json:"items"`
}

// ReplaceItems swaps the order's items; the total is recomputed in the
// same update.
func (s *Server) ReplaceItems(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req replaceItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := s.svc.ReplaceItems(auth.IdentityFrom(c), id, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// MarkOrderPrepared marks the whole order done in one go.
func (s *Server) MarkOrderPrepared(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := s.svc.CompleteOrder(auth.IdentityFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// MarkItemPrepared marks a single item ready; the last one cascades the
// order to completed.
func (s *Server) MarkItemPrepared(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	order, err := s.svc.MarkItemReady(auth.IdentityFrom(c), id, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func pathID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(v), true
}
