package realtime

import (
	"encoding/json"
	"errors"

	"brigade/internal/models"
	"brigade/internal/orders"
)

// Dispatcher routes inbound real-time messages into the mutation gateway.
// It owns no business logic: role checks and transitions live in the
// gateway, shared with the REST path.
type Dispatcher struct {
	svc *orders.Service
	hub *Hub
}

// NewDispatcher wires the inbound message handlers.
func NewDispatcher(svc *orders.Service, hub *Hub) *Dispatcher {
	return &Dispatcher{svc: svc, hub: hub}
}

type joinRoomMsg struct {
	Room string `json:"room"`
}

type orderStatusMsg struct {
	OrderID uint   `json:"orderId"`
	ItemID  uint   `json:"itemId"`
	Status  string `json:"status"`
}

type paymentMsg struct {
	OrderID uint `json:"orderId"`
	TableID uint `json:"tableId"`
}

// Handle processes one inbound frame from c. All failures are reported
// only to the originating connection.
func (d *Dispatcher) Handle(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.sendError("malformed message")
		return
	}

	switch env.Event {
	case MsgJoinRoom:
		var msg joinRoomMsg
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			c.sendError("malformed join-room payload")
			return
		}
		if err := d.hub.JoinRoom(c, msg.Room); err != nil {
			c.sendError(err.Error())
		}

	case MsgNewOrder:
		var req orders.CreateOrderRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			c.sendError("malformed new-order payload")
			return
		}
		order, err := d.svc.CreateOrder(c.Identity(), req)
		if err != nil {
			c.sendError(gatewayError(err))
			return
		}
		c.sendEvent(EventOrderReceived, order)

	case MsgUpdateOrderStatus:
		var msg orderStatusMsg
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			c.sendError("malformed update-order-status payload")
			return
		}
		d.updateOrderStatus(c, msg)

	case MsgCompleteOrder:
		var msg orderStatusMsg
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			c.sendError("malformed complete-order payload")
			return
		}
		if _, err := d.svc.CompleteOrder(c.Identity(), msg.OrderID); err != nil {
			c.sendError(gatewayError(err))
		}

	case MsgPaymentReceived:
		var msg paymentMsg
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			c.sendError("malformed payment-received payload")
			return
		}
		if _, err := d.svc.MarkPaid(c.Identity(), msg.OrderID); err != nil {
			c.sendError(gatewayError(err))
		}

	case MsgAuthStatus:
		c.sendEvent(EventAuthStatus, struct {
			Authenticated bool        `json:"authenticated"`
			User          interface{} `json:"user"`
		}{true, c.Identity()})

	default:
		c.sendError("unknown event: " + env.Event)
	}
}

// updateOrderStatus handles the combined item/order status message: with
// an itemId it is the kitchen's per-item ready mark, without one it is an
// order-level transition.
func (d *Dispatcher) updateOrderStatus(c *Client, msg orderStatusMsg) {
	if msg.ItemID != 0 {
		if msg.Status != string(models.ItemStatusReady) {
			c.sendError("only the ready transition is supported for items")
			return
		}
		if _, err := d.svc.MarkItemReady(c.Identity(), msg.OrderID, msg.ItemID); err != nil {
			c.sendError(gatewayError(err))
		}
		return
	}

	switch models.OrderStatus(msg.Status) {
	case models.OrderStatusCompleted:
		if _, err := d.svc.CompleteOrder(c.Identity(), msg.OrderID); err != nil {
			c.sendError(gatewayError(err))
		}
	case models.OrderStatusCancelled:
		if _, err := d.svc.CancelOrder(c.Identity(), msg.OrderID); err != nil {
			c.sendError(gatewayError(err))
		}
	default:
		c.sendError("unsupported order status: " + msg.Status)
	}
}

// gatewayError keeps real-time error payloads aligned with the REST
// surface's wording.
func gatewayError(err error) string {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		return "Order not found"
	case errors.Is(err, orders.ErrForbidden):
		return "Operation not permitted for your role"
	default:
		return err.Error()
	}
}
