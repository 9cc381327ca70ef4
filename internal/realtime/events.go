package realtime

import "encoding/json"

// Rooms are fixed: one per role plus the shared waiter group. They are
// never created dynamically.
const (
	RoomWaiter  = "waiter"
	RoomKitchen = "kitchen"
	RoomManager = "manager"
	RoomWaiters = "waiters"
)

// Outbound event names.
const (
	EventOrderReceived    = "order-received"
	EventNewOrder         = "new-order"
	EventOrderUpdated     = "order-updated"
	EventOrderCompleted   = "order-completed"
	EventOrderItemUpdated = "order-item-updated"
	EventTableUpdated     = "table-updated"
	EventPaymentReceived  = "payment-received"
	EventAuthStatus       = "auth-status"
	EventError            = "error"
)

// Inbound message names.
const (
	MsgJoinRoom          = "join-room"
	MsgNewOrder          = "new-order"
	MsgUpdateOrderStatus = "update-order-status"
	MsgCompleteOrder     = "complete-order"
	MsgPaymentReceived   = "payment-received"
	MsgAuthStatus        = "auth-status"
)

// Envelope frames every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}
