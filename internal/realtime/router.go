package realtime

import (
	"encoding/json"
	"log"

	"brigade/internal/models"
	"brigade/internal/monitoring"
)

// eventRooms is the fixed dispatch table: which rooms hear which event.
// Both mutation entry paths end up here, so audiences cannot diverge.
var eventRooms = map[string][]string{
	EventNewOrder:         {RoomKitchen, RoomManager},
	EventOrderUpdated:     {RoomKitchen, RoomWaiters, RoomManager},
	EventTableUpdated:     {RoomKitchen, RoomWaiters, RoomManager},
	EventOrderItemUpdated: {RoomWaiters, RoomManager},
	EventOrderCompleted:   {RoomWaiters, RoomManager},
	EventPaymentReceived:  {RoomWaiters, RoomManager},
}

// Router fans completed mutations out to the hub, and mirrors them to
// Redis when a mirror is configured. It satisfies the gateway's
// Broadcaster contract.
type Router struct {
	hub    *Hub
	mirror *Mirror
}

// NewRouter creates a router. mirror may be nil.
func NewRouter(hub *Hub, mirror *Mirror) *Router {
	return &Router{hub: hub, mirror: mirror}
}

// NewOrder announces a freshly created order to the kitchen and managers.
func (r *Router) NewOrder(order *models.Order) {
	r.emit(EventNewOrder, order)
}

// OrderUpdated announces a status or item-list change on an open order.
func (r *Router) OrderUpdated(order *models.Order) {
	r.emit(EventOrderUpdated, order)
}

// OrderCompleted announces that every item is ready. The kitchen already
// knows locally, so only waiters and managers hear it.
func (r *Router) OrderCompleted(order *models.Order) {
	r.emit(EventOrderCompleted, order)
}

// OrderItemUpdated announces a single item reaching ready.
func (r *Router) OrderItemUpdated(order *models.Order, item *models.OrderItem) {
	r.emit(EventOrderItemUpdated, struct {
		OrderID uint              `json:"orderId"`
		Item    *models.OrderItem `json:"item"`
	}{order.ID, item})
}

// PaymentReceived announces a settled order and its freed table.
func (r *Router) PaymentReceived(order *models.Order) {
	r.emit(EventPaymentReceived, struct {
		OrderID uint `json:"orderId"`
		TableID uint `json:"tableId"`
	}{order.ID, order.TableID})
}

// TableUpdated announces a table status change to every room.
func (r *Router) TableUpdated(table *models.Table) {
	r.emit(EventTableUpdated, table)
}

func (r *Router) emit(event string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("realtime: marshal %s: %v", event, err)
		return
	}
	payload, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		log.Printf("realtime: marshal envelope: %v", err)
		return
	}

	r.hub.Broadcast(eventRooms[event], payload)
	monitoring.EventsBroadcast.WithLabelValues(event).Inc()
	if r.mirror != nil {
		r.mirror.Publish(event, payload)
	}
}
