package orders

import (
	"brigade/internal/models"
)

// Broadcaster receives completed mutations for fan-out. The gateway calls
// it after persisting; delivery is fire-and-forget and never fails the
// mutation. Idempotent no-ops are not handed to it at all, so a broadcast
// cascade can never fire twice.
type Broadcaster interface {
	NewOrder(order *models.Order)
	OrderUpdated(order *models.Order)
	OrderCompleted(order *models.Order)
	OrderItemUpdated(order *models.Order, item *models.OrderItem)
	PaymentReceived(order *models.Order)
	TableUpdated(table *models.Table)
}

// NopBroadcaster drops every event. Used when no real-time hub is wired,
// e.g. in offline tooling.
type NopBroadcaster struct{}

func (NopBroadcaster) NewOrder(*models.Order)                          {}
func (NopBroadcaster) OrderUpdated(*models.Order)                      {}
func (NopBroadcaster) OrderCompleted(*models.Order)                    {}
func (NopBroadcaster) OrderItemUpdated(*models.Order, *models.OrderItem) {}
func (NopBroadcaster) PaymentReceived(*models.Order)                   {}
func (NopBroadcaster) TableUpdated(*models.Table)                      {}
