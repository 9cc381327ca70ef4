package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// Order represents a single table's order through its whole lifecycle.
// TotalAmount is derived from the items and is recomputed on every item
// change; it is never written independently.
type Order struct {
	gorm.Model
	TableID       uint          `json:"tableId"`
	Table         *Table        `json:"table,omitempty" gorm:"foreignkey:TableID"`
	WaiterID      uint          `json:"waiterId"`
	Waiter        *User         `json:"waiter,omitempty" gorm:"foreignkey:WaiterID"`
	Items         []OrderItem   `json:"items" gorm:"foreignkey:OrderID"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	TotalAmount   int64         `json:"totalAmount"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty"`
}

// OrderItem is a line on an order. Price is captured from the menu (or
// supplied inline for custom items) at order time, so later menu edits do
// not alter existing orders.
type OrderItem struct {
	gorm.Model
	OrderID    uint       `json:"orderId"`
	MenuItemID *uint      `json:"menuItemId,omitempty"` // nil for ad-hoc custom items
	Name       string     `json:"name"`
	Quantity   int        `json:"quantity"`
	Price      int64      `json:"price"` // cents, per unit
	Notes      string     `json:"notes,omitempty"`
	Status     ItemStatus `json:"status"`
}

// OrderStatus represents the possible states of an order
type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// ItemStatus represents the possible states of an order item
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusPreparing ItemStatus = "preparing"
	ItemStatusReady     ItemStatus = "ready"
	ItemStatusServed    ItemStatus = "served"
	ItemStatusCancelled ItemStatus = "cancelled"
)

// RecomputeTotal sets TotalAmount to the sum of price times quantity over all
// items. Called on every item insertion, edit or removal.
func (o *Order) RecomputeTotal() {
	var total int64
	for _, item := range o.Items {
		total += item.Price * int64(item.Quantity)
	}
	o.TotalAmount = total
}

// AllItemsReady reports whether every item on the order has reached the
// kitchen's ready state. Served counts as past ready; cancelled items do
// not block completion. An order with no items is never "all ready".
func (o *Order) AllItemsReady() bool {
	if len(o.Items) == 0 {
		return false
	}
	for _, item := range o.Items {
		switch item.Status {
		case ItemStatusReady, ItemStatusServed, ItemStatusCancelled:
		default:
			return false
		}
	}
	return true
}
