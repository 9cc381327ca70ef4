package orders

import (
	"fmt"
	"time"

	"brigade/internal/auth"
	"brigade/internal/models"
	"brigade/internal/monitoring"

	"github.com/jinzhu/gorm"
)

// Service is the mutation gateway: the single entry point through which
// order and table state changes. Both the REST handlers and the real-time
// message handlers call the same method per operation kind, so
// authorization, transition, persistence and broadcast cannot drift apart
// between the two paths.
type Service struct {
	db    *gorm.DB
	cast  Broadcaster
	locks *keyedMutex
}

// NewService creates the gateway. A nil broadcaster disables fan-out.
func NewService(db *gorm.DB, cast Broadcaster) *Service {
	if cast == nil {
		cast = NopBroadcaster{}
	}
	return &Service{db: db, cast: cast, locks: newKeyedMutex()}
}

// NewItem describes one requested order line. Menu items resolve their
// name and price from the menu; custom items carry both inline.
type NewItem struct {
	MenuItemID *uint  `json:"menuItemId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Price      *int64 `json:"price"`
	Notes      string `json:"notes"`
}

// CreateOrderRequest is the payload of the create operation on both entry
// paths.
type CreateOrderRequest struct {
	TableID uint      `json:"tableId"`
	Items   []NewItem `json:"items"`
}

// CreateOrder opens a new order on a table. Waiter or manager only. The
// table moves from free to ordering for its first order; a table that is not free
// moves to unpaid instead, marking accumulated unsettled orders.
func (s *Service) CreateOrder(actor *auth.Identity, req CreateOrderRequest) (*models.Order, error) {
	if !roleIn(actor, auth.RoleWaiter, auth.RoleManager) {
		return nil, ErrForbidden
	}

	items, err := s.buildItems(req.Items)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(tableKey(req.TableID))
	defer unlock()

	var table models.Table
	if err := s.db.First(&table, req.TableID).Error; err != nil {
		return nil, notFound(err)
	}

	order := models.Order{
		TableID:       table.ID,
		WaiterID:      actor.UserID,
		Status:        models.OrderStatusActive,
		PaymentStatus: models.PaymentStatusUnpaid,
	}
	order.Items = items
	order.RecomputeTotal()
	order.Items = nil // created explicitly below

	tx := s.db.Begin()
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for i := range items {
		items[i].OrderID = order.ID
		if err := tx.Create(&items[i]).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if table.Status == models.TableStatusFree {
		table.Status = models.TableStatusOrdering
	} else {
		table.Status = models.TableStatusUnpaid
	}
	table.CurrentOrderID = &order.ID
	if err := tx.Save(&table).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	full, err := s.loadOrder(order.ID)
	if err != nil {
		return nil, err
	}

	monitoring.OrdersCreated.Inc()
	s.cast.NewOrder(full)
	s.cast.TableUpdated(&table)
	return full, nil
}

// MarkItemReady records that the kitchen finished one item. Kitchen or
// manager only. Marking an item that is already ready is an idempotent
// no-op: it succeeds without persisting, broadcasting or re-triggering
// the completion cascade. When the last outstanding item becomes ready
// the parent order auto-completes.
func (s *Service) MarkItemReady(actor *auth.Identity, orderID, itemID uint) (*models.Order, error) {
	if !roleIn(actor, auth.RoleKitchen, auth.RoleManager) {
		return nil, ErrForbidden
	}

	unlock := s.locks.lock(orderKey(orderID))
	defer unlock()

	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}

	var item *models.OrderItem
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			item = &order.Items[i]
			break
		}
	}
	if item == nil {
		return nil, ErrNotFound
	}

	switch item.Status {
	case models.ItemStatusReady, models.ItemStatusServed:
		return order, nil // already satisfied
	case models.ItemStatusCancelled:
		return nil, fmt.Errorf("%w: item is cancelled", ErrInvalidTransition)
	}
	if order.Status != models.OrderStatusActive {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidTransition, order.Status)
	}

	item.Status = models.ItemStatusReady
	if err := s.db.Save(item).Error; err != nil {
		return nil, err
	}

	if order.AllItemsReady() {
		if err := s.completeLocked(order); err != nil {
			return nil, err
		}
		s.cast.OrderItemUpdated(order, item)
		s.cast.OrderCompleted(order)
		return order, nil
	}

	s.cast.OrderItemUpdated(order, item)
	return order, nil
}

// CompleteOrder force-finishes an order: every outstanding item is marked
// ready and the order becomes completed. Kitchen or manager only.
// Completing an already-completed order is an idempotent no-op.
func (s *Service) CompleteOrder(actor *auth.Identity, orderID uint) (*models.Order, error) {
	if !roleIn(actor, auth.RoleKitchen, auth.RoleManager) {
		return nil, ErrForbidden
	}

	unlock := s.locks.lock(orderKey(orderID))
	defer unlock()

	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderStatusCompleted {
		return order, nil
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: order is cancelled", ErrInvalidTransition)
	}

	for i := range order.Items {
		item := &order.Items[i]
		switch item.Status {
		case models.ItemStatusReady, models.ItemStatusServed, models.ItemStatusCancelled:
			continue
		}
		item.Status = models.ItemStatusReady
		if err := s.db.Save(item).Error; err != nil {
			return nil, err
		}
	}
	if err := s.completeLocked(order); err != nil {
		return nil, err
	}

	s.cast.OrderCompleted(order)
	return order, nil
}

// completeLocked applies the active-to-completed transition. Caller holds
// the order lock and has already ensured the transition is legal.
func (s *Service) completeLocked(order *models.Order) error {
	now := time.Now()
	order.Status = models.OrderStatusCompleted
	order.CompletedAt = &now
	return s.db.Model(order).Updates(map[string]interface{}{
		"status":       order.Status,
		"completed_at": order.CompletedAt,
	}).Error
}

// MarkPaid settles an order's payment and frees its table. Waiter or
// manager only. Payment is deliberately permitted while the order is
// still active, matching house policy of settling mid-order. Paying an
// already-paid order is an idempotent no-op; paying an order with no
// items is invalid.
func (s *Service) MarkPaid(actor *auth.Identity, orderID uint) (*models.Order, error) {
	if !roleIn(actor, auth.RoleWaiter, auth.RoleManager) {
		return nil, ErrForbidden
	}

	unlock := s.locks.lock(orderKey(orderID))
	defer unlock()

	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return order, nil
	}
	if len(order.Items) == 0 {
		return nil, fmt.Errorf("%w: cannot pay an order with no items", ErrInvalidTransition)
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: order is cancelled", ErrInvalidTransition)
	}

	order.PaymentStatus = models.PaymentStatusPaid
	if err := s.db.Model(order).Update("payment_status", order.PaymentStatus).Error; err != nil {
		return nil, err
	}

	table, err := s.releaseTable(order)
	if err != nil {
		return nil, err
	}

	s.cast.PaymentReceived(order)
	if table != nil {
		s.cast.TableUpdated(table)
	}
	return order, nil
}

// CancelOrder retires an order without completing it. Waiter or manager
// only. Irreversible; cancelling twice is an idempotent no-op, cancelling
// a completed order is invalid.
func (s *Service) CancelOrder(actor *auth.Identity, orderID uint) (*models.Order, error) {
	if !roleIn(actor, auth.RoleWaiter, auth.RoleManager) {
		return nil, ErrForbidden
	}

	unlock := s.locks.lock(orderKey(orderID))
	defer unlock()

	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderStatusCancelled {
		return order, nil
	}
	if order.Status == models.OrderStatusCompleted {
		return nil, fmt.Errorf("%w: order is completed", ErrInvalidTransition)
	}

	order.Status = models.OrderStatusCancelled
	if err := s.db.Model(order).Update("status", order.Status).Error; err != nil {
		return nil, err
	}

	table, err := s.releaseTable(order)
	if err != nil {
		return nil, err
	}

	s.cast.OrderUpdated(order)
	if table != nil {
		s.cast.TableUpdated(table)
	}
	return order, nil
}

// ReplaceItems swaps an active order's line items and recomputes the
// total in the same update. Waiter or manager only.
func (s *Service) ReplaceItems(actor *auth.Identity, orderID uint, newItems []NewItem) (*models.Order, error) {
	if !roleIn(actor, auth.RoleWaiter, auth.RoleManager) {
		return nil, ErrForbidden
	}

	items, err := s.buildItems(newItems)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(orderKey(orderID))
	defer unlock()

	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusActive {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidTransition, order.Status)
	}

	tx := s.db.Begin()
	if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for i := range items {
		items[i].OrderID = order.ID
		if err := tx.Create(&items[i]).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	order.Items = items
	order.RecomputeTotal()
	if err := tx.Model(order).Update("total_amount", order.TotalAmount).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.cast.OrderUpdated(order)
	return order, nil
}

// SetTableStatus is the explicit manager override on a table. The derived
// state rules resume as soon as the next order event touches the table.
func (s *Service) SetTableStatus(actor *auth.Identity, tableID uint, status models.TableStatus) (*models.Table, error) {
	if !roleIn(actor, auth.RoleManager) {
		return nil, ErrForbidden
	}
	if !models.ValidTableStatus(status) {
		return nil, fmt.Errorf("%w: unknown table status %q", ErrInvalidTransition, status)
	}

	unlock := s.locks.lock(tableKey(tableID))
	defer unlock()

	var table models.Table
	if err := s.db.First(&table, tableID).Error; err != nil {
		return nil, notFound(err)
	}

	table.Status = status
	if status == models.TableStatusFree {
		table.CurrentOrderID = nil
	}
	if err := s.db.Save(&table).Error; err != nil {
		return nil, err
	}

	s.cast.TableUpdated(&table)
	return &table, nil
}

// GetOrder returns one fully-populated order. Any authenticated role.
func (s *Service) GetOrder(orderID uint) (*models.Order, error) {
	return s.loadOrder(orderID)
}

// ListOrders returns all orders, optionally filtered by status. Reads are
// how reconnecting clients catch up; the real-time channel never replays.
func (s *Service) ListOrders(status models.OrderStatus) ([]models.Order, error) {
	var out []models.Order
	q := s.db.Preload("Items").Preload("Table").Preload("Waiter")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListTables returns every table with its current status.
func (s *Service) ListTables() ([]models.Table, error) {
	var out []models.Table
	if err := s.db.Order("number").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// releaseTable clears the table pointing at order, returning it to free.
// Caller holds the order lock; the table lock is nested inside it.
func (s *Service) releaseTable(order *models.Order) (*models.Table, error) {
	unlock := s.locks.lock(tableKey(order.TableID))
	defer unlock()

	var table models.Table
	if err := s.db.First(&table, order.TableID).Error; err != nil {
		return nil, notFound(err)
	}
	if table.CurrentOrderID == nil || *table.CurrentOrderID != order.ID {
		return nil, nil // table moved on to another order
	}

	table.Status = models.TableStatusFree
	table.CurrentOrderID = nil
	if err := s.db.Model(&table).Updates(map[string]interface{}{
		"status":           table.Status,
		"current_order_id": nil,
	}).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

// buildItems validates requested lines and captures menu prices.
func (s *Service) buildItems(in []NewItem) ([]models.OrderItem, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: an order needs at least one item", ErrInvalidTransition)
	}
	items := make([]models.OrderItem, 0, len(in))
	for _, req := range in {
		if req.Quantity < 1 {
			return nil, fmt.Errorf("%w: item quantity must be at least 1", ErrInvalidTransition)
		}
		item := models.OrderItem{
			Quantity: req.Quantity,
			Notes:    req.Notes,
			Status:   models.ItemStatusPending,
		}
		if req.MenuItemID != nil {
			var menu models.MenuItem
			if err := s.db.First(&menu, *req.MenuItemID).Error; err != nil {
				return nil, notFound(err)
			}
			item.MenuItemID = req.MenuItemID
			item.Name = menu.Name
			item.Price = menu.Price
		} else {
			if req.Name == "" || req.Price == nil || *req.Price < 0 {
				return nil, fmt.Errorf("%w: custom items need a name and a non-negative price", ErrInvalidTransition)
			}
			item.Name = req.Name
			item.Price = *req.Price
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) loadOrder(id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").Preload("Table").Preload("Waiter").First(&order, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func roleIn(actor *auth.Identity, roles ...string) bool {
	if actor == nil {
		return false
	}
	for _, r := range roles {
		if actor.Role == r {
			return true
		}
	}
	return false
}
