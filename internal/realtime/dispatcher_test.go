package realtime

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"brigade/internal/auth"
	"brigade/internal/database"
	"brigade/internal/models"
	"brigade/internal/orders"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStack wires a real gateway, hub and dispatcher over a throwaway
// database, the same shape the server runs in production.
func newTestStack(t *testing.T) (*Dispatcher, *Hub, *orders.Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	hub := NewHub()
	svc := orders.NewService(db, NewRouter(hub, nil))
	return NewDispatcher(svc, hub), hub, svc, db
}

func frame(t *testing.T, event string, data interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	payload, err := json.Marshal(Envelope{Event: event, Data: raw})
	require.NoError(t, err)
	return payload
}

func seedTable(t *testing.T, db *gorm.DB, number int) *models.Table {
	t.Helper()
	table := &models.Table{Number: number, Status: models.TableStatusFree}
	require.NoError(t, db.Create(table).Error)
	return table
}

func TestDispatcherAuthStatusEcho(t *testing.T) {
	d, hub, _, _ := newTestStack(t)
	w := newTestClient(1, "Ada", auth.RoleWaiter)
	hub.Register(w)

	d.Handle(w, frame(t, MsgAuthStatus, struct{}{}))

	envs := drain(w)
	require.Len(t, envs, 1)
	assert.Equal(t, EventAuthStatus, envs[0].Event)
	assert.Contains(t, string(envs[0].Data), `"authenticated":true`)
	assert.Contains(t, string(envs[0].Data), `"role":"waiter"`)
}

func TestDispatcherJoinRoomUnauthorized(t *testing.T) {
	d, hub, _, _ := newTestStack(t)
	k := newTestClient(2, "Gus", auth.RoleKitchen)
	hub.Register(k)

	d.Handle(k, frame(t, MsgJoinRoom, joinRoomMsg{Room: RoomManager}))

	envs := drain(k)
	require.Len(t, envs, 1, "refusal must be explicit, not a silent no-op")
	assert.Equal(t, EventError, envs[0].Event)
	assert.False(t, hub.InRoom(k, RoomManager))
}

func TestDispatcherMalformedFrame(t *testing.T) {
	d, hub, _, _ := newTestStack(t)
	w := newTestClient(1, "Ada", auth.RoleWaiter)
	hub.Register(w)

	d.Handle(w, []byte("{{{"))

	envs := drain(w)
	require.Len(t, envs, 1)
	assert.Equal(t, EventError, envs[0].Event)
}

// TestDispatcherNewOrderFlow sends a new-order over the channel and
// checks the ack reaches only the originator while the broadcast reaches
// the kitchen and managers.
func TestDispatcherNewOrderFlow(t *testing.T) {
	d, hub, _, db := newTestStack(t)
	table := seedTable(t, db, 4)

	w := newTestClient(1, "Ada", auth.RoleWaiter)
	w2 := newTestClient(4, "Bea", auth.RoleWaiter)
	k := newTestClient(2, "Gus", auth.RoleKitchen)
	m := newTestClient(3, "Mel", auth.RoleManager)
	for _, c := range []*Client{w, w2, k, m} {
		hub.Register(c)
	}

	d.Handle(w, frame(t, MsgNewOrder, orders.CreateOrderRequest{
		TableID: table.ID,
		Items: []orders.NewItem{
			{Name: "Steak frites", Quantity: 2, Price: price(500)},
			{Name: "House salad", Quantity: 1, Price: price(300)},
		},
	}))

	wEvents := eventsOf(drain(w))
	assert.Contains(t, wEvents, EventOrderReceived)
	// The creating waiter also hears table-updated through the waiters room.
	assert.Contains(t, wEvents, EventTableUpdated)
	assert.NotContains(t, wEvents, EventNewOrder)

	assert.Equal(t, []string{EventTableUpdated}, eventsOf(drain(w2)))
	assert.Equal(t, []string{EventNewOrder, EventTableUpdated}, eventsOf(drain(k)))
	assert.Equal(t, []string{EventNewOrder, EventTableUpdated}, eventsOf(drain(m)))
}

// TestDispatcherItemReadyCascade drives the kitchen flow over the channel
// and checks the completion cascade fires once with the right audience.
func TestDispatcherItemReadyCascade(t *testing.T) {
	d, hub, svc, db := newTestStack(t)
	table := seedTable(t, db, 5)

	w := newTestClient(1, "Ada", auth.RoleWaiter)
	k := newTestClient(2, "Gus", auth.RoleKitchen)
	hub.Register(w)
	hub.Register(k)

	order, err := svc.CreateOrder(&auth.Identity{UserID: 1, Role: auth.RoleWaiter}, orders.CreateOrderRequest{
		TableID: table.ID,
		Items:   []orders.NewItem{{Name: "Espresso", Quantity: 1, Price: price(250)}},
	})
	require.NoError(t, err)
	drain(w)
	drain(k)

	msg := orderStatusMsg{OrderID: order.ID, ItemID: order.Items[0].ID, Status: "ready"}
	d.Handle(k, frame(t, MsgUpdateOrderStatus, msg))
	// Repeat: idempotent, no second cascade.
	d.Handle(k, frame(t, MsgUpdateOrderStatus, msg))

	wEvents := eventsOf(drain(w))
	assert.Equal(t, []string{EventOrderItemUpdated, EventOrderCompleted}, wEvents)
	// The kitchen already knows locally; it hears neither event.
	assert.Empty(t, eventsOf(drain(k)))
}

func TestDispatcherPaymentRoleGate(t *testing.T) {
	d, hub, svc, db := newTestStack(t)
	table := seedTable(t, db, 6)

	k := newTestClient(2, "Gus", auth.RoleKitchen)
	hub.Register(k)

	order, err := svc.CreateOrder(&auth.Identity{UserID: 1, Role: auth.RoleWaiter}, orders.CreateOrderRequest{
		TableID: table.ID,
		Items:   []orders.NewItem{{Name: "Espresso", Quantity: 1, Price: price(250)}},
	})
	require.NoError(t, err)
	drain(k)

	d.Handle(k, frame(t, MsgPaymentReceived, paymentMsg{OrderID: order.ID, TableID: table.ID}))

	envs := drain(k)
	require.Len(t, envs, 1)
	assert.Equal(t, EventError, envs[0].Event)

	got, err := svc.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusUnpaid, got.PaymentStatus)
}

func price(v int64) *int64 { return &v }
