package realtime

import (
	"fmt"
	"log"
	"sync"

	"brigade/internal/auth"
	"brigade/internal/monitoring"
)

// defaultRooms maps a role to the rooms it is joined to at handshake.
// Consulted exactly once per connection; membership is never re-derived.
var defaultRooms = map[string][]string{
	auth.RoleWaiter:  {RoomWaiter, RoomWaiters},
	auth.RoleKitchen: {RoomKitchen},
	auth.RoleManager: {RoomManager},
}

// Hub is the lifecycle-scoped registry of live connections and their room
// memberships. It is created at server start and torn down at shutdown;
// membership changes only on connection open, close and explicit joins.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]bool
	closed bool
}

// NewHub creates the registry with the fixed room set.
func NewHub() *Hub {
	h := &Hub{rooms: make(map[string]map[*Client]bool)}
	for _, room := range []string{RoomWaiter, RoomKitchen, RoomManager, RoomWaiters} {
		h.rooms[room] = make(map[*Client]bool)
	}
	return h
}

// DefaultRooms returns the rooms a role is auto-joined to.
func DefaultRooms(role string) []string {
	return defaultRooms[role]
}

// CanJoin decides room membership requests: a connection may join its own
// role's room, a manager may join any room, and waiters share the common
// waiter group. Everything else is refused.
func CanJoin(role, room string) bool {
	if _, ok := fixedRoom(room); !ok {
		return false
	}
	switch {
	case room == role:
		return true
	case role == auth.RoleManager:
		return true
	case room == RoomWaiters && role == auth.RoleWaiter:
		return true
	}
	return false
}

func fixedRoom(room string) (string, bool) {
	switch room {
	case RoomWaiter, RoomKitchen, RoomManager, RoomWaiters:
		return room, true
	}
	return "", false
}

// Register adds a freshly authenticated connection and joins it to its
// role's default rooms.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, room := range DefaultRooms(c.identity.Role) {
		h.rooms[room][c] = true
	}
	monitoring.WSConnections.Inc()
	log.Printf("realtime: %s %q connected (%s)", c.identity.Role, c.identity.Name, c.id)
}

// Unregister removes a connection from every room. Safe to call more than
// once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	removed := false
	for _, members := range h.rooms {
		if members[c] {
			delete(members, c)
			removed = true
		}
	}
	if removed {
		monitoring.WSConnections.Dec()
		log.Printf("realtime: %s %q disconnected (%s)", c.identity.Role, c.identity.Name, c.id)
	}
}

// JoinRoom applies an explicit membership request. Refusals are returned
// as errors so the caller can surface them to the requesting connection.
func (h *Hub) JoinRoom(c *Client, room string) error {
	if !CanJoin(c.identity.Role, room) {
		return fmt.Errorf("role %s is not authorized to join room %s", c.identity.Role, room)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("server is shutting down")
	}
	h.rooms[room][c] = true
	return nil
}

// InRoom reports whether the connection is currently a member of room.
func (h *Hub) InRoom(c *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members, ok := h.rooms[room]
	return ok && members[c]
}

// Broadcast queues message for every connection in any of the given
// rooms. A connection in several destination rooms receives one copy.
// Delivery is non-blocking: a client whose buffer is full misses the
// event and is expected to catch up over REST.
func (h *Hub) Broadcast(rooms []string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Client]bool)
	for _, room := range rooms {
		for c := range h.rooms[room] {
			if seen[c] {
				continue
			}
			seen[c] = true
			c.enqueue(message)
		}
	}
}

// ConnectionCount returns the number of distinct live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[*Client]bool)
	for _, members := range h.rooms {
		for c := range members {
			seen[c] = true
		}
	}
	return len(seen)
}

// Close tears the registry down and disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	seen := make(map[*Client]bool)
	for _, members := range h.rooms {
		for c := range members {
			seen[c] = true
			delete(members, c)
		}
	}
	for c := range seen {
		monitoring.WSConnections.Dec()
		c.close()
	}
}
