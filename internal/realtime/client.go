package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"brigade/internal/auth"
	"brigade/internal/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // staff terminals connect from the local network
	},
}

// Client is one live real-time connection, bound to an identity at
// handshake and destroyed on disconnect. Nothing about it is persisted.
type Client struct {
	id       string
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	identity auth.Identity
	once     sync.Once
}

func newClient(conn *websocket.Conn, identity auth.Identity) *Client {
	return &Client{
		id:       uuid.NewString(),
		conn:     conn,
		send:     make(chan []byte, 256),
		done:     make(chan struct{}),
		identity: identity,
	}
}

// Identity returns the {userId, role} bound at handshake.
func (c *Client) Identity() *auth.Identity {
	id := c.identity
	return &id
}

// ServeWS authenticates and upgrades a real-time connection. A missing or
// invalid token refuses the handshake outright; no anonymous connection
// ever reaches the hub. Success joins the connection to its role's
// default rooms before any message is processed.
func ServeWS(hub *Hub, dispatcher *Dispatcher, secret string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := ctx.Query("token")
		if token == "" {
			monitoring.AuthFailures.Inc()
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		identity, err := auth.ParseToken(secret, token)
		if err != nil {
			monitoring.AuthFailures.Inc()
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			log.Printf("realtime: failed to upgrade connection: %v", err)
			return
		}

		client := newClient(conn, *identity)
		hub.Register(client)

		go client.writePump()
		go client.readPump(hub, dispatcher)
	}
}

// readPump pumps messages from the connection to the dispatcher.
func (c *Client) readPump(hub *Hub, dispatcher *Dispatcher) {
	defer func() {
		hub.Unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(64 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("realtime: read error: %v", err)
			}
			break
		}
		dispatcher.Handle(c, message)
	}
}

// writePump pumps queued messages to the connection and keeps it alive
// with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// sendEvent queues a targeted event for this connection only.
func (c *Client) sendEvent(event string, data interface{}) {
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
	c.enqueue(payload)
}

// sendError reports a per-operation failure to this connection. Failures
// are never broadcast.
func (c *Client) sendError(message string) {
	c.sendEvent(EventError, map[string]string{"message": message})
}

// enqueue pushes a frame without blocking; a full buffer drops the frame.
func (c *Client) enqueue(message []byte) {
	select {
	case c.send <- message:
	default:
		log.Printf("realtime: buffer full, dropping message for %s", c.id)
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
	})
}
