package api

import (
	"errors"
	"net/http"

	"brigade/internal/auth"
	"brigade/internal/monitoring"
	"brigade/internal/orders"
	"brigade/internal/realtime"

	"github.com/gin-gonic/gin"
)

// Server carries the REST surface and the real-time channel endpoint.
// Every state-changing handler delegates to the same mutation gateway the
// websocket dispatcher uses.
type Server struct {
	router  *gin.Engine
	svc     *orders.Service
	hub     *realtime.Hub
	monitor *monitoring.Monitor
	secret  string
}

// NewServer wires routes over an existing gateway and hub.
func NewServer(svc *orders.Service, hub *realtime.Hub, secret string) *Server {
	s := &Server{
		router:  gin.Default(),
		svc:     svc,
		hub:     hub,
		monitor: monitoring.NewMonitor(),
		secret:  secret,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// The handshake authenticates itself; a bad token refuses the
	// upgrade before any event is processed.
	dispatcher := realtime.NewDispatcher(s.svc, s.hub)
	s.router.GET("/ws", realtime.ServeWS(s.hub, dispatcher, s.secret))

	v1 := s.router.Group("/api/v1")
	v1.Use(auth.Middleware(s.secret))
	{
		v1.POST("/orders", s.CreateOrder)
		v1.GET("/orders", s.ListOrders)
		v1.GET("/orders/:id", s.GetOrder)
		v1.PUT("/orders/:id", s.UpdateOrder)
		v1.PUT("/orders/:id/items", s.ReplaceItems)
		v1.POST("/orders/:id/ready", s.MarkOrderPrepared)
		v1.POST("/orders/:id/items/:itemId/ready", s.MarkItemPrepared)

		v1.GET("/tables", s.ListTables)
		v1.PUT("/tables/:id/status", s.OverrideTableStatus)

		v1.GET("/status", s.Status)
	}
}

// Router returns the Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Status reports uptime and live connection counts.
func (s *Server) Status(c *gin.Context) {
	metrics := s.monitor.GetMetrics()
	metrics["connections"] = s.hub.ConnectionCount()
	c.JSON(http.StatusOK, metrics)
}

// respondError maps gateway failures onto the REST error contract.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, orders.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Operation not permitted for your role"})
	case errors.Is(err, orders.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
