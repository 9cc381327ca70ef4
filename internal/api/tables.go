package api

import (
	"net/http"

	"brigade/internal/auth"
	"brigade/internal/models"

	"github.com/gin-gonic/gin"
)

// ListTables returns every table with its derived status. Reconnecting
// clients use this to catch up; the real-time channel does not replay.
func (s *Server) ListTables(c *gin.Context) {
	tables, err := s.svc.ListTables()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tables)
}

type tableStatusRequest struct {
	Status models.TableStatus `json:"status" binding:"required"`
}

// OverrideTableStatus is the explicit manager override on a table.
func (s *Server) OverrideTableStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req tableStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	table, err := s.svc.SetTableStatus(auth.IdentityFrom(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}
