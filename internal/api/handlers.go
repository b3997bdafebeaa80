package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drschille/CRDT-Server/internal/auth"
	"github.com/drschille/CRDT-Server/internal/collab"
	"github.com/drschille/CRDT-Server/internal/config"
)

// Handler holds the dependencies for HTTP handlers
type Handler struct {
	hub *collab.Hub
	ws  *collab.Server
	cfg *config.Config
}

// NewHandler creates a new HTTP handler
func NewHandler(hub *collab.Hub, ws *collab.Server, cfg *config.Config) *Handler {
	return &Handler{hub: hub, ws: ws, cfg: cfg}
}

// RegisterRoutes registers all HTTP routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.HealthCheck)
	r.GET("/stats", h.Stats)
	r.GET("/ws", gin.WrapH(h.ws))

	// Dev token issuance for testing the bearer identity path
	r.POST("/auth/token", h.IssueToken)

	if !h.cfg.IsProduction() {
		r.GET("/debug/state", h.DebugState)
	}
}

// HealthCheck reports liveness; a failing flush degrades health until the
// retry succeeds.
func (h *Handler) HealthCheck(c *gin.Context) {
	if err := h.hub.LastFlushError(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Stats returns connection and document counters.
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Stats())
}

// DebugState dumps the registry, the bulletin board, and every list
// document currently held in memory; list documents not loaded since
// startup are not included. Hidden in production.
func (h *Handler) DebugState(c *gin.Context) {
	state, err := h.hub.DebugState(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

// IssueToken mints a session token for a username.
func (h *Handler) IssueToken(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}
	if !auth.ValidUsername(req.Username) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username"})
		return
	}
	token, err := auth.GenerateToken(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
