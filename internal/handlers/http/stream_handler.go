package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/internal/core/services"
	"stagecast/internal/infrastructure/middleware"
	"stagecast/pkg/validation"
)

type StreamHandler struct {
	rooms ports.RoomService
	audit ports.AuditRepository
	stats *services.MetricsService
}

func NewStreamHandler(rooms ports.RoomService, audit ports.AuditRepository, stats *services.MetricsService) *StreamHandler {
	return &StreamHandler{rooms: rooms, audit: audit, stats: stats}
}

func (h *StreamHandler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	streams := rg.Group("/streams")
	{
		streams.GET("", h.ListLive)
		streams.GET("/:id", h.GetRoom)
		streams.GET("/:id/audit", h.ListAudit)
		streams.GET("/:id/stats", h.GetStats)

		streams.POST("", requireAuth, h.CreateRoom)
		streams.POST("/:id/live", requireAuth, h.GoLive)
		streams.POST("/:id/stop", requireAuth, h.StopStream)
		streams.POST("/:id/guests", requireAuth, h.AddGuest)
	}
}

type createRoomRequest struct {
	Title      string `json:"title" binding:"required"`
	IsPrivate  bool   `json:"is_private"`
	AccessCode string `json:"access_code"`
}

func (h *StreamHandler) CreateRoom(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	if err := validation.ValidateStreamTitle(req.Title); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), userID, req.Title, req.IsPrivate, req.AccessCode)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, room)
}

func (h *StreamHandler) ListLive(c *gin.Context) {
	rooms, err := h.rooms.ListLive(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"streams": rooms, "count": len(rooms)})
}

func (h *StreamHandler) GetRoom(c *gin.Context) {
	id := c.Param("id")
	if err := validation.ValidateID(id, "stream id"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.rooms.GetRoom(c.Request.Context(), domain.StreamID(id))
	if err != nil {
		c.Error(err)
		return
	}

	// The access code never leaves the server.
	room.AccessCode = ""
	c.JSON(http.StatusOK, room)
}

func (h *StreamHandler) GoLive(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	id := domain.StreamID(c.Param("id"))
	if err := h.rooms.GoLive(c.Request.Context(), id, userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stream_id": id, "is_live": true})
}

func (h *StreamHandler) StopStream(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	id := domain.StreamID(c.Param("id"))
	if err := h.rooms.StopStream(c.Request.Context(), id, userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stream_id": id, "is_live": false})
}

type addGuestRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
}

func (h *StreamHandler) AddGuest(c *gin.Context) {
	var req addGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "display_name is required"})
		return
	}
	if err := validation.ValidateDisplayName(req.DisplayName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	guest, err := h.rooms.AddGuest(c.Request.Context(), domain.StreamID(c.Param("id")), req.DisplayName)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, guest)
}

func (h *StreamHandler) ListAudit(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	actions, err := h.audit.ListByStream(c.Request.Context(), domain.StreamID(c.Param("id")), limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"actions": actions, "count": len(actions)})
}

func (h *StreamHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.GetRoomStats(domain.StreamID(c.Param("id"))))
}
