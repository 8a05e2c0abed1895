package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/rooms"
)

type roomCreatePayload struct {
	Name string `json:"name"`
}

func (h *httpHandler) handleRoomList(c *gin.Context) {
	entries, err := h.rooms.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list rooms", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": entries})
}

func (h *httpHandler) handleRoomCreate(c *gin.Context) {
	var payload roomCreatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	created, err := h.rooms.Create(c.Request.Context(), payload.Name)
	if err != nil {
		if errors.Is(err, rooms.ErrInvalidRoomName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_room_name"})
			return
		}
		h.logger.Error("failed to create room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}

	h.publish(RealtimeResourceRooms, RealtimeActionCreated, created.ID)
	c.JSON(http.StatusCreated, created)
}

func (h *httpHandler) handleRoomDelete(c *gin.Context) {
	roomID := c.Param("id")
	if err := h.rooms.Delete(c.Request.Context(), roomID); err != nil {
		if rooms.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.logger.Error("failed to delete room", zap.String("room_id", roomID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}

	h.publish(RealtimeResourceRooms, RealtimeActionDeleted, roomID)
	c.Status(http.StatusNoContent)
}
