package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/distributions"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/reports"
)

type distributionSendPayload struct {
	DocumentIDs []string `json:"document_ids"`
	RoomIDs     []string `json:"room_ids"`
}

type distributionUpdatePayload struct {
	RoomID string `json:"room_id"`
}

type distributionReportPayload struct {
	DistributionIDs []string `json:"distribution_ids"`
}

func (h *httpHandler) handleDistributionList(c *gin.Context) {
	entries, err := h.distributions.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list distributions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"distributions": entries})
}

func (h *httpHandler) handleDistributionPending(c *gin.Context) {
	pending, err := h.distributions.PendingIncoming(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list pending documents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "pending_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": pending})
}

// handleDistributionSend runs the confirm step of the send workflow: the
// selections expand to their cross product and already sent pairs are
// skipped, so the response reports only what this call actually recorded.
func (h *httpHandler) handleDistributionSend(c *gin.Context) {
	var payload distributionSendPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	workflow := distributions.NewSendWorkflow()
	if err := workflow.SelectDocuments(payload.DocumentIDs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no_documents_selected"})
		return
	}
	if err := workflow.SelectRooms(payload.RoomIDs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no_rooms_selected"})
		return
	}

	pairs := workflow.Pairs()
	inserted, err := h.distributions.CreateMany(c.Request.Context(), pairs, c.GetString(accountIDContextKey))
	if err != nil {
		if workflowErr := workflow.FailSend(); workflowErr != nil {
			h.logger.Warn("send workflow in unexpected state", zap.Error(workflowErr))
		}
		if distributions.IsEmptyBatch(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty_batch"})
			return
		}
		h.logger.Error("failed to send distributions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "send_failed"})
		return
	}
	if err := workflow.CompleteSend(); err != nil {
		h.logger.Warn("send workflow in unexpected state", zap.Error(err))
	}

	if h.metrics != nil {
		h.metrics.DistributionsCreated.Add(float64(len(inserted)))
		h.metrics.DuplicateSendsSkipped.Add(float64(len(pairs) - len(inserted)))
	}
	insertedIDs := make([]string, 0, len(inserted))
	for _, entry := range inserted {
		insertedIDs = append(insertedIDs, entry.ID)
	}
	if len(inserted) > 0 {
		h.publish(RealtimeResourceDistributions, RealtimeActionCreated, insertedIDs...)
	}

	c.JSON(http.StatusOK, gin.H{
		"inserted": inserted,
		"skipped":  len(pairs) - len(inserted),
		"print":    workflow.PrintSelection(),
	})
}

func (h *httpHandler) handleDistributionUpdate(c *gin.Context) {
	var payload distributionUpdatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	distributionID := c.Param("id")
	updated, err := h.distributions.Update(c.Request.Context(), distributionID, payload.RoomID)
	if err != nil {
		if distributions.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.logger.Error("failed to update distribution", zap.String("distribution_id", distributionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}

	h.publish(RealtimeResourceDistributions, RealtimeActionUpdated, distributionID)
	c.JSON(http.StatusOK, updated)
}

func (h *httpHandler) handleDistributionDelete(c *gin.Context) {
	distributionID := c.Param("id")
	if err := h.distributions.Delete(c.Request.Context(), distributionID); err != nil {
		if distributions.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.logger.Error("failed to delete distribution", zap.String("distribution_id", distributionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}

	h.publish(RealtimeResourceDistributions, RealtimeActionDeleted, distributionID)
	c.Status(http.StatusNoContent)
}

// handleDistributionReport renders the printable page for a just sent
// batch.
func (h *httpHandler) handleDistributionReport(c *gin.Context) {
	var payload distributionReportPayload
	if err := c.ShouldBindJSON(&payload); err != nil || len(payload.DistributionIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	entries, err := h.distributions.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load distributions for report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report_failed"})
		return
	}

	wanted := make(map[string]struct{}, len(payload.DistributionIDs))
	for _, id := range payload.DistributionIDs {
		wanted[id] = struct{}{}
	}
	selected := make([]distributions.Distribution, 0, len(wanted))
	for _, entry := range entries {
		if _, ok := wanted[entry.ID]; ok {
			selected = append(selected, entry)
		}
	}

	rendered, err := reports.RenderBatchHTML(selected, h.clock().UTC())
	if err != nil {
		h.logger.Error("failed to render batch report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report_failed"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", rendered)
}
