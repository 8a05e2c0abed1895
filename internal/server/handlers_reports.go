package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/documents"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/reports"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/stats"
)

func (h *httpHandler) handleDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	pooled := make([]documents.Document, 0, 64)
	for _, kind := range documents.Kinds() {
		entries, err := h.documents.List(ctx, kind)
		if err != nil {
			h.logger.Error("failed to load documents for dashboard", zap.String("kind", string(kind)), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard_failed"})
			return
		}
		pooled = append(pooled, entries...)
	}

	sent, err := h.distributions.List(ctx)
	if err != nil {
		h.logger.Error("failed to load distributions for dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard_failed"})
		return
	}
	pending, err := h.distributions.PendingIncoming(ctx)
	if err != nil {
		h.logger.Error("failed to load pending documents for dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard_failed"})
		return
	}
	// The dashboard card shows only the newest few pending entries.
	if len(pending) > 5 {
		pending = pending[:5]
	}

	dashboard := stats.Build(stats.Input{
		Documents:     pooled,
		Distributions: sent,
		Pending:       pending,
		Now:           h.clock().UTC(),
	})
	c.JSON(http.StatusOK, dashboard)
}

func (h *httpHandler) buildSummary(c *gin.Context) (reports.Summary, bool) {
	period, err := reports.ParsePeriod(c.DefaultQuery("period", string(reports.PeriodMonth)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_period"})
		return reports.Summary{}, false
	}
	window, err := reports.RangeFor(period, h.clock().UTC())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_period"})
		return reports.Summary{}, false
	}

	ctx := c.Request.Context()
	pooled := make([]documents.Document, 0, 64)
	for _, kind := range documents.Kinds() {
		entries, err := h.documents.List(ctx, kind)
		if err != nil {
			h.logger.Error("failed to load documents for report", zap.String("kind", string(kind)), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "report_failed"})
			return reports.Summary{}, false
		}
		pooled = append(pooled, entries...)
	}

	return reports.BuildSummary(window, pooled), true
}

func (h *httpHandler) handleReportSummary(c *gin.Context) {
	summary, ok := h.buildSummary(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *httpHandler) handleReportPrint(c *gin.Context) {
	summary, ok := h.buildSummary(c)
	if !ok {
		return
	}

	rendered, err := reports.RenderSummaryHTML(summary, h.clock().UTC())
	if err != nil {
		h.logger.Error("failed to render report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report_failed"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", rendered)
}
