package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type fileDeletePayload struct {
	FileURL string `json:"file_url"`
}

func (h *httpHandler) handleFileUpload(c *gin.Context) {
	if h.files == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "file_storage_disabled"})
		return
	}

	folder := strings.TrimSpace(c.DefaultQuery("folder", "documents"))
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	opened, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	defer opened.Close()

	fileURL, err := h.files.Upload(folder, header.Filename, opened)
	if err != nil {
		h.logger.Error("file upload failed", zap.String("folder", folder), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload_failed"})
		return
	}

	if h.metrics != nil {
		h.metrics.FilesUploaded.Inc()
	}
	c.JSON(http.StatusCreated, gin.H{"file_url": fileURL})
}

func (h *httpHandler) handleFileDelete(c *gin.Context) {
	if h.files == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "file_storage_disabled"})
		return
	}

	var payload fileDeletePayload
	if err := c.ShouldBindJSON(&payload); err != nil || strings.TrimSpace(payload.FileURL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	removed, err := h.files.Delete(payload.FileURL)
	if err != nil {
		h.logger.Error("file delete failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": removed})
}
