package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/documents"
)

type documentCreatePayload struct {
	DocumentNumber string `json:"document_number"`
	FromOffice     string `json:"from_office"`
	ToPerson       string `json:"to_person"`
	DocumentType   string `json:"document_type"`
	Subject        string `json:"subject"`
	Urgency        string `json:"urgency"`
	DocumentDate   string `json:"document_date"`
	Notes          string `json:"notes"`
	FileURL        string `json:"file_url"`
}

type documentUpdatePayload struct {
	DocumentNumber *string `json:"document_number"`
	FromOffice     *string `json:"from_office"`
	ToPerson       *string `json:"to_person"`
	DocumentType   *string `json:"document_type"`
	Subject        *string `json:"subject"`
	Urgency        *string `json:"urgency"`
	DocumentDate   *string `json:"document_date"`
	Notes          *string `json:"notes"`
	FileURL        *string `json:"file_url"`
}

func (h *httpHandler) handleDocumentList(c *gin.Context) {
	kind, err := documents.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_kind"})
		return
	}

	entries, err := h.documents.List(c.Request.Context(), kind)
	if err != nil {
		h.logger.Error("failed to list documents", zap.String("kind", string(kind)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": entries})
}

func (h *httpHandler) handleDocumentCreate(c *gin.Context) {
	kind, err := documents.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_kind"})
		return
	}

	var payload documentCreatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	created, err := h.documents.Create(c.Request.Context(), kind, c.GetString(accountIDContextKey), documents.CreateInput{
		DocumentNumber: payload.DocumentNumber,
		FromOffice:     payload.FromOffice,
		ToPerson:       payload.ToPerson,
		DocumentType:   payload.DocumentType,
		Subject:        payload.Subject,
		Urgency:        payload.Urgency,
		DocumentDate:   payload.DocumentDate,
		Notes:          payload.Notes,
		FileURL:        payload.FileURL,
	})
	if err != nil {
		if isDocumentValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to create document", zap.String("kind", string(kind)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}

	if h.metrics != nil {
		h.metrics.DocumentsCreated.WithLabelValues(string(kind)).Inc()
	}
	h.publish(RealtimeResourceDocuments, RealtimeActionCreated, created.ID)
	c.JSON(http.StatusCreated, created)
}

func (h *httpHandler) handleDocumentUpdate(c *gin.Context) {
	kind, err := documents.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_kind"})
		return
	}

	var payload documentUpdatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	documentID := c.Param("id")
	err = h.documents.Update(c.Request.Context(), kind, documentID, c.GetString(accountIDContextKey), documents.UpdateInput{
		DocumentNumber: payload.DocumentNumber,
		FromOffice:     payload.FromOffice,
		ToPerson:       payload.ToPerson,
		DocumentType:   payload.DocumentType,
		Subject:        payload.Subject,
		Urgency:        payload.Urgency,
		DocumentDate:   payload.DocumentDate,
		Notes:          payload.Notes,
		FileURL:        payload.FileURL,
	})
	if err != nil {
		if documents.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		if isDocumentValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to update document", zap.String("document_id", documentID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}

	h.publish(RealtimeResourceDocuments, RealtimeActionUpdated, documentID)
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleDocumentDelete(c *gin.Context) {
	kind, err := documents.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_kind"})
		return
	}

	documentID := c.Param("id")
	if err := h.documents.Delete(c.Request.Context(), kind, documentID, c.GetString(accountIDContextKey)); err != nil {
		if documents.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.logger.Error("failed to delete document", zap.String("document_id", documentID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}

	if h.metrics != nil {
		h.metrics.DocumentsDeleted.WithLabelValues(string(kind)).Inc()
	}
	h.publish(RealtimeResourceDocuments, RealtimeActionDeleted, documentID)
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleDocumentChanges(c *gin.Context) {
	if _, err := documents.ParseKind(c.Param("kind")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_kind"})
		return
	}

	changes, err := h.documents.Changes(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("failed to load document changes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "changes_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changes": changes})
}

func (h *httpHandler) handleSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))

	results, err := h.documents.Search(c.Request.Context(), query)
	if err != nil {
		h.logger.Error("search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": results})
}

func isDocumentValidationError(err error) bool {
	for _, sentinel := range []error{
		documents.ErrInvalidKind,
		documents.ErrInvalidUrgency,
		documents.ErrInvalidDocumentType,
		documents.ErrInvalidSubject,
		documents.ErrInvalidDocumentDate,
		documents.ErrMissingField,
		documents.ErrFieldNotAllowed,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
