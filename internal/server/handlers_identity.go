package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/auth"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/users"
)

type signUpPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type signInPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type profileUpdatePayload struct {
	FullName   *string `json:"full_name"`
	Position   *string `json:"position"`
	Department *string `json:"department"`
}

func (h *httpHandler) handleSignUp(c *gin.Context) {
	var payload signUpPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	account, err := h.users.SignUp(c.Request.Context(), payload.Email, payload.Password, payload.FullName)
	if err != nil {
		if users.IsEmailTaken(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "email_taken"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": account.ID, "email": account.Email})
}

func (h *httpHandler) handleSignIn(c *gin.Context) {
	var payload signInPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	account, role, err := h.users.SignIn(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		if users.IsInvalidCredentials(err) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		h.logger.Error("sign-in failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signin_failed"})
		return
	}

	token, expiresIn, err := h.tokens.IssueToken(c.Request.Context(), auth.Identity{
		Subject: account.ID,
		Role:    string(role),
	})
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	if h.metrics != nil {
		h.metrics.SignIns.Inc()
	}
	c.JSON(http.StatusOK, tokenResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

func (h *httpHandler) handleMe(c *gin.Context) {
	accountID := c.GetString(accountIDContextKey)

	profile, role, err := h.users.ProfileWithRole(c.Request.Context(), accountID)
	if err != nil {
		if users.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.logger.Error("failed to load profile", zap.String("account_id", accountID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile, "role": role})
}

func (h *httpHandler) handleProfileUpdate(c *gin.Context) {
	var payload profileUpdatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	accountID := c.GetString(accountIDContextKey)
	updated, err := h.users.UpdateProfile(c.Request.Context(), accountID, users.ProfileUpdate{
		FullName:   payload.FullName,
		Position:   payload.Position,
		Department: payload.Department,
	})
	if err != nil {
		if users.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.logger.Error("failed to update profile", zap.String("account_id", accountID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_update_failed"})
		return
	}

	c.JSON(http.StatusOK, updated)
}
