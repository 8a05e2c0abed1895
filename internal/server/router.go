package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/auth"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/distributions"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/documents"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/metrics"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/rooms"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/storage"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/users"
)

const (
	accountIDContextKey = "registry_account_id"
	roleContextKey      = "registry_role"
)

var (
	errMissingTokenManager  = errors.New("token manager dependency required")
	errMissingDocuments     = errors.New("documents service dependency required")
	errMissingRooms         = errors.New("rooms service dependency required")
	errMissingDistributions = errors.New("distributions service dependency required")
	errMissingUsers         = errors.New("users service dependency required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// TokenManager issues and validates the session tokens handed out at
// sign-in.
type TokenManager interface {
	IssueToken(ctx context.Context, identity auth.Identity) (string, int64, error)
	ValidateToken(token string) (auth.Identity, error)
}

// Dependencies wires the services behind the HTTP surface. FileStore,
// Metrics and Realtime are optional; the matching routes and side effects
// switch off when absent.
type Dependencies struct {
	TokenManager  TokenManager
	Documents     *documents.Service
	Rooms         *rooms.Service
	Distributions *distributions.Service
	Users         *users.Service
	FileStore     *storage.Store
	Metrics       *metrics.Metrics
	Realtime      *RealtimeDispatcher
	MetricsRoute  http.Handler
	Clock         func() time.Time
	Logger        *zap.Logger
}

// NewHTTPHandler assembles the gin router serving the registry API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.Documents == nil {
		return nil, errMissingDocuments
	}
	if deps.Rooms == nil {
		return nil, errMissingRooms
	}
	if deps.Distributions == nil {
		return nil, errMissingDistributions
	}
	if deps.Users == nil {
		return nil, errMissingUsers
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:        deps.TokenManager,
		documents:     deps.Documents,
		rooms:         deps.Rooms,
		distributions: deps.Distributions,
		users:         deps.Users,
		files:         deps.FileStore,
		metrics:       deps.Metrics,
		realtime:      deps.Realtime,
		clock:         clock,
		logger:        logger,
	}

	router.GET("/v1/health", handler.handleHealth)
	router.POST("/v1/auth/signup", handler.handleSignUp)
	router.POST("/v1/auth/signin", handler.handleSignIn)
	if deps.MetricsRoute != nil {
		router.GET("/metrics", gin.WrapH(deps.MetricsRoute))
	} else {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	if deps.FileStore != nil {
		router.Static("/files", deps.FileStore.Root())
	}

	protected := router.Group("/v1")
	protected.Use(handler.authorizeRequest)
	protected.GET("/documents/:kind", handler.handleDocumentList)
	protected.POST("/documents/:kind", handler.handleDocumentCreate)
	protected.PATCH("/documents/:kind/:id", handler.handleDocumentUpdate)
	protected.DELETE("/documents/:kind/:id", handler.handleDocumentDelete)
	protected.GET("/documents/:kind/:id/changes", handler.handleDocumentChanges)
	protected.GET("/search", handler.handleSearch)
	protected.GET("/rooms", handler.handleRoomList)
	protected.POST("/rooms", handler.handleRoomCreate)
	protected.DELETE("/rooms/:id", handler.handleRoomDelete)
	protected.GET("/distributions", handler.handleDistributionList)
	protected.GET("/distributions/pending", handler.handleDistributionPending)
	protected.POST("/distributions/send", handler.handleDistributionSend)
	protected.POST("/distributions/report", handler.handleDistributionReport)
	protected.PATCH("/distributions/:id", handler.handleDistributionUpdate)
	protected.DELETE("/distributions/:id", handler.handleDistributionDelete)
	protected.GET("/stats/dashboard", handler.handleDashboard)
	protected.GET("/reports/summary", handler.handleReportSummary)
	protected.GET("/reports/print", handler.handleReportPrint)
	protected.GET("/me", handler.handleMe)
	protected.PATCH("/me/profile", handler.handleProfileUpdate)
	protected.POST("/files", handler.handleFileUpload)
	protected.DELETE("/files", handler.handleFileDelete)
	protected.GET("/events", handler.handleEvents)

	return router, nil
}

type httpHandler struct {
	tokens        TokenManager
	documents     *documents.Service
	rooms         *rooms.Service
	distributions *distributions.Service
	users         *users.Service
	files         *storage.Store
	metrics       *metrics.Metrics
	realtime      *RealtimeDispatcher
	clock         func() time.Time
	logger        *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	identity, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(accountIDContextKey, identity.Subject)
	c.Set(roleContextKey, identity.Role)
	c.Next()
}

// publish is a no-op when no dispatcher is wired.
func (h *httpHandler) publish(resource, action string, ids ...string) {
	if h.realtime == nil {
		return
	}
	h.realtime.Publish(RealtimeMessage{
		Resource:  resource,
		Action:    action,
		IDs:       ids,
		Timestamp: h.clock().UTC(),
	})
}
