package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/auth"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/distributions"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/documents"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/metrics"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/rooms"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/users"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:registry_router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&documents.Document{},
		&documents.DocumentChange{},
		&rooms.Room{},
		&distributions.Distribution{},
		&users.Account{},
		&users.Profile{},
		&users.UserRole{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	idProvider := documents.NewUUIDProvider()
	documentService, err := documents.NewService(documents.ServiceConfig{Database: db, IDProvider: idProvider})
	if err != nil {
		t.Fatalf("failed to construct documents service: %v", err)
	}
	roomService, err := rooms.NewService(rooms.ServiceConfig{Database: db, IDProvider: idProvider})
	if err != nil {
		t.Fatalf("failed to construct rooms service: %v", err)
	}
	distributionService, err := distributions.NewService(distributions.ServiceConfig{Database: db, IDProvider: idProvider})
	if err != nil {
		t.Fatalf("failed to construct distributions service: %v", err)
	}
	userService, err := users.NewService(users.ServiceConfig{Database: db, IDProvider: idProvider, BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("failed to construct users service: %v", err)
	}
	tokenIssuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte("router-test-secret"),
		Issuer:        "registry-auth",
		Audience:      "registry-api",
		TokenTTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to construct token issuer: %v", err)
	}

	registry := prometheus.NewRegistry()
	handler, err := NewHTTPHandler(Dependencies{
		TokenManager:  tokenIssuer,
		Documents:     documentService,
		Rooms:         roomService,
		Distributions: distributionService,
		Users:         userService,
		Metrics:       metrics.New(registry),
		MetricsRoute:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Realtime:      NewRealtimeDispatcher(),
	})
	if err != nil {
		t.Fatalf("failed to construct router: %v", err)
	}
	return handler
}

func doJSON(t *testing.T, handler http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, target, http.NoBody)
	} else {
		request = httptest.NewRequest(method, target, strings.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func signUpAndSignIn(t *testing.T, handler http.Handler) string {
	t.Helper()

	recorder := doJSON(t, handler, http.MethodPost, "/v1/auth/signup", "",
		`{"email":"clerk@example.go.th","password":"correct-horse","full_name":"สมหญิง ใจดี"}`)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected signup created, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = doJSON(t, handler, http.MethodPost, "/v1/auth/signin", "",
		`{"email":"clerk@example.go.th","password":"correct-horse"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected signin ok, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var payload tokenResponsePayload
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode token response: %v", err)
	}
	if payload.AccessToken == "" || payload.TokenType != "Bearer" {
		t.Fatalf("unexpected token payload %+v", payload)
	}
	return payload.AccessToken
}

func TestProtectedRoutesRejectMissingBearerToken(t *testing.T) {
	handler := newTestRouter(t)

	recorder := doJSON(t, handler, http.MethodGet, "/v1/documents/incoming", "", "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", recorder.Code)
	}

	recorder = doJSON(t, handler, http.MethodGet, "/v1/documents/incoming", "not-a-token", "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized for bad token, got %d", recorder.Code)
	}
}

func TestSignInRejectsWrongPassword(t *testing.T) {
	handler := newTestRouter(t)
	signUpAndSignIn(t, handler)

	recorder := doJSON(t, handler, http.MethodPost, "/v1/auth/signin", "",
		`{"email":"clerk@example.go.th","password":"wrong-horse"}`)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", recorder.Code)
	}
}

func TestDocumentCreateAndListRoundTrip(t *testing.T) {
	handler := newTestRouter(t)
	token := signUpAndSignIn(t, handler)

	recorder := doJSON(t, handler, http.MethodPost, "/v1/documents/incoming", token,
		`{"document_number":"ศธ 0201/123","from_office":"สำนักงานปลัดกระทรวง","to_person":"ผู้อำนวยการ","subject":"ขอเชิญประชุม","urgency":"urgent","document_date":"2026-08-20"}`)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected created, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var created documents.Document
	if err := json.Unmarshal(recorder.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode created document: %v", err)
	}
	if created.Number != 1 {
		t.Fatalf("expected running number 1, got %d", created.Number)
	}

	recorder = doJSON(t, handler, http.MethodGet, "/v1/documents/incoming", token, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected ok, got %d", recorder.Code)
	}
	var listing struct {
		Documents []documents.Document `json:"documents"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &listing); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if len(listing.Documents) != 1 || listing.Documents[0].ID != created.ID {
		t.Fatalf("expected the created document listed, got %+v", listing.Documents)
	}
}

func TestDocumentCreateRejectsWrongShapeForVariant(t *testing.T) {
	handler := newTestRouter(t)
	token := signUpAndSignIn(t, handler)

	// Orders carry no from_office column.
	recorder := doJSON(t, handler, http.MethodPost, "/v1/documents/order", token,
		`{"from_office":"สำนักงานปลัดกระทรวง","subject":"คำสั่งแต่งตั้ง","urgency":"normal","document_date":"2026-08-20"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestDocumentRoutesRejectUnknownKind(t *testing.T) {
	handler := newTestRouter(t)
	token := signUpAndSignIn(t, handler)

	recorder := doJSON(t, handler, http.MethodGet, "/v1/documents/invoice", token, "")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", recorder.Code)
	}
}

func TestDistributionSendSkipsAlreadySentPairs(t *testing.T) {
	handler := newTestRouter(t)
	token := signUpAndSignIn(t, handler)

	recorder := doJSON(t, handler, http.MethodPost, "/v1/documents/incoming", token,
		`{"document_number":"ศธ 0201/200","from_office":"สำนักงานเขต","to_person":"ผู้อำนวยการ","subject":"แจ้งเวียน","urgency":"normal","document_date":"2026-08-21"}`)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected created, got %d", recorder.Code)
	}
	var document documents.Document
	if err := json.Unmarshal(recorder.Body.Bytes(), &document); err != nil {
		t.Fatalf("failed to decode document: %v", err)
	}

	recorder = doJSON(t, handler, http.MethodPost, "/v1/rooms", token, `{"name":"ห้องสารบรรณ"}`)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected created, got %d", recorder.Code)
	}
	var room rooms.Room
	if err := json.Unmarshal(recorder.Body.Bytes(), &room); err != nil {
		t.Fatalf("failed to decode room: %v", err)
	}

	sendBody := fmt.Sprintf(`{"document_ids":[%q],"room_ids":[%q]}`, document.ID, room.ID)
	recorder = doJSON(t, handler, http.MethodPost, "/v1/distributions/send", token, sendBody)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected ok, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var first struct {
		Inserted []distributions.Distribution `json:"inserted"`
		Skipped  int                          `json:"skipped"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &first); err != nil {
		t.Fatalf("failed to decode send response: %v", err)
	}
	if len(first.Inserted) != 1 || first.Skipped != 0 {
		t.Fatalf("expected one inserted row, got %+v", first)
	}

	recorder = doJSON(t, handler, http.MethodPost, "/v1/distributions/send", token, sendBody)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected retry to succeed, got %d", recorder.Code)
	}
	var second struct {
		Inserted []distributions.Distribution `json:"inserted"`
		Skipped  int                          `json:"skipped"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &second); err != nil {
		t.Fatalf("failed to decode retry response: %v", err)
	}
	if len(second.Inserted) != 0 || second.Skipped != 1 {
		t.Fatalf("expected retry skipped, got %+v", second)
	}
}

func TestDistributionSendRequiresSelections(t *testing.T) {
	handler := newTestRouter(t)
	token := signUpAndSignIn(t, handler)

	recorder := doJSON(t, handler, http.MethodPost, "/v1/distributions/send", token,
		`{"document_ids":[],"room_ids":["room-1"]}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request for empty documents, got %d", recorder.Code)
	}

	recorder = doJSON(t, handler, http.MethodPost, "/v1/distributions/send", token,
		`{"document_ids":["doc-1"],"room_ids":[]}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request for empty rooms, got %d", recorder.Code)
	}
}

func TestDashboardReportsPendingAndUrgencyShape(t *testing.T) {
	handler := newTestRouter(t)
	token := signUpAndSignIn(t, handler)

	recorder := doJSON(t, handler, http.MethodPost, "/v1/documents/incoming", token,
		`{"document_number":"ศธ 0201/300","from_office":"สำนักงานเขต","to_person":"ผู้อำนวยการ","subject":"หนังสือค้างส่ง","urgency":"most_urgent","document_date":"2026-08-22"}`)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected created, got %d", recorder.Code)
	}

	recorder = doJSON(t, handler, http.MethodGet, "/v1/stats/dashboard", token, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected ok, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var dashboard struct {
		MonthlySeries []struct {
			Label string `json:"label"`
		} `json:"monthly_series"`
		UrgencyCounts []struct {
			Urgency string `json:"urgency"`
			Count   int    `json:"count"`
		} `json:"urgency_counts"`
		PendingIncoming []documents.Document `json:"pending_incoming"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &dashboard); err != nil {
		t.Fatalf("failed to decode dashboard: %v", err)
	}
	if len(dashboard.MonthlySeries) != 6 {
		t.Fatalf("expected 6 monthly entries, got %d", len(dashboard.MonthlySeries))
	}
	if len(dashboard.UrgencyCounts) != 4 {
		t.Fatalf("expected 4 urgency levels, got %d", len(dashboard.UrgencyCounts))
	}
	if len(dashboard.PendingIncoming) != 1 {
		t.Fatalf("expected 1 pending document, got %d", len(dashboard.PendingIncoming))
	}
}

func TestReportSummaryRejectsUnknownPeriod(t *testing.T) {
	handler := newTestRouter(t)
	token := signUpAndSignIn(t, handler)

	recorder := doJSON(t, handler, http.MethodGet, "/v1/reports/summary?period=quarter", token, "")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", recorder.Code)
	}
}

func TestReportPrintRendersHTML(t *testing.T) {
	handler := newTestRouter(t)
	token := signUpAndSignIn(t, handler)

	recorder := doJSON(t, handler, http.MethodGet, "/v1/reports/print?period=month", token, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected ok, got %d", recorder.Code)
	}
	if contentType := recorder.Header().Get("Content-Type"); !strings.HasPrefix(contentType, "text/html") {
		t.Fatalf("expected html content type, got %q", contentType)
	}
	if !strings.Contains(recorder.Body.String(), "รายงานสรุปทะเบียนหนังสือ") {
		t.Fatalf("expected Thai report heading in body")
	}
}

func TestMeReturnsProfileAndRole(t *testing.T) {
	handler := newTestRouter(t)
	token := signUpAndSignIn(t, handler)

	recorder := doJSON(t, handler, http.MethodGet, "/v1/me", token, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected ok, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var payload struct {
		Profile users.Profile `json:"profile"`
		Role    string        `json:"role"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode me response: %v", err)
	}
	if payload.Role != string(users.RoleUser) {
		t.Fatalf("expected default user role, got %q", payload.Role)
	}
	if payload.Profile.FullName != "สมหญิง ใจดี" {
		t.Fatalf("expected sign-up name in profile, got %q", payload.Profile.FullName)
	}
}

func TestProfileUpdateAppliesPartialChange(t *testing.T) {
	handler := newTestRouter(t)
	token := signUpAndSignIn(t, handler)

	recorder := doJSON(t, handler, http.MethodPatch, "/v1/me/profile", token,
		`{"department":"กลุ่มอำนวยการ"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected ok, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var profile users.Profile
	if err := json.Unmarshal(recorder.Body.Bytes(), &profile); err != nil {
		t.Fatalf("failed to decode profile: %v", err)
	}
	if profile.Department != "กลุ่มอำนวยการ" {
		t.Fatalf("expected department updated, got %q", profile.Department)
	}
	if profile.FullName != "สมหญิง ใจดี" {
		t.Fatalf("expected full name untouched, got %q", profile.FullName)
	}
}

func TestHealthIsPublic(t *testing.T) {
	handler := newTestRouter(t)

	recorder := doJSON(t, handler, http.MethodGet, "/v1/health", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected ok, got %d", recorder.Code)
	}
}

func TestCORSPreflightAllowsAuthorizationHeader(t *testing.T) {
	handler := newTestRouter(t)

	request := httptest.NewRequest(http.MethodOptions, "/v1/documents/incoming", http.NoBody)
	request.Header.Set("Origin", "https://registry.example.go.th")
	request.Header.Set("Access-Control-Request-Method", http.MethodPost)
	request.Header.Set("Access-Control-Request-Headers", "Authorization")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, recorder.Code)
	}
	allowHeaders := recorder.Header().Get("Access-Control-Allow-Headers")
	if !strings.Contains(strings.ToLower(allowHeaders), "authorization") {
		t.Fatalf("expected Authorization allowed, got %q", allowHeaders)
	}
}
