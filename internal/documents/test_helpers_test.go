package documents

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type sequenceIDGenerator struct {
	prefix string
	next   int
}

func (g *sequenceIDGenerator) NewID() (string, error) {
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next), nil
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:registry_documents_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Document{}, &DocumentChange{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	clock := func() time.Time { return time.Unix(1760000000, 0).UTC() }
	service, err := NewService(ServiceConfig{
		Database:   db,
		Clock:      clock,
		IDProvider: &sequenceIDGenerator{prefix: "id"},
	})
	if err != nil {
		t.Fatalf("failed to construct documents service: %v", err)
	}

	return service, db
}

func validIncomingInput() CreateInput {
	return CreateInput{
		DocumentNumber: "ศธ 0512/123",
		FromOffice:     "สำนักงานเขต",
		ToPerson:       "ผู้อำนวยการ",
		Subject:        "ขอเชิญประชุม",
		Urgency:        string(UrgencyNormal),
		DocumentDate:   "2026-08-20",
	}
}

func validOrderInput() CreateInput {
	return CreateInput{
		Subject:      "แต่งตั้งคณะกรรมการ",
		Urgency:      string(UrgencyUrgent),
		DocumentDate: "2026-08-21",
	}
}
