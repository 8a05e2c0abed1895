package documents

import (
	"context"
	"testing"
	"time"
)

func TestCreateAssignsSequentialNumbersPerVariant(t *testing.T) {
	service, _ := newTestService(t)

	first, err := service.Create(context.Background(), KindIncoming, "clerk-1", validIncomingInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := service.Create(context.Background(), KindIncoming, "clerk-1", validIncomingInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order, err := service.Create(context.Background(), KindOrder, "clerk-1", validOrderInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Number != 1 || second.Number != 2 {
		t.Fatalf("expected incoming numbers 1 and 2, got %d and %d", first.Number, second.Number)
	}
	if order.Number != 1 {
		t.Fatalf("expected order book to start its own sequence at 1, got %d", order.Number)
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct document ids")
	}
}

func TestCreateWritesAuditTrail(t *testing.T) {
	service, db := newTestService(t)

	created, err := service.Create(context.Background(), KindMemo, "clerk-2", CreateInput{
		ToPerson:     "หัวหน้าฝ่ายแผน",
		Subject:      "ขอข้อมูลงบประมาณ",
		Urgency:      string(UrgencyNormal),
		DocumentDate: "2026-08-19",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var changes []DocumentChange
	if err := db.Find(&changes).Error; err != nil {
		t.Fatalf("failed to load changes: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(changes))
	}
	if changes[0].DocumentID != created.ID {
		t.Fatalf("audit row references wrong document: %s", changes[0].DocumentID)
	}
	if changes[0].Operation != ChangeOpCreate {
		t.Fatalf("expected create op, got %s", changes[0].Operation)
	}
	if changes[0].Actor != "clerk-2" {
		t.Fatalf("expected actor clerk-2, got %q", changes[0].Actor)
	}
}

func TestCreateRejectsInvalidInputWithoutInsert(t *testing.T) {
	service, db := newTestService(t)

	input := validIncomingInput()
	input.Urgency = "whenever"
	if _, err := service.Create(context.Background(), KindIncoming, "clerk-1", input); err == nil {
		t.Fatalf("expected validation error")
	}

	var count int64
	if err := db.Model(&Document{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count documents: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no documents persisted, got %d", count)
	}
}

func TestListReturnsNewestCreatedFirst(t *testing.T) {
	service, db := newTestService(t)

	if _, err := service.Create(context.Background(), KindIncoming, "clerk-1", validIncomingInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Backdate the first entry so creation order differs from insertion order.
	if err := db.Model(&Document{}).Where("number = ?", 1).
		Update("created_at", time.Unix(1600000000, 0).UTC()).Error; err != nil {
		t.Fatalf("failed to backdate: %v", err)
	}
	if _, err := service.Create(context.Background(), KindIncoming, "clerk-1", validIncomingInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := service.List(context.Background(), KindIncoming)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Number != 2 {
		t.Fatalf("expected newest entry first, got number %d", entries[0].Number)
	}
}

func TestListServesCachedSnapshotUntilMutation(t *testing.T) {
	service, db := newTestService(t)

	if _, err := service.Create(context.Background(), KindAnnouncement, "clerk-1", CreateInput{
		Subject:      "ประกาศ",
		Urgency:      string(UrgencyNormal),
		DocumentDate: "2026-08-01",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := service.List(context.Background(), KindAnnouncement); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A direct table write bypasses invalidation, so the stale snapshot is
	// still served.
	if err := db.Exec("DELETE FROM documents").Error; err != nil {
		t.Fatalf("failed to clear table: %v", err)
	}
	cached, err := service.List(context.Background(), KindAnnouncement)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cached) != 1 {
		t.Fatalf("expected cached snapshot with 1 entry, got %d", len(cached))
	}

	// A service mutation invalidates the snapshot and the next read refetches.
	created, err := service.Create(context.Background(), KindAnnouncement, "clerk-1", CreateInput{
		Subject:      "ประกาศฉบับใหม่",
		Urgency:      string(UrgencyNormal),
		DocumentDate: "2026-08-02",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fresh, err := service.List(context.Background(), KindAnnouncement)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fresh) != 1 || fresh[0].ID != created.ID {
		t.Fatalf("expected refetched list with only the new entry, got %#v", fresh)
	}
}

func TestUpdateEditsFieldsAndKeepsNumber(t *testing.T) {
	service, db := newTestService(t)

	created, err := service.Create(context.Background(), KindIncoming, "clerk-1", validIncomingInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	subject := "เรื่องที่แก้ไขแล้ว"
	urgency := string(UrgencyMostUrgent)
	if err := service.Update(context.Background(), KindIncoming, created.ID, "clerk-3", UpdateInput{
		Subject: &subject,
		Urgency: &urgency,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var stored Document
	if err := db.Where("id = ?", created.ID).Take(&stored).Error; err != nil {
		t.Fatalf("failed to load document: %v", err)
	}
	if stored.Subject != subject {
		t.Fatalf("expected updated subject, got %q", stored.Subject)
	}
	if stored.Urgency != UrgencyMostUrgent {
		t.Fatalf("expected updated urgency, got %q", stored.Urgency)
	}
	if stored.Number != created.Number {
		t.Fatalf("running number must be immutable, got %d", stored.Number)
	}

	var auditCount int64
	if err := db.Model(&DocumentChange{}).Where("op = ?", ChangeOpUpdate).Count(&auditCount).Error; err != nil {
		t.Fatalf("failed to count audits: %v", err)
	}
	if auditCount != 1 {
		t.Fatalf("expected 1 update audit row, got %d", auditCount)
	}
}

func TestUpdateUnknownDocumentReportsNotFound(t *testing.T) {
	service, _ := newTestService(t)

	subject := "ไม่มีอยู่จริง"
	err := service.Update(context.Background(), KindIncoming, "missing-id", "clerk-1", UpdateInput{Subject: &subject})
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestDeleteRemovesDocumentAndRecordsChange(t *testing.T) {
	service, db := newTestService(t)

	created, err := service.Create(context.Background(), KindOrder, "clerk-1", validOrderInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := service.Delete(context.Background(), KindOrder, created.ID, "clerk-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int64
	if err := db.Model(&Document{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count documents: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected document removed, got %d rows", count)
	}

	if err := service.Delete(context.Background(), KindOrder, created.ID, "clerk-1"); !IsNotFound(err) {
		t.Fatalf("expected not-found on second delete, got %v", err)
	}
}

func TestDeletedNumberIsNotReused(t *testing.T) {
	service, _ := newTestService(t)

	first, err := service.Create(context.Background(), KindOutgoing, "clerk-1", CreateInput{
		ToPerson:     "นายอำเภอ",
		DocumentType: string(DocumentTypeExternal),
		Subject:      "หนังสือส่งฉบับแรก",
		Urgency:      string(UrgencyNormal),
		DocumentDate: "2026-08-10",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := service.Delete(context.Background(), KindOutgoing, first.ID, "clerk-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := service.Create(context.Background(), KindOutgoing, "clerk-1", CreateInput{
		ToPerson:     "นายอำเภอ",
		DocumentType: string(DocumentTypeInternal),
		Subject:      "หนังสือส่งฉบับที่สอง",
		Urgency:      string(UrgencyNormal),
		DocumentDate: "2026-08-11",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Number != 1 {
		t.Fatalf("max-based numbering restarts after the last row is removed, got %d", second.Number)
	}
}

func TestSearchMatchesAcrossVariantsAndFields(t *testing.T) {
	service, _ := newTestService(t)

	if _, err := service.Create(context.Background(), KindIncoming, "clerk-1", CreateInput{
		DocumentNumber: "ศธ 9999/1",
		FromOffice:     "เทศบาลตำบล",
		ToPerson:       "ปลัด",
		Subject:        "ขอความอนุเคราะห์ข้อมูล",
		Urgency:        string(UrgencyNormal),
		DocumentDate:   "2026-08-01",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.Create(context.Background(), KindAnnouncement, "clerk-1", CreateInput{
		Subject:      "ประกาศรายชื่อผู้มีสิทธิ์",
		Urgency:      string(UrgencyNormal),
		DocumentDate: "2026-08-02",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bySubject, err := service.Search(context.Background(), "รายชื่อ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bySubject) != 1 || bySubject[0].Kind != KindAnnouncement {
		t.Fatalf("expected the announcement match, got %#v", bySubject)
	}

	byNumber, err := service.Search(context.Background(), "9999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(byNumber) != 1 || byNumber[0].Kind != KindIncoming {
		t.Fatalf("expected the incoming match, got %#v", byNumber)
	}

	if results, err := service.Search(context.Background(), "   "); err != nil || len(results) != 0 {
		t.Fatalf("expected empty result for blank query, got %#v err=%v", results, err)
	}
}
