package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/cache"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	errMissingDocumentID = errors.New("document identifier is required")
	errDocumentNotFound  = errors.New("document not found")
	errEmptyUpdate       = errors.New("update contains no fields")
	noOpLogger           = zap.NewNop()
)

// ServiceError carries a stable operation.reason code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew = "documents.service.new"
	opList       = "documents.list"
	opCreate     = "documents.create"
	opUpdate     = "documents.update"
	opDelete     = "documents.delete"
	opSearch     = "documents.search"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// IsNotFound reports whether err represents a missing document.
func IsNotFound(err error) bool {
	return errors.Is(err, errDocumentNotFound)
}

// IDProvider issues identifiers for new rows.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the registry service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Cache      cache.Store
	Logger     *zap.Logger
}

// Service implements the five registry books over one parametrized table.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	cache      cache.Store
	logger     *zap.Logger
}

// NewService validates the configuration and constructs the registry service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	store := cfg.Cache
	if store == nil {
		store = cache.NewMemoryStore()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		cache:      store,
		logger:     logger,
	}, nil
}

// List returns the variant's registry entries, newest created first. Reads
// are served from the resource cache when a snapshot is present.
func (s *Service) List(ctx context.Context, kind Kind) ([]Document, error) {
	if _, err := SpecFor(kind); err != nil {
		return nil, newServiceError(opList, "invalid_kind", err)
	}

	key := cache.KeyDocuments(string(kind))
	if cached, ok := s.cacheGet(ctx, key); ok {
		return cached, nil
	}

	var entries []Document
	if err := s.db.WithContext(ctx).
		Where("kind = ?", kind).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		s.logError(opList, "query_failed", err, zap.String("kind", string(kind)))
		return nil, newServiceError(opList, "query_failed", err)
	}

	s.cacheSet(ctx, key, entries)
	return entries, nil
}

// Create registers a new entry. The running number is assigned inside the
// insert transaction so it stays gapless per variant under the store's
// single-writer connection.
func (s *Service) Create(ctx context.Context, kind Kind, actor string, input CreateInput) (Document, error) {
	spec, err := SpecFor(kind)
	if err != nil {
		return Document{}, newServiceError(opCreate, "invalid_kind", err)
	}
	if err := input.Validate(spec); err != nil {
		return Document{}, newServiceError(opCreate, "invalid_input", err)
	}

	documentID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opCreate, "id_generation_failed", err, zap.String("kind", string(kind)))
		return Document{}, newServiceError(opCreate, "id_generation_failed", err)
	}

	now := s.clock().UTC()
	entry := Document{
		ID:             documentID,
		Kind:           kind,
		DocumentNumber: strings.TrimSpace(input.DocumentNumber),
		FromOffice:     strings.TrimSpace(input.FromOffice),
		ToPerson:       strings.TrimSpace(input.ToPerson),
		DocumentType:   strings.ToLower(strings.TrimSpace(input.DocumentType)),
		Subject:        strings.TrimSpace(input.Subject),
		Urgency:        Urgency(strings.ToLower(strings.TrimSpace(input.Urgency))),
		DocumentDate:   strings.TrimSpace(input.DocumentDate),
		Notes:          strings.TrimSpace(input.Notes),
		FileURL:        strings.TrimSpace(input.FileURL),
		IssuedAt:       now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lastNumber int64
		if err := tx.Model(&Document{}).
			Where("kind = ?", kind).
			Select("COALESCE(MAX(number), 0)").
			Scan(&lastNumber).Error; err != nil {
			return newServiceError(opCreate, "number_lookup_failed", err)
		}
		entry.Number = lastNumber + 1

		if err := tx.Create(&entry).Error; err != nil {
			return newServiceError(opCreate, "insert_failed", err)
		}
		return s.appendChange(tx, entry.ID, kind, ChangeOpCreate, actor, now)
	})
	if txErr != nil {
		s.logError(opCreate, "transaction_failed", txErr, zap.String("kind", string(kind)))
		return Document{}, txErr
	}

	s.cacheInvalidate(ctx, cache.KeyDocuments(string(kind)))
	return entry, nil
}

// Update applies a partial edit to an existing entry.
func (s *Service) Update(ctx context.Context, kind Kind, documentID, actor string, input UpdateInput) error {
	spec, err := SpecFor(kind)
	if err != nil {
		return newServiceError(opUpdate, "invalid_kind", err)
	}
	if strings.TrimSpace(documentID) == "" {
		return newServiceError(opUpdate, "missing_document_id", errMissingDocumentID)
	}
	if input.isEmpty() {
		return newServiceError(opUpdate, "empty_update", errEmptyUpdate)
	}
	if err := input.Validate(spec); err != nil {
		return newServiceError(opUpdate, "invalid_input", err)
	}

	now := s.clock().UTC()
	updates := map[string]interface{}{"updated_at": now}
	assign := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	assign("document_number", input.DocumentNumber)
	assign("from_office", input.FromOffice)
	assign("to_person", input.ToPerson)
	assign("subject", input.Subject)
	assign("document_date", input.DocumentDate)
	assign("notes", input.Notes)
	assign("file_url", input.FileURL)
	if input.DocumentType != nil {
		updates["document_type"] = strings.ToLower(strings.TrimSpace(*input.DocumentType))
	}
	if input.Urgency != nil {
		updates["urgency"] = strings.ToLower(strings.TrimSpace(*input.Urgency))
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Document{}).
			Where("id = ? AND kind = ?", documentID, kind).
			Updates(updates)
		if result.Error != nil {
			return newServiceError(opUpdate, "update_failed", result.Error)
		}
		if result.RowsAffected == 0 {
			return newServiceError(opUpdate, "not_found", errDocumentNotFound)
		}
		return s.appendChange(tx, documentID, kind, ChangeOpUpdate, actor, now)
	})
	if txErr != nil {
		if !IsNotFound(txErr) {
			s.logError(opUpdate, "transaction_failed", txErr,
				zap.String("kind", string(kind)),
				zap.String("document_id", documentID))
		}
		return txErr
	}

	s.cacheInvalidate(ctx, cache.KeyDocuments(string(kind)))
	return nil
}

// Delete removes an entry permanently. The running number is not reused.
func (s *Service) Delete(ctx context.Context, kind Kind, documentID, actor string) error {
	if _, err := SpecFor(kind); err != nil {
		return newServiceError(opDelete, "invalid_kind", err)
	}
	if strings.TrimSpace(documentID) == "" {
		return newServiceError(opDelete, "missing_document_id", errMissingDocumentID)
	}

	now := s.clock().UTC()
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND kind = ?", documentID, kind).Delete(&Document{})
		if result.Error != nil {
			return newServiceError(opDelete, "delete_failed", result.Error)
		}
		if result.RowsAffected == 0 {
			return newServiceError(opDelete, "not_found", errDocumentNotFound)
		}
		return s.appendChange(tx, documentID, kind, ChangeOpDelete, actor, now)
	})
	if txErr != nil {
		if !IsNotFound(txErr) {
			s.logError(opDelete, "transaction_failed", txErr,
				zap.String("kind", string(kind)),
				zap.String("document_id", documentID))
		}
		return txErr
	}

	s.cacheInvalidate(ctx, cache.KeyDocuments(string(kind)))
	return nil
}

// Search matches the query as a case-insensitive substring of the subject,
// caller-supplied document number, sender office or recipient, across all
// variants, newest created first.
func (s *Service) Search(ctx context.Context, query string) ([]Document, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return []Document{}, nil
	}

	pattern := "%" + strings.ToLower(trimmed) + "%"
	var entries []Document
	if err := s.db.WithContext(ctx).
		Where(
			"LOWER(subject) LIKE ? OR LOWER(document_number) LIKE ? OR LOWER(from_office) LIKE ? OR LOWER(to_person) LIKE ?",
			pattern, pattern, pattern, pattern,
		).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		s.logError(opSearch, "query_failed", err)
		return nil, newServiceError(opSearch, "query_failed", err)
	}

	return entries, nil
}

// Changes returns the audit trail for one document, oldest first.
func (s *Service) Changes(ctx context.Context, documentID string) ([]DocumentChange, error) {
	var changes []DocumentChange
	if err := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("applied_at_s ASC").
		Find(&changes).Error; err != nil {
		return nil, newServiceError(opList, "changes_query_failed", err)
	}
	return changes, nil
}

func (s *Service) appendChange(tx *gorm.DB, documentID string, kind Kind, op ChangeOp, actor string, appliedAt time.Time) error {
	changeID, err := s.idProvider.NewID()
	if err != nil {
		return newServiceError(opCreate, "id_generation_failed", err)
	}
	change := DocumentChange{
		ChangeID:         changeID,
		DocumentID:       documentID,
		Kind:             kind,
		Operation:        op,
		Actor:            strings.TrimSpace(actor),
		AppliedAtSeconds: appliedAt.Unix(),
	}
	if err := tx.Create(&change).Error; err != nil {
		return newServiceError(opCreate, "audit_insert_failed", err)
	}
	return nil
}

func (s *Service) cacheGet(ctx context.Context, key string) ([]Document, bool) {
	encoded, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("document cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var entries []Document
	if err := json.Unmarshal(encoded, &entries); err != nil {
		s.logger.Warn("document cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return entries, true
}

func (s *Service) cacheSet(ctx context.Context, key string, entries []Document) {
	encoded, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, encoded); err != nil {
		s.logger.Warn("document cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) cacheInvalidate(ctx context.Context, key string) {
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.logger.Warn("document cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("documents service error", attrs...)
}
