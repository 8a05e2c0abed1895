package distributions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/cache"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/documents"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	errMissingID         = errors.New("distribution identifier is required")
	errMissingRoomID     = errors.New("room identifier is required")
	errNotFound          = errors.New("distribution not found")
	errNoPairs           = errors.New("at least one document-room pair is required")
	errInvalidPair       = errors.New("pair is missing a document or room identifier")
	noOpLogger           = zap.NewNop()
)

const (
	opServiceNew = "distributions.service.new"
	opList       = "distributions.list"
	opCreateMany = "distributions.create_many"
	opUpdate     = "distributions.update"
	opDelete     = "distributions.delete"
	opPending    = "distributions.pending"
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

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// IsNotFound reports whether err represents a missing distribution.
func IsNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}

// IsEmptyBatch reports whether err represents a send with no pairs.
func IsEmptyBatch(err error) bool {
	return errors.Is(err, errNoPairs)
}

// IDProvider issues identifiers for new rows.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the distribution service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Cache      cache.Store
	Logger     *zap.Logger
}

// Service manages document-to-room distribution links.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	cache      cache.Store
	logger     *zap.Logger
}

// NewService validates the configuration and constructs the distribution service.
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

// List returns all distributions newest sent first, each expanded with its
// related document and room.
func (s *Service) List(ctx context.Context) ([]Distribution, error) {
	if cached, ok := s.cacheGet(ctx); ok {
		return cached, nil
	}

	var entries []Distribution
	if err := s.db.WithContext(ctx).
		Preload("IncomingDocument").
		Preload("Room").
		Order("sent_at DESC").
		Find(&entries).Error; err != nil {
		s.logError(opList, "query_failed", err)
		return nil, newServiceError(opList, "query_failed", err)
	}

	s.cacheSet(ctx, entries)
	return entries, nil
}

// CreateMany inserts the batch in one transaction and returns only the rows
// actually inserted. Pairs already present in the table, and duplicates
// inside the batch itself, are skipped rather than failing the whole batch,
// so retrying a partially sent batch never errors.
func (s *Service) CreateMany(ctx context.Context, pairs []Pair, sentBy string) ([]Distribution, error) {
	candidates := dedupePairs(pairs)
	if len(candidates) == 0 {
		return nil, newServiceError(opCreateMany, "empty_batch", errNoPairs)
	}
	for _, pair := range candidates {
		if strings.TrimSpace(pair.IncomingDocumentID) == "" || strings.TrimSpace(pair.RoomID) == "" {
			return nil, newServiceError(opCreateMany, "invalid_pair", errInvalidPair)
		}
	}

	now := s.clock().UTC()
	inserted := make([]Distribution, 0, len(candidates))
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := make(map[Pair]struct{})
		var stored []Distribution
		if err := tx.Find(&stored).Error; err != nil {
			return newServiceError(opCreateMany, "existing_lookup_failed", err)
		}
		for _, row := range stored {
			existing[Pair{IncomingDocumentID: row.IncomingDocumentID, RoomID: row.RoomID}] = struct{}{}
		}

		for _, pair := range candidates {
			if _, ok := existing[pair]; ok {
				continue
			}
			rowID, err := s.idProvider.NewID()
			if err != nil {
				return newServiceError(opCreateMany, "id_generation_failed", err)
			}
			inserted = append(inserted, Distribution{
				ID:                 rowID,
				IncomingDocumentID: pair.IncomingDocumentID,
				RoomID:             pair.RoomID,
				SentAt:             now,
				SentBy:             strings.TrimSpace(sentBy),
				CreatedAt:          now,
			})
		}
		if len(inserted) == 0 {
			return nil
		}

		// The unique index is the final arbiter: a concurrent send racing
		// this transaction loses to the conflict target instead of erroring.
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "incoming_document_id"}, {Name: "room_id"}},
			DoNothing: true,
		}).Create(&inserted).Error; err != nil {
			return newServiceError(opCreateMany, "insert_failed", err)
		}
		return nil
	})
	if txErr != nil {
		s.logError(opCreateMany, "transaction_failed", txErr, zap.Int("pairs", len(candidates)))
		return nil, txErr
	}

	s.invalidate(ctx)
	return inserted, nil
}

// Update reassigns a distribution to a different room and returns the
// updated row.
func (s *Service) Update(ctx context.Context, distributionID, roomID string) (Distribution, error) {
	if strings.TrimSpace(distributionID) == "" {
		return Distribution{}, newServiceError(opUpdate, "missing_id", errMissingID)
	}
	if strings.TrimSpace(roomID) == "" {
		return Distribution{}, newServiceError(opUpdate, "missing_room_id", errMissingRoomID)
	}

	result := s.db.WithContext(ctx).Model(&Distribution{}).
		Where("id = ?", distributionID).
		Update("room_id", roomID)
	if result.Error != nil {
		s.logError(opUpdate, "update_failed", result.Error, zap.String("distribution_id", distributionID))
		return Distribution{}, newServiceError(opUpdate, "update_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return Distribution{}, newServiceError(opUpdate, "not_found", errNotFound)
	}

	var updated Distribution
	if err := s.db.WithContext(ctx).
		Preload("IncomingDocument").
		Preload("Room").
		Where("id = ?", distributionID).
		Take(&updated).Error; err != nil {
		s.logError(opUpdate, "reload_failed", err, zap.String("distribution_id", distributionID))
		return Distribution{}, newServiceError(opUpdate, "reload_failed", err)
	}

	s.invalidate(ctx)
	return updated, nil
}

// Delete removes one distribution link.
func (s *Service) Delete(ctx context.Context, distributionID string) error {
	if strings.TrimSpace(distributionID) == "" {
		return newServiceError(opDelete, "missing_id", errMissingID)
	}

	result := s.db.WithContext(ctx).Where("id = ?", distributionID).Delete(&Distribution{})
	if result.Error != nil {
		s.logError(opDelete, "delete_failed", result.Error, zap.String("distribution_id", distributionID))
		return newServiceError(opDelete, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newServiceError(opDelete, "not_found", errNotFound)
	}

	s.invalidate(ctx)
	return nil
}

// PendingIncoming returns incoming documents not yet routed to any room,
// newest created first.
func (s *Service) PendingIncoming(ctx context.Context) ([]documents.Document, error) {
	var pending []documents.Document
	if err := s.db.WithContext(ctx).
		Where("kind = ?", documents.KindIncoming).
		Where("id NOT IN (?)", s.db.Model(&Distribution{}).Select("incoming_document_id")).
		Order("created_at DESC").
		Find(&pending).Error; err != nil {
		s.logError(opPending, "query_failed", err)
		return nil, newServiceError(opPending, "query_failed", err)
	}
	return pending, nil
}

func dedupePairs(pairs []Pair) []Pair {
	seen := make(map[Pair]struct{}, len(pairs))
	result := make([]Pair, 0, len(pairs))
	for _, pair := range pairs {
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		result = append(result, pair)
	}
	return result
}

func (s *Service) cacheGet(ctx context.Context) ([]Distribution, bool) {
	encoded, ok, err := s.cache.Get(ctx, cache.KeyDistributions)
	if err != nil {
		s.logger.Warn("distribution cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var entries []Distribution
	if err := json.Unmarshal(encoded, &entries); err != nil {
		s.logger.Warn("distribution cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return entries, true
}

func (s *Service) cacheSet(ctx context.Context, entries []Distribution) {
	encoded, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cache.KeyDistributions, encoded); err != nil {
		s.logger.Warn("distribution cache write failed", zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cache.KeyDistributions); err != nil {
		s.logger.Warn("distribution cache invalidation failed", zap.Error(err))
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
	s.logger.Error("distributions service error", attrs...)
}
