package rooms

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
	errMissingRoomID     = errors.New("room identifier is required")
	errRoomNotFound      = errors.New("room not found")
	noOpLogger           = zap.NewNop()
)

const (
	opServiceNew = "rooms.service.new"
	opList       = "rooms.list"
	opCreate     = "rooms.create"
	opDelete     = "rooms.delete"
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

// IsNotFound reports whether err represents a missing room.
func IsNotFound(err error) bool {
	return errors.Is(err, errRoomNotFound)
}

// IDProvider issues identifiers for new rows.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the room service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Cache      cache.Store
	Logger     *zap.Logger
}

// Service manages distribution destinations.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	cache      cache.Store
	logger     *zap.Logger
}

// NewService validates the configuration and constructs the room service.
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

// List returns all rooms ordered by name ascending.
func (s *Service) List(ctx context.Context) ([]Room, error) {
	if cached, ok := s.cacheGet(ctx); ok {
		return cached, nil
	}

	var entries []Room
	if err := s.db.WithContext(ctx).
		Order("name ASC").
		Find(&entries).Error; err != nil {
		s.logError(opList, "query_failed", err)
		return nil, newServiceError(opList, "query_failed", err)
	}

	s.cacheSet(ctx, entries)
	return entries, nil
}

// Create registers a new destination room.
func (s *Service) Create(ctx context.Context, name string) (Room, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || len(trimmed) > maxRoomNameLength {
		return Room{}, newServiceError(opCreate, "invalid_name", ErrInvalidRoomName)
	}

	roomID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opCreate, "id_generation_failed", err)
		return Room{}, newServiceError(opCreate, "id_generation_failed", err)
	}

	room := Room{
		ID:        roomID,
		Name:      trimmed,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&room).Error; err != nil {
		s.logError(opCreate, "insert_failed", err, zap.String("name", trimmed))
		return Room{}, newServiceError(opCreate, "insert_failed", err)
	}

	s.invalidate(ctx)
	return room, nil
}

// Delete removes a room. Existing distributions keep their room reference
// and resolve it as unspecified in aggregated views, so the distributions
// snapshot is invalidated alongside the room list.
func (s *Service) Delete(ctx context.Context, roomID string) error {
	if strings.TrimSpace(roomID) == "" {
		return newServiceError(opDelete, "missing_room_id", errMissingRoomID)
	}

	result := s.db.WithContext(ctx).Where("id = ?", roomID).Delete(&Room{})
	if result.Error != nil {
		s.logError(opDelete, "delete_failed", result.Error, zap.String("room_id", roomID))
		return newServiceError(opDelete, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newServiceError(opDelete, "not_found", errRoomNotFound)
	}

	s.invalidate(ctx)
	return nil
}

func (s *Service) cacheGet(ctx context.Context) ([]Room, bool) {
	encoded, ok, err := s.cache.Get(ctx, cache.KeyRooms)
	if err != nil {
		s.logger.Warn("room cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var entries []Room
	if err := json.Unmarshal(encoded, &entries); err != nil {
		s.logger.Warn("room cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return entries, true
}

func (s *Service) cacheSet(ctx context.Context, entries []Room) {
	encoded, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cache.KeyRooms, encoded); err != nil {
		s.logger.Warn("room cache write failed", zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	for _, key := range []string{cache.KeyRooms, cache.KeyDistributions} {
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.logger.Warn("room cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
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
	s.logger.Error("rooms service error", attrs...)
}
