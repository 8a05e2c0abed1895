package database

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/distributions"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/documents"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/rooms"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/users"
)

// OpenSQLite establishes a SQLite connection and performs schema migrations.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&documents.Document{},
		&documents.DocumentChange{},
		&rooms.Room{},
		&distributions.Distribution{},
		&users.Account{},
		&users.Profile{},
		&users.UserRole{},
		&migrationRecord{},
	); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}
