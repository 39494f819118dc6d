package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"xui-keys-bot/internal/config"
	apperrors "xui-keys-bot/internal/errors"
	"xui-keys-bot/internal/models"
)

// ErrNotFound is returned when a looked up record does not exist
var ErrNotFound = errors.New("record not found")

// Store persists users, issued keys, coupons and settings
type Store struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// Open connects to the configured database and migrates the schema
func Open(cfg config.DatabaseConfig, log *logrus.Logger) (*Store, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		if err := ensureDir(cfg.DSN); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	log.Infof("Connected to %s database", cfg.Driver)
	return New(db, log)
}

// New wraps an open connection and migrates the schema
func New(db *gorm.DB, log *logrus.Logger) (*Store, error) {
	if err := autoMigrate(db); err != nil {
		return nil, &apperrors.StoreError{Operation: "migrate", Err: err}
	}
	return &Store{db: db, logger: log}, nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Key{},
		&models.Coupon{},
		&models.Setting{},
	)
}

// ensureDir creates the parent directory of a sqlite database file
func ensureDir(dsn string) error {
	path, _, _ := strings.Cut(dsn, "?")
	path = strings.TrimPrefix(path, "file:")
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &apperrors.StoreError{Operation: op, Err: err}
}
