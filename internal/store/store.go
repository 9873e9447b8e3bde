package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	_ "github.com/glebarez/go-sqlite" // Pure Go SQLite driver
	"github.com/medigate/medigate-cli/internal/config"
	"github.com/medigate/medigate-cli/internal/errors"
	"github.com/medigate/medigate-cli/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const secretPrefix = "secret:"

// Store provides on-device persistence: SQLite for settings and feedback,
// and an encrypted BadgerDB for credentials when a key is configured.
type Store struct {
	db     *gorm.DB
	badger *badger.DB
	logger *zap.Logger
}

// New opens the SQLite database and, when cfg carries an encryption key,
// the encrypted BadgerDB.
func New(cfg *config.Config, log *zap.Logger) (*Store, error) {
	sqlitePath := cfg.Storage.SQLitePath
	if sqlitePath == "" {
		sqlitePath = filepath.Join(cfg.Storage.DataDir, "medigate.db")
	}

	sqliteDB, err := sql.Open("sqlite", sqlitePath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqliteDB.SetMaxOpenConns(4)
	sqliteDB.SetMaxIdleConns(2)
	sqliteDB.SetConnMaxLifetime(time.Hour)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqliteDB}, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	key, err := cfg.EncryptionKey()
	if err != nil {
		return nil, err
	}

	var kv *badger.DB
	if key != nil {
		badgerPath := cfg.Storage.BadgerPath
		if badgerPath == "" {
			badgerPath = filepath.Join(cfg.Storage.DataDir, "secure")
		}
		kv, err = OpenEncrypted(badgerPath, key)
		if err != nil {
			return nil, err
		}
	}

	return NewWithDB(db, kv, log)
}

// OpenEncrypted opens a BadgerDB whose files are encrypted with key.
func OpenEncrypted(path string, key []byte) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithEncryptionKey(key).
		WithIndexCacheSize(8 << 20).
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true).
		WithValueLogFileSize(16 << 20).
		WithMemTableSize(8 << 20)

	kv, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return kv, nil
}

// NewWithDB wraps already-open handles. kv may be nil, in which case the
// secret methods report ErrStorageUnavailable.
func NewWithDB(db *gorm.DB, kv *badger.DB, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := db.AutoMigrate(&Setting{}, &FeedbackRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	log.Debug("Storage opened", zap.Bool("encrypted", kv != nil))
	return &Store{db: db, badger: kv, logger: log}, nil
}

// Close closes all database connections
func (s *Store) Close() error {
	var errs []error
	if s.badger != nil {
		errs = append(errs, s.badger.Close())
	}
	if sqlDB, err := s.db.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	return stderrors.Join(errs...)
}

// DB returns the GORM database instance
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Encrypted reports whether an encrypted secret store is open.
func (s *Store) Encrypted() bool {
	return s.badger != nil
}

// ==================== Setting Methods (SQLite) ====================

// SetSetting upserts a setting
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	return s.db.WithContext(ctx).Save(&Setting{Key: key, Value: value}).Error
}

// GetSetting returns errors.ErrNotFound when the key is absent
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var row Setting
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return "", errors.ErrNotFound.WithMessage("setting " + key + " not found")
	}
	if err != nil {
		return "", err
	}
	return row.Value, nil
}

// DeleteSetting removes a setting; a missing key is not an error
func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&Setting{}, "key = ?", key).Error
}

// ==================== Secret Methods (BadgerDB) ====================

// SetSecret stores an encrypted value
func (s *Store) SetSecret(key string, value []byte) error {
	if s.badger == nil {
		return errors.ErrStorageUnavailable
	}
	return s.badger.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(secretPrefix+key), value)
	})
}

// GetSecret returns errors.ErrNotFound when the key is absent
func (s *Store) GetSecret(key string) ([]byte, error) {
	if s.badger == nil {
		return nil, errors.ErrStorageUnavailable
	}
	var val []byte
	err := s.badger.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(secretPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			val = append([]byte{}, v...)
			return nil
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.ErrNotFound.WithMessage("secret " + key + " not found")
	}
	return val, err
}

// DeleteSecret removes a secret; a missing key is not an error
func (s *Store) DeleteSecret(key string) error {
	if s.badger == nil {
		return errors.ErrStorageUnavailable
	}
	return s.badger.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(secretPrefix + key))
	})
}

// ==================== Feedback Methods (SQLite) ====================

// CreateFeedback inserts a new submission
func (s *Store) CreateFeedback(ctx context.Context, rec *FeedbackRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

// ListFeedback returns all submissions, newest first
func (s *Store) ListFeedback(ctx context.Context) ([]FeedbackRecord, error) {
	var recs []FeedbackRecord
	err := s.db.WithContext(ctx).Order("submitted_at DESC").Find(&recs).Error
	return recs, err
}

// GetFeedback returns errors.ErrFeedbackNotFound when id is unknown
func (s *Store) GetFeedback(ctx context.Context, id string) (*FeedbackRecord, error) {
	var rec FeedbackRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrFeedbackNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteFeedback returns errors.ErrFeedbackNotFound when nothing was removed
func (s *Store) DeleteFeedback(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&FeedbackRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.ErrFeedbackNotFound
	}
	return nil
}

// ClearFeedback removes every submission
func (s *Store) ClearFeedback(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&FeedbackRecord{}).Error
}

// ListPendingFeedback returns unsynced submissions, oldest first
func (s *Store) ListPendingFeedback(ctx context.Context, limit int) ([]FeedbackRecord, error) {
	var recs []FeedbackRecord
	err := s.db.WithContext(ctx).
		Where("status = ?", string(models.FeedbackPending)).
		Order("submitted_at ASC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

// CountPendingFeedback returns the number of unsynced submissions
func (s *Store) CountPendingFeedback(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&FeedbackRecord{}).
		Where("status = ?", string(models.FeedbackPending)).
		Count(&n).Error
	return n, err
}

// MarkFeedbackSynced records a successful upload
func (s *Store) MarkFeedbackSynced(ctx context.Context, id string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&FeedbackRecord{}).Where("id = ?", id).Updates(map[string]any{
		"status":     string(models.FeedbackSynced),
		"synced_at":  at,
		"last_error": "",
	}).Error
}

// RecordFeedbackSyncFailure bumps the attempt counter and keeps the last error
func (s *Store) RecordFeedbackSyncFailure(ctx context.Context, id string, cause error) error {
	return s.db.WithContext(ctx).Model(&FeedbackRecord{}).Where("id = ?", id).Updates(map[string]any{
		"sync_attempts": gorm.Expr("sync_attempts + 1"),
		"last_error":    cause.Error(),
	}).Error
}
