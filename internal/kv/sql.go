package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"contact-relay-go/internal/config"
)

// Entry is a single row of the SQL-backed key-value table
type Entry struct {
	Key       string    `gorm:"primaryKey;type:varchar(512)"`
	Value     string    `gorm:"type:text;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for Entry
func (Entry) TableName() string {
	return "kv_entries"
}

// SQLStore implements Store on a relational database. Expired rows are
// hidden from reads and removed by PurgeExpired.
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLStore opens a MySQL connection and runs migrations
func NewSQLStore(cfg config.DatabaseConfig) (*SQLStore, error) {
	gormLogger := logger.New(
		logrus.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(mysql.Open(cfg.GetDSN()), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return NewSQLStoreFromDB(db)
}

// NewSQLStoreFromDB wraps an open gorm handle and migrates the table
func NewSQLStoreFromDB(db *gorm.DB) (*SQLStore, error) {
	logrus.Info("Running key-value store migrations...")
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}
	return &SQLStore{db: db, now: time.Now}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var e Entry
	err := s.db.WithContext(ctx).
		Where("`key` = ? AND expires_at > ?", key, s.now().UTC()).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("database error reading %s: %w", key, err)
	}
	return e.Value, true, nil
}

func (s *SQLStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	e := Entry{
		Key:       key,
		Value:     value,
		ExpiresAt: s.now().UTC().Add(ttl),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// PurgeExpired deletes rows whose expiry has passed
func (s *SQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now().UTC()).Delete(&Entry{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge expired entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
