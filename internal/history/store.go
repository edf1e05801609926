// Package history records sent transactions in a SQL database through gorm.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultListLimit caps List when Filter.Limit is zero.
const DefaultListLimit = 100

//nolint:gochecknoglobals // package logger
var log = logging.Logger("history")

// Store is the transaction history DAL.
type Store struct {
	db *gorm.DB
}

// Open connects to driver/dsn, sizes the pool and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "", DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, walleterr.WithDetails(walleterr.ErrConfigInvalid, map[string]string{"history.driver": driver})
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	var sqlDB *sql.DB
	if sqlDB, err = db.DB(); err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(80)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := db.AutoMigrate(&Entry{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrating history schema: %w", err)
	}

	log.Debugf("history store opened with %s driver", dialector.Name())
	return &Store{db: db}, nil
}

// Record inserts e, assigning an ID and pending status when unset.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = StatusPending
	}
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		log.Warnf("record %s tx to %s: %s", e.Chain, e.To, err)
		return err
	}
	return nil
}

// MarkFailed moves an entry to failed with the cause.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res := s.db.WithContext(ctx).Model(&Entry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": StatusFailed,
			"error":  msg,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return walleterr.WithDetails(walleterr.ErrTransactionNotFound, map[string]string{"id": id.String()})
	}
	return nil
}

// SetTxHash stores the hash an entry was broadcast under and marks it sent.
func (s *Store) SetTxHash(ctx context.Context, id uuid.UUID, hash string) error {
	res := s.db.WithContext(ctx).Model(&Entry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"tx_hash": hash,
			"status":  StatusSent,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return walleterr.WithDetails(walleterr.ErrTransactionNotFound, map[string]string{"id": id.String()})
	}
	return nil
}

// Get returns one entry by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, walleterr.WithDetails(walleterr.ErrTransactionNotFound, map[string]string{"id": id.String()})
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]*Entry, error) {
	q := s.db.WithContext(ctx).Model(&Entry{})
	if f.Chain != "" {
		q = q.Where("chain = ?", f.Chain)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var out []*Entry
	if err := q.Order("created_at desc").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		log.Warn("get db err: ", err)
		return err
	}
	if err := db.Close(); err != nil {
		log.Warn("db close err: ", err)
		return err
	}
	return nil
}

// NewEntry builds a pending entry, parsing amount as a decimal.
// An unparsable amount is stored as zero.
func NewEntry(chainID, network, from, to, amount string) *Entry {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		d = decimal.Zero
	}
	return &Entry{
		Chain:   chainID,
		Network: network,
		From:    from,
		To:      to,
		Amount:  d,
		Status:  StatusPending,
	}
}
