package store

import (
	"context"
	"database/sql"
	"encoding/json"
	errs "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DaanHessen/chromium-runner/internal/util"
)

var (
	ErrNoChange        = errs.New("no change")
	ErrHistoryDisabled = errs.New("launch history disabled: no DSN configured")
)

// DB wraps gorm.DB for repositories and exposes Close.
type DB struct {
	gorm *gorm.DB
	sql  *sql.DB
}

func (d *DB) Close() error   { return d.sql.Close() }
func (d *DB) Gorm() *gorm.DB { return d.gorm }

// Open connects to the history database per config.
func Open(ctx context.Context, cfg util.Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, ErrHistoryDisabled
	}
	// Postgres-only; gorm's own logger would write over the TUI
	gdb, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, errors.Wrap(err, "open history db")
	}
	sdb, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sdb.SetConnMaxLifetime(30 * time.Minute)
	sdb.SetMaxOpenConns(2)
	sdb.SetMaxIdleConns(1)
	if err := sdb.PingContext(ctx); err != nil {
		sdb.Close()
		return nil, errors.Wrap(err, "ping history db")
	}
	return &DB{gorm: gdb, sql: sdb}, nil
}

// WithTx executes fn within a database transaction.
func (d *DB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.gorm.WithContext(ctx).Transaction(fn)
}

// LaunchRecord is one row of the launches table.
type LaunchRecord struct {
	ID          uuid.UUID
	ConfigPath  string
	BrowserPath string
	Args        []string
	PID         int
	Error       string
	LaunchedAt  time.Time
}

// Succeeded reports whether the process was started.
func (r LaunchRecord) Succeeded() bool { return r.Error == "" }

// HistoryRepo records and lists launches.
type HistoryRepo struct{ db *DB }

func NewHistoryRepo(db *DB) *HistoryRepo { return &HistoryRepo{db: db} }

// Record inserts rec, assigning an ID and timestamp when missing.
func (h *HistoryRepo) Record(ctx context.Context, rec LaunchRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.LaunchedAt.IsZero() {
		rec.LaunchedAt = time.Now()
	}
	args, err := encodeArgs(rec.Args)
	if err != nil {
		return err
	}
	return h.db.WithTx(ctx, func(tx *gorm.DB) error {
		return wrap(tx.Exec(`INSERT INTO launches(id, config_path, browser_path, args, pid, error, launched_at) VALUES (?,?,?,CAST(? AS jsonb),?,?,?)`,
			rec.ID, rec.ConfigPath, rec.BrowserPath, string(args), rec.PID, rec.Error, rec.LaunchedAt).Error, "insert launch")
	})
}

// Recent returns up to limit launches, newest first.
func (h *HistoryRepo) Recent(ctx context.Context, limit int) ([]LaunchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.gorm.WithContext(ctx).Raw(`SELECT id, config_path, browser_path, args, pid, error, launched_at FROM launches ORDER BY launched_at DESC LIMIT ?`, limit).Rows()
	if err != nil {
		return nil, wrap(err, "query launches")
	}
	defer rows.Close()
	var out []LaunchRecord
	for rows.Next() {
		var (
			rec  LaunchRecord
			args []byte
		)
		if err := rows.Scan(&rec.ID, &rec.ConfigPath, &rec.BrowserPath, &args, &rec.PID, &rec.Error, &rec.LaunchedAt); err != nil {
			return nil, wrap(err, "scan launch")
		}
		if rec.Args, err = decodeArgs(args); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, wrap(rows.Err(), "iterate launches")
}

func encodeArgs(args []string) ([]byte, error) {
	if args == nil {
		args = []string{}
	}
	b, err := json.Marshal(args)
	return b, wrap(err, "encode args")
}

func decodeArgs(b []byte) ([]string, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var args []string
	if err := json.Unmarshal(b, &args); err != nil {
		return nil, fmt.Errorf("decode args %q: %w", string(b), err)
	}
	return args, nil
}

// Helper error wrap
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}
