package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"horse.fit/telephone/internal/config"
)

var ErrNoRows = sql.ErrNoRows

// ErrNotConfigured is returned when no DATABASE_URL is set.
var ErrNotConfigured = errors.New("database is not configured: set DATABASE_URL")

var errPoolClosed = errors.New("database pool is not initialized")

// Pool is the run history database. Queries are raw SQL with $n placeholders
// executed through gorm.
type Pool struct {
	gdb   *gorm.DB
	sqlDB *sql.DB
}

type connSettings struct {
	maxOpen     int
	maxIdle     int
	maxIdleTime time.Duration
	maxLifetime time.Duration
}

func settingsFor(cfg *config.Config) connSettings {
	maxOpen := int(cfg.DBMaxConns)
	if maxOpen <= 0 {
		maxOpen = 8
	}
	return connSettings{
		maxOpen:     maxOpen,
		maxIdle:     max(1, min(int(cfg.DBMinConns), maxOpen)),
		maxIdleTime: 5 * time.Minute,
		maxLifetime: 30 * time.Minute,
	}
}

// NewPool connects, pings and migrates the history schema.
func NewPool(ctx context.Context, cfg *config.Config) (*Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if !cfg.HistoryEnabled() {
		return nil, ErrNotConfigured
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(resolveGormLogLevel(cfg.LogLevel, cfg.Environment)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get gorm sql db: %w", err)
	}
	settings := settingsFor(cfg)
	sqlDB.SetMaxOpenConns(settings.maxOpen)
	sqlDB.SetMaxIdleConns(settings.maxIdle)
	sqlDB.SetConnMaxIdleTime(settings.maxIdleTime)
	sqlDB.SetConnMaxLifetime(settings.maxLifetime)

	pool := &Pool{gdb: gdb, sqlDB: sqlDB}
	if err := pool.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if err := pool.migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate history schema: %w", err)
	}
	return pool, nil
}

func (p *Pool) Ping(ctx context.Context) error {
	if p == nil || p.sqlDB == nil {
		return errPoolClosed
	}
	if err := p.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func (p *Pool) Close() error {
	if p == nil || p.sqlDB == nil {
		return nil
	}
	return p.sqlDB.Close()
}

// Row is a single-row result. Scan reports ErrNoRows when nothing matched.
type Row struct {
	row *sql.Row
}

func (r *Row) Scan(dest ...any) error {
	if r == nil || r.row == nil {
		return ErrNoRows
	}
	return r.row.Scan(dest...)
}

func (p *Pool) queryRow(ctx context.Context, query string, args ...any) *Row {
	if p == nil || p.gdb == nil {
		return &Row{}
	}
	return &Row{row: p.gdb.WithContext(ctx).Raw(query, args...).Row()}
}

func (p *Pool) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if p == nil || p.gdb == nil {
		return nil, errPoolClosed
	}
	return p.gdb.WithContext(ctx).Raw(query, args...).Rows()
}

// inTx runs fn in one transaction. A returned error rolls it back.
func (p *Pool) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if p == nil || p.gdb == nil {
		return errPoolClosed
	}
	return p.gdb.WithContext(ctx).Transaction(fn)
}

func IsNoRows(err error) bool {
	return errors.Is(err, ErrNoRows)
}

func resolveGormLogLevel(appLogLevel, environment string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(appLogLevel)) {
	case "trace", "debug":
		return logger.Info
	case "warn", "warning", "info", "":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	}
	if strings.EqualFold(strings.TrimSpace(environment), "local") {
		return logger.Warn
	}
	return logger.Error
}
