// Package storage persists completed insight records and competitor
// reports to a relational sink.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"brandscope/internal/config"
	"brandscope/pkg/types"
)

// InsightStore is the persistence contract. Saving is optional per
// request; callers hold a nil-safe NoopStore when no sink is
// configured.
type InsightStore interface {
	SaveInsight(ctx context.Context, record *types.BrandInsight) (int64, error)
	SaveReport(ctx context.Context, report *types.CompetitorReport) (int64, error)
	Close() error
}

// NoopStore satisfies InsightStore without persisting anything.
type NoopStore struct{}

func (NoopStore) SaveInsight(context.Context, *types.BrandInsight) (int64, error) {
	return 0, nil
}

func (NoopStore) SaveReport(context.Context, *types.CompetitorReport) (int64, error) {
	return 0, nil
}

func (NoopStore) Close() error { return nil }

const schema = `
CREATE TABLE IF NOT EXISTS brand_insights (
    id          BIGSERIAL PRIMARY KEY,
    brand_name  TEXT NOT NULL,
    website_url TEXT NOT NULL,
    success     BOOLEAN NOT NULL,
    payload     JSONB NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS brand_insights_url_idx ON brand_insights (website_url);

CREATE TABLE IF NOT EXISTS competitor_reports (
    id          BIGSERIAL PRIMARY KEY,
    website_url TEXT NOT NULL,
    payload     JSONB NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS competitor_reports_url_idx ON competitor_reports (website_url);
`

// SQLStore persists records to Postgres as JSONB payloads alongside a
// few queryable columns.
type SQLStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLStore opens the database, verifies connectivity, and applies
// the schema when auto-migration is enabled.
func NewSQLStore(ctx context.Context, cfg config.SQLConfig, logger *slog.Logger) (*SQLStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime.Duration > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime.Duration)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLStore{db: db, logger: logger}
	if cfg.AutoMigrate {
		if err := store.ensureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return store, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// SaveInsight stores one extraction result and returns its row id.
func (s *SQLStore) SaveInsight(ctx context.Context, record *types.BrandInsight) (int64, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return 0, fmt.Errorf("encode insight: %w", err)
	}

	const q = `INSERT INTO brand_insights (brand_name, website_url, success, payload)
	           VALUES ($1, $2, $3, $4) RETURNING id`

	var id int64
	err = s.withSchemaRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx, q, record.BrandName, record.WebsiteURL, record.Success, payload).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("insert insight: %w", err)
	}
	return id, nil
}

// SaveReport stores one competitor report and returns its row id.
func (s *SQLStore) SaveReport(ctx context.Context, report *types.CompetitorReport) (int64, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("encode report: %w", err)
	}

	const q = `INSERT INTO competitor_reports (website_url, payload)
	           VALUES ($1, $2) RETURNING id`

	var id int64
	err = s.withSchemaRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx, q, report.MainBrand.WebsiteURL, payload).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}
	return id, nil
}

// withSchemaRetry reapplies the schema and retries once when a write
// hits a missing table, which happens when the database was recreated
// under a long-lived process.
func (s *SQLStore) withSchemaRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !isUndefinedTableErr(err) {
		return err
	}
	s.logger.Warn("table missing, reapplying schema", "error", err)
	if merr := s.ensureSchema(ctx); merr != nil {
		return merr
	}
	return fn()
}

func isUndefinedTableErr(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42P01"
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
