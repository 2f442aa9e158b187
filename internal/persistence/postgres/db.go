package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/slatepick/slatepick/internal/persistence"
)

// Config holds pick archive connection settings.
type Config struct {
	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration
}

// DefaultConfig returns pool defaults. An empty DatabaseURL leaves the
// archive disabled.
func DefaultConfig(databaseURL string) Config {
	return Config{
		DatabaseURL:     databaseURL,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		QueryTimeout:    30 * time.Second,
	}
}

// Manager owns the connection pool and the repositories built on it. With no
// DatabaseURL the Manager is disabled: Repository returns nil and callers
// skip archival.
type Manager struct {
	db     *sqlx.DB
	config Config
	repos  *persistence.Repository
}

// NewManager opens the pool, verifies connectivity, and ensures the schema.
func NewManager(ctx context.Context, config Config) (*Manager, error) {
	if config.DatabaseURL == "" {
		return &Manager{config: config}, nil
	}

	db, err := sqlx.Open("postgres", config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{
		db:     db,
		config: config,
		repos:  persistence.NewRepository(NewPickRepo(db, config.QueryTimeout)),
	}, nil
}

// Repository returns the repository collection, or nil when disabled.
func (m *Manager) Repository() *persistence.Repository {
	return m.repos
}

// IsEnabled reports whether the archive is connected.
func (m *Manager) IsEnabled() bool {
	return m != nil && m.db != nil
}

// Stats exposes connection pool counters for the debug surface.
func (m *Manager) Stats() map[string]interface{} {
	if !m.IsEnabled() {
		return map[string]interface{}{"enabled": false}
	}
	stats := m.db.Stats()
	return map[string]interface{}{
		"enabled":          true,
		"max_open":         stats.MaxOpenConnections,
		"open":             stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"wait_duration_ms": stats.WaitDuration.Milliseconds(),
	}
}

// Close releases the pool.
func (m *Manager) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}

// pick_history is append-mostly. The UNIQUE pair makes slate re-runs
// idempotent; the partial index serves the nightly grader scan.
const schema = `
CREATE TABLE IF NOT EXISTS pick_history (
	id            BIGSERIAL PRIMARY KEY,
	pick_id       TEXT NOT NULL,
	sport         TEXT NOT NULL,
	slate_date    TEXT NOT NULL,
	event_id      TEXT NOT NULL,
	market_kind   TEXT NOT NULL,
	market        TEXT NOT NULL DEFAULT '',
	selection     TEXT NOT NULL,
	pick_side     TEXT NOT NULL DEFAULT '',
	player_name   TEXT NOT NULL DEFAULT '',
	home_team     TEXT NOT NULL DEFAULT '',
	away_team     TEXT NOT NULL DEFAULT '',
	line          DOUBLE PRECISION,
	over_under    TEXT NOT NULL DEFAULT '',
	odds_american INTEGER,
	book_key      TEXT NOT NULL,
	tier          TEXT NOT NULL,
	units         DOUBLE PRECISION NOT NULL DEFAULT 0,
	final_score   DOUBLE PRECISION NOT NULL DEFAULT 0,
	result        TEXT,
	closing_odds  INTEGER,
	clv           DOUBLE PRECISION,
	graded_at     TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (pick_id, slate_date)
);

CREATE INDEX IF NOT EXISTS idx_pick_history_slate
	ON pick_history (sport, slate_date);

CREATE INDEX IF NOT EXISTS idx_pick_history_ungraded
	ON pick_history (slate_date) WHERE result IS NULL;
`

// EnsureSchema creates the pick archive tables when missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure pick archive schema: %w", err)
	}
	return nil
}
