package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Driver names the SQL backend behind a Store.
type Driver string

const (
	Postgres Driver = "postgres"
	SQLite   Driver = "sqlite"
)

// Store persists fallback audit events and the game catalog.
type Store struct {
	db     *sql.DB
	driver Driver
}

// FallbackEvent records one answer computed locally because the game authority was unavailable.
type FallbackEvent struct {
	ID        string          `json:"id"`
	Game      string          `json:"game"`
	GameID    string          `json:"gameId,omitempty"`
	Reason    string          `json:"reason"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// CatalogGame is one row of the games table.
type CatalogGame struct {
	GameID     string `json:"gameId"`
	Name       string `json:"name"`
	CanisterID string `json:"canisterId"`
	Enabled    bool   `json:"enabled"`
	Fallback   bool   `json:"fallback"`
}

// Open connects to dsn. postgres:// and postgresql:// DSNs use pgx; sqlite: and
// file: DSNs use the pure-Go SQLite driver (sqlite::memory: for an in-memory db).
func Open(ctx context.Context, dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return nil, errors.New("store: empty dsn")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		config, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("store: parse dsn: %w", err)
		}
		// PgBouncer-style poolers reject server-side prepared statements.
		config.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
		db := stdlib.OpenDB(*config)
		db.SetConnMaxIdleTime(4 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
		return open(ctx, db, Postgres)
	case strings.HasPrefix(dsn, "sqlite:"), strings.HasPrefix(dsn, "file:"):
		path := strings.TrimPrefix(dsn, "sqlite:")
		db, err := sql.Open("sqlite", path)
		if err != nil {
			return nil, fmt.Errorf("store: open sqlite: %w", err)
		}
		// one connection keeps :memory: databases shared and writes serialized
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: enable WAL: %w", err)
		}
		return open(ctx, db, SQLite)
	default:
		return nil, fmt.Errorf("store: unsupported dsn scheme in %q", redact(dsn))
	}
}

func open(ctx context.Context, db *sql.DB, driver Driver) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", driver, err)
	}
	s := &Store{db: db, driver: driver}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func redact(dsn string) string {
	if i := strings.Index(dsn, "@"); i > 0 {
		if j := strings.Index(dsn, "://"); j > 0 && j < i {
			return dsn[:j+3] + "***" + dsn[i:]
		}
	}
	return dsn
}

func (s *Store) Driver() Driver { return s.driver }

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS fallback_events (
			id TEXT PRIMARY KEY,
			game TEXT NOT NULL,
			game_id TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '',
			created_ms BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fallback_events_created ON fallback_events(created_ms)`,
		`CREATE TABLE IF NOT EXISTS games (
			game_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			canister_id TEXT NOT NULL DEFAULT '',
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			fallback BOOLEAN NOT NULL DEFAULT FALSE
		)`,
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("store: migration failed: %w", err)
		}
	}
	return nil
}

// rebind turns $n placeholders into ?n for SQLite.
func (s *Store) rebind(query string) string {
	if s.driver != SQLite {
		return query
	}
	var b strings.Builder
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			b.WriteByte('?')
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// RecordFallback stores ev, assigning an ID and timestamp when missing.
func (s *Store) RecordFallback(ctx context.Context, ev *FallbackEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO fallback_events (id, game, game_id, reason, payload, created_ms) VALUES ($1, $2, $3, $4, $5, $6)`),
		ev.ID, ev.Game, ev.GameID, ev.Reason, string(ev.Payload), ev.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store: record fallback: %w", err)
	}
	return nil
}

// ListFallbacks returns the newest events first.
func (s *Store) ListFallbacks(ctx context.Context, limit int) ([]FallbackEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, game, game_id, reason, payload, created_ms FROM fallback_events ORDER BY created_ms DESC, id LIMIT `+strconv.Itoa(limit)))
	if err != nil {
		return nil, fmt.Errorf("store: list fallbacks: %w", err)
	}
	defer rows.Close()
	var out []FallbackEvent
	for rows.Next() {
		var ev FallbackEvent
		var payload string
		var ms int64
		if err := rows.Scan(&ev.ID, &ev.Game, &ev.GameID, &ev.Reason, &payload, &ms); err != nil {
			return nil, fmt.Errorf("store: scan fallback: %w", err)
		}
		if payload != "" {
			ev.Payload = json.RawMessage(payload)
		}
		ev.CreatedAt = time.UnixMilli(ms)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// UpsertGame inserts or replaces a catalog row.
func (s *Store) UpsertGame(ctx context.Context, g CatalogGame) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO games (game_id, name, canister_id, enabled, fallback)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id) DO UPDATE
		SET name = EXCLUDED.name,
		    canister_id = EXCLUDED.canister_id,
		    enabled = EXCLUDED.enabled,
		    fallback = EXCLUDED.fallback`),
		g.GameID, g.Name, g.CanisterID, g.Enabled, g.Fallback,
	)
	if err != nil {
		return fmt.Errorf("store: upsert game %s: %w", g.GameID, err)
	}
	return nil
}

// Catalog returns every catalog row ordered by game id.
func (s *Store) Catalog(ctx context.Context) ([]CatalogGame, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT game_id, name, canister_id, enabled, fallback FROM games ORDER BY game_id`)
	if err != nil {
		return nil, fmt.Errorf("store: catalog: %w", err)
	}
	defer rows.Close()
	var out []CatalogGame
	for rows.Next() {
		var g CatalogGame
		if err := rows.Scan(&g.GameID, &g.Name, &g.CanisterID, &g.Enabled, &g.Fallback); err != nil {
			return nil, fmt.Errorf("store: scan game: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
