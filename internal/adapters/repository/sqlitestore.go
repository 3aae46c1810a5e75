package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite" // registers the "sqlite" driver
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS decisions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    cycle_id TEXT NOT NULL,
    tenant TEXT NOT NULL,
    at_unix_ms INTEGER NOT NULL,
    event_id TEXT,
    target TEXT,
    score REAL,
    reason TEXT,
    fallback INTEGER NOT NULL DEFAULT 0,
    outcome TEXT NOT NULL,
    error TEXT
)`,
	`CREATE INDEX IF NOT EXISTS decisions_tenant_id ON decisions (tenant, id)`,
}

// SQLiteStore keeps the journal in a sqlite file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the journal at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// sqlite serialises writers anyway
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create journal schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Record inserts a decision.
func (s *SQLiteStore) Record(ctx context.Context, d Decision) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (cycle_id, tenant, at_unix_ms, event_id, target, score, reason, fallback, outcome, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.CycleID, d.Tenant, d.At.UnixMilli(), d.EventID, d.Target, d.Score, d.Reason, d.Fallback, d.Outcome, d.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("record decision: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record decision: %w", err)
	}
	return id, nil
}

// Recent returns the newest decisions first.
func (s *SQLiteStore) Recent(ctx context.Context, tenant string, limit int) ([]Decision, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cycle_id, tenant, at_unix_ms, event_id, target, score, reason, fallback, outcome, error
		 FROM decisions WHERE tenant = ? ORDER BY id DESC LIMIT ?`, tenant, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var (
			d       Decision
			atMs    int64
			errText sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.CycleID, &d.Tenant, &atMs, &d.EventID, &d.Target,
			&d.Score, &d.Reason, &d.Fallback, &d.Outcome, &errText); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.At = time.UnixMilli(atMs).UTC()
		d.Error = errText.String
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return out, nil
}

// Count returns the number of rows stored for a tenant.
func (s *SQLiteStore) Count(ctx context.Context, tenant string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions WHERE tenant = ?`, tenant).Scan(&n); err != nil {
		return 0, fmt.Errorf("count decisions: %w", err)
	}
	return n, nil
}

// Forget deletes a tenant's rows.
func (s *SQLiteStore) Forget(ctx context.Context, tenant string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM decisions WHERE tenant = ?`, tenant); err != nil {
		return fmt.Errorf("forget decisions: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
