package subscriber

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite stores identifiers in a single-table database.
type SQLite struct {
	sql *sql.DB
}

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("subscriber database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(0)

	s := &SQLite{sql: sqldb}
	if err := s.migrate(context.Background()); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	_, err := s.sql.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS subscribers (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL
	);`)
	if err != nil {
		return fmt.Errorf("migrate subscribers: %w", err)
	}
	return nil
}

// Register inserts id and reports whether it was new.
func (s *SQLite) Register(ctx context.Context, id string) (bool, error) {
	id, err := normalize(id)
	if err != nil {
		return false, err
	}
	res, err := s.sql.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscribers (id, created_at) VALUES (?, ?)`,
		id, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("insert subscriber: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// List returns ids in insertion order.
func (s *SQLite) List(ctx context.Context) ([]string, error) {
	rows, err := s.sql.QueryContext(ctx, `SELECT id FROM subscribers ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	return s.sql.Close()
}
