package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/pagecraft/pkg/value"
)

// SQLiteStore keeps namespaces as JSON rows in a SQLite database.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS translations (
			locale TEXT NOT NULL,
			namespace TEXT NOT NULL,
			data TEXT NOT NULL DEFAULT '{}',
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (locale, namespace)
		)`,
	}
	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Read(ctx context.Context, locale, namespace string) (value.Map, error) {
	if err := validate(locale, namespace); err != nil {
		return nil, err
	}
	var data string
	err := s.conn.QueryRowContext(ctx,
		`SELECT data FROM translations WHERE locale = ? AND namespace = ?`,
		locale, namespace).Scan(&data)
	if err == sql.ErrNoRows {
		return value.Map{}, nil
	}
	if err != nil {
		return nil, persistErr("read", locale, namespace, err)
	}
	var m value.Map
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, persistErr("parse", locale, namespace, err)
	}
	if m == nil {
		m = value.Map{}
	}
	return m, nil
}

func (s *SQLiteStore) Write(ctx context.Context, locale, namespace string, m value.Map) error {
	if err := validate(locale, namespace); err != nil {
		return err
	}
	if m == nil {
		m = value.Map{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return persistErr("encode", locale, namespace, err)
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO translations (locale, namespace, data, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(locale, namespace) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		locale, namespace, string(data))
	if err != nil {
		return persistErr("write", locale, namespace, err)
	}
	return nil
}

func (s *SQLiteStore) Namespaces(ctx context.Context, locale string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT namespace FROM translations WHERE locale = ? ORDER BY namespace`, locale)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", locale, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, err
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.conn.Close() }

var _ Store = (*SQLiteStore)(nil)
