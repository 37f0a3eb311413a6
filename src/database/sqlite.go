package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // SQLite driver
)

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// rebind turns $N placeholders into sqlite's ?N form.
func rebind(query string) string {
	return placeholderRe.ReplaceAllString(query, "?${1}")
}

type sqliteAdapter struct {
	db *sql.DB
}

func openSQLite(ctx context.Context, path string) (*sqliteAdapter, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// a single connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logrus.Debugf("SQLite schema initialized at '%s'", path)

	return &sqliteAdapter{db: db}, nil
}

func (s *sqliteAdapter) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := s.db.ExecContext(ctx, rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *sqliteAdapter) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	rows, err := s.db.QueryContext(ctx, rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

func (s *sqliteAdapter) QueryRow(ctx context.Context, query string, args ...interface{}) Row {
	return s.db.QueryRowContext(ctx, rebind(query), args...)
}

func (s *sqliteAdapter) Close() {
	if err := s.db.Close(); err != nil {
		logrus.Warnf("Failed to close SQLite database: %v", err)
	}
}

// sqlRows adapts *sql.Rows, whose Close returns an error, to Rows
type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() {
	r.Rows.Close()
}
