package database

import (
	"context"
	"fmt"
	"strings"
)

// Tables every metadata database starts with
const schemaSQL = `
CREATE TABLE IF NOT EXISTS indexes(
    name TEXT PRIMARY KEY,
    config TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS kafka_checkpoints(
    source_id TEXT NOT NULL,
    partition INTEGER NOT NULL,
    offset_value BIGINT NOT NULL,

    PRIMARY KEY (source_id, partition)
);`

// DBAdapter is the metadata database. Statements use postgres style $N
// placeholders on every backend.
type DBAdapter interface {
	// Exec runs a statement and returns the number of affected rows
	Exec(ctx context.Context, sql string, args ...interface{}) (int64, error)
	Query(ctx context.Context, sql string, args ...interface{}) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) Row
	Close()
}

// Rows is the result set of Query
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close()
	Err() error
}

// Row is the result of QueryRow
type Row interface {
	Scan(dest ...interface{}) error
}

// Open connects to the database of a sqlite:<path> or postgres:// URL and
// creates the metadata tables when missing
func Open(ctx context.Context, dbURL string) (DBAdapter, error) {
	dbType, connStr, err := ParseDatabaseURL(dbURL)
	if err != nil {
		return nil, err
	}

	switch dbType {
	case "sqlite":
		return openSQLite(ctx, connStr)
	case "postgres":
		return openPostgres(ctx, connStr)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// ParseDatabaseURL returns the backend of a database URL and the connection
// string to hand to it
func ParseDatabaseURL(dbURL string) (string, string, error) {
	switch {
	case strings.HasPrefix(dbURL, "sqlite:"):
		return "sqlite", strings.TrimPrefix(dbURL, "sqlite:"), nil
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		return "postgres", dbURL, nil
	default:
		return "", "", fmt.Errorf("unsupported database URL format: %s", dbURL)
	}
}
