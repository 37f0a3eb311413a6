package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrIndexNotFound is returned when no index has the requested name.
var ErrIndexNotFound = errors.New("index not found")

// InsertIndexConfig stores the serialized config of a new index.
func InsertIndexConfig(ctx context.Context, db DBAdapter, name string, config []byte) error {
	_, err := db.Exec(ctx, "INSERT INTO indexes (name, config) VALUES ($1, $2)", name, string(config))
	if err != nil {
		return fmt.Errorf("failed to insert index '%s': %w", name, err)
	}
	return nil
}

// GetIndexConfig loads the serialized config of an index.
func GetIndexConfig(ctx context.Context, db DBAdapter, name string) ([]byte, error) {
	var config string
	err := db.QueryRow(ctx, "SELECT config FROM indexes WHERE name=$1", name).Scan(&config)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("'%s': %w", name, ErrIndexNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query index '%s': %w", name, err)
	}
	return []byte(config), nil
}

// UpdateIndexConfig replaces the serialized config of an existing index.
func UpdateIndexConfig(ctx context.Context, db DBAdapter, name string, config []byte) error {
	n, err := db.Exec(ctx, "UPDATE indexes SET config=$1 WHERE name=$2", string(config), name)
	if err != nil {
		return fmt.Errorf("failed to update index '%s': %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("'%s': %w", name, ErrIndexNotFound)
	}
	return nil
}

// DeleteIndex removes the config row of an index.
func DeleteIndex(ctx context.Context, db DBAdapter, name string) error {
	n, err := db.Exec(ctx, "DELETE FROM indexes WHERE name=$1", name)
	if err != nil {
		return fmt.Errorf("failed to delete index '%s': %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("'%s': %w", name, ErrIndexNotFound)
	}
	return nil
}

// ListIndexNames returns the names of all indexes, sorted.
func ListIndexNames(ctx context.Context, db DBAdapter) ([]string, error) {
	rows, err := db.Query(ctx, "SELECT name FROM indexes ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan index name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return names, nil
}
