package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type postgresAdapter struct {
	pool *pgxpool.Pool
}

func openPostgres(ctx context.Context, connStr string) (*postgresAdapter, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logrus.Debugf("PostgreSQL schema initialized (max %d connections)", config.MaxConns)

	return &postgresAdapter{pool: pool}, nil
}

func (p *postgresAdapter) Exec(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *postgresAdapter) Query(ctx context.Context, sql string, args ...interface{}) (Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

func (p *postgresAdapter) QueryRow(ctx context.Context, sql string, args ...interface{}) Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

func (p *postgresAdapter) Close() {
	p.pool.Close()
}
