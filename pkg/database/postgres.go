package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoPool is returned by Health on a PostgresDB that was never connected
var ErrNoPool = errors.New("database pool not initialized")

// PoolOptions sizes the connection pool. Zero values take the defaults.
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
}

func (o PoolOptions) withDefaults() PoolOptions {
	if o.MaxConns <= 0 {
		o.MaxConns = 10
	}
	if o.MinConns <= 0 || o.MinConns > o.MaxConns {
		o.MinConns = 2
		if o.MinConns > o.MaxConns {
			o.MinConns = o.MaxConns
		}
	}
	if o.MaxConnLifetime <= 0 {
		o.MaxConnLifetime = time.Hour
	}
	if o.MaxConnIdleTime <= 0 {
		o.MaxConnIdleTime = 30 * time.Minute
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 5 * time.Second
	}
	return o
}

// PostgresDB is the pool plus the getter that finds a transaction in ctx
type PostgresDB struct {
	Pool   *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

// NewPostgresDB creates a new PostgreSQL connection pool and pings it
func NewPostgresDB(ctx context.Context, databaseURL string, opts PoolOptions) (*PostgresDB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	opts = opts.withDefaults()
	config.MaxConns = opts.MaxConns
	config.MinConns = opts.MinConns
	config.MaxConnLifetime = opts.MaxConnLifetime
	config.MaxConnIdleTime = opts.MaxConnIdleTime
	config.HealthCheckPeriod = time.Minute
	config.ConnConfig.ConnectTimeout = opts.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{Pool: pool, getter: trmpgx.DefaultCtxGetter}, nil
}

// Conn returns the transaction bound to ctx, or the pool when there is none
func (db *PostgresDB) Conn(ctx context.Context) trmpgx.Tr {
	return db.getter.DefaultTrOrDB(ctx, db.Pool)
}

// Close closes the database connection pool
func (db *PostgresDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Health checks the database connection
func (db *PostgresDB) Health(ctx context.Context) error {
	if db.Pool == nil {
		return ErrNoPool
	}
	return db.Pool.Ping(ctx)
}

// Stats reports pool usage for the health endpoint
func (db *PostgresDB) Stats() map[string]int32 {
	if db.Pool == nil {
		return nil
	}
	s := db.Pool.Stat()
	return map[string]int32{
		"total":    s.TotalConns(),
		"idle":     s.IdleConns(),
		"acquired": s.AcquiredConns(),
		"max":      s.MaxConns(),
	}
}
