// Package db provides PostgreSQL-backed repositories over the damwatch
// key-ordered store. The store models the firmware's append log and
// latest-value slots as three tables:
//
//	readings  (key text primary key, payload jsonb)          -- sensor append log
//	alerts    (stream text, key text, payload jsonb,
//	           primary key (stream, key))                     -- per-stream alert logs
//	kv_slots  (slot text primary key, payload jsonb)          -- latest-value slots
//
// Keys are lexically ordered timestamps, so "last N keys" reads are plain
// ORDER BY key DESC LIMIT N scans. All repositories accept a DBTX interface
// satisfied by both *pgxpool.Pool and pgx.Tx.
//
// The pool is created once at startup by Connect and passed by reference to
// every component that needs it; nothing in this package reaches for ambient
// global state.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"damwatch/internal/config"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx.
// Repositories accept this so the same code works inside or outside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Slot names for the kv_slots table. These mirror the paths the firmware and
// the dashboard agreed on before the store moved to Postgres.
const (
	SlotValveStatus    = "status/valve"
	SlotValveControl   = "control/valve"
	SlotRainfallLatest = "predictions/rainfall"
)

// Alert stream names for the alerts table.
const (
	StreamRainfall   = "rainfall"
	StreamWaterLevel = "waterLevel"
	StreamVibration  = "vibration"
)

// Connect creates a connection pool from the database configuration and
// verifies connectivity with a ping. It returns the pool or a typed error;
// there is no credential fallback chain -- a bad URL fails startup.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	poolCfg.ConnConfig.ConnectTimeout = cfg.AcquireTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// Probe adapts a pool into a core.HealthProbe.
type Probe struct {
	pool *pgxpool.Pool
}

// NewProbe creates a health probe for the given pool.
func NewProbe(pool *pgxpool.Pool) *Probe {
	return &Probe{pool: pool}
}

// Name implements core.HealthProbe.
func (p *Probe) Name() string { return "database" }

// Check implements core.HealthProbe.
func (p *Probe) Check(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
