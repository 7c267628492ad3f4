package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

type DB struct {
	Pool *pgxpool.Pool
}

// New opens a pool sized for request concurrency; the pool is the only
// state shared between requests.
func New(ctx context.Context, databaseURL string, maxConns int32, minConns int32) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("database connected", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database,
		"max_conns", maxConns, "min_conns", minConns)
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

func (db *DB) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// RegisterMetrics exposes pool occupancy as gauges read at scrape time.
func (db *DB) RegisterMetrics(reg prometheus.Registerer) error {
	gauges := map[string]func(*pgxpool.Stat) int32{
		"db_pool_acquired_conns": (*pgxpool.Stat).AcquiredConns,
		"db_pool_idle_conns":     (*pgxpool.Stat).IdleConns,
		"db_pool_total_conns":    (*pgxpool.Stat).TotalConns,
		"db_pool_max_conns":      (*pgxpool.Stat).MaxConns,
	}
	for name, read := range gauges {
		gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: name,
			Help: "PostgreSQL pool connections (" + name + ").",
		}, func() float64 { return float64(read(db.Pool.Stat())) })
		if err := reg.Register(gauge); err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
	}
	return nil
}
