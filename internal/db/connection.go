/*-------------------------------------------------------------------------
 *
 * connection.go
 *    Database connection management for DataGrub
 *
 * Provides PostgreSQL connection pooling, retry logic, and connection
 * management with health checks.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/db/connection.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/opencircle/datagrub/internal/metrics"
)

/* DB manages PostgreSQL connections */
type DB struct {
	*sqlx.DB
	poolConfig PoolConfig
}

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

/* NewDB creates a new database instance */
func NewDB(connStr string, poolConfig PoolConfig) (*DB, error) {
	return NewDBWithRetry(connStr, poolConfig, 3, 2*time.Second)
}

/* NewDBWithRetry creates a new database instance with retry logic */
func NewDBWithRetry(connStr string, poolConfig PoolConfig, maxRetries int, retryDelay time.Duration) (*DB, error) {
	var db *sqlx.DB
	var err error

	for attempt := 0; attempt < maxRetries; attempt++ {
		db, err = sqlx.Connect("postgres", connStr)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			pingErr := db.PingContext(ctx)
			cancel()
			if pingErr == nil {
				db.SetMaxOpenConns(poolConfig.MaxOpenConns)
				db.SetMaxIdleConns(poolConfig.MaxIdleConns)
				db.SetConnMaxLifetime(poolConfig.ConnMaxLifetime)
				db.SetConnMaxIdleTime(poolConfig.ConnMaxIdleTime)

				metrics.InfoWithContext(context.Background(), "Database connection established", map[string]interface{}{
					"attempt": attempt + 1,
				})

				return &DB{
					DB:         db,
					poolConfig: poolConfig,
				}, nil
			}
			db.Close()
			err = pingErr
		}

		if attempt < maxRetries-1 {
			metrics.WarnWithContext(context.Background(), "Database connection failed, will retry", map[string]interface{}{
				"attempt":     attempt + 1,
				"max_retries": maxRetries,
				"error":       err.Error(),
			})
			delay := retryDelay
			/* Add jitter: ±25% variation to prevent thundering herd */
			jitter := float64(delay) * 0.25
			delay += time.Duration(jitter * (rand.Float64()*2 - 1))
			time.Sleep(delay)
			retryDelay *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

/* HealthCheck verifies connectivity */
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
