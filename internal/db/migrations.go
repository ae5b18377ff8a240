/*-------------------------------------------------------------------------
 *
 * migrations.go
 *    SQL migration runner for DataGrub
 *
 * Applies numbered .sql files from a migrations directory in order,
 * tracking applied versions in datagrub.schema_migrations.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/db/migrations.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opencircle/datagrub/internal/metrics"
)

const migrationsTableDDL = `
	CREATE SCHEMA IF NOT EXISTS datagrub;
	CREATE TABLE IF NOT EXISTS datagrub.schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

/* MigrationRunner applies SQL migrations from a directory */
type MigrationRunner struct {
	db  *DB
	dir string
}

/* NewMigrationRunner creates a migration runner for the given directory */
func NewMigrationRunner(db *DB, dir string) (*MigrationRunner, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("migrations directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("migrations path %s is not a directory", dir)
	}
	return &MigrationRunner{db: db, dir: dir}, nil
}

/* Run applies every unapplied migration in filename order */
func (m *MigrationRunner) Run(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, migrationsTableDDL); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	applied := map[string]bool{}
	var versions []string
	if err := m.db.SelectContext(ctx, &versions, `SELECT version FROM datagrub.schema_migrations`); err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}
	for _, v := range versions {
		applied[v] = true
	}

	for _, file := range files {
		if applied[file] {
			continue
		}

		sqlBytes, err := os.ReadFile(filepath.Join(m.dir, file))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		tx, err := m.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO datagrub.schema_migrations (version) VALUES ($1)`, file); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", file, err)
		}

		metrics.InfoWithContext(ctx, "Applied migration", map[string]interface{}{
			"version": file,
		})
	}
	return nil
}
