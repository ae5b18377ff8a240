/*-------------------------------------------------------------------------
 *
 * queries.go
 *    Database queries for DataGrub
 *
 * Provides database query functions for traces and evaluation catalog
 * entries.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/db/queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/opencircle/datagrub/internal/apperr"
)

type Queries struct {
	db *DB
}

func NewQueries(db *DB) *Queries {
	return &Queries{db: db}
}

/* Trace queries */
const (
	createTraceQuery = `
		INSERT INTO datagrub.traces
		(organization_id, parent_trace_id, name, input, output, model_name,
		 duration_ms, input_tokens, output_tokens, total_tokens, total_cost, metadata)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6, $7, $8, $9, $10, $11, $12::jsonb)
		RETURNING id, created_at, updated_at`

	getTraceByIDQuery = `SELECT * FROM datagrub.traces WHERE id = $1`

	listTracesQuery = `
		SELECT * FROM datagrub.traces
		WHERE organization_id = $1
		AND ($2::uuid IS NULL OR parent_trace_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`
)

/* Catalog queries */
const (
	createCatalogEntryQuery = `
		INSERT INTO datagrub.evaluation_catalog
		(id, name, description, source, evaluation_type, category, is_public,
		 organization_id, project_id, adapter_hint, default_config, version, tags, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			default_config = EXCLUDED.default_config,
			version = EXCLUDED.version,
			tags = EXCLUDED.tags,
			adapter_hint = EXCLUDED.adapter_hint,
			updated_at = NOW()
		RETURNING created_at, updated_at`

	getCatalogEntryQuery = `SELECT * FROM datagrub.evaluation_catalog WHERE id = $1 AND active = TRUE`

	listCatalogEntriesQuery = `
		SELECT * FROM datagrub.evaluation_catalog
		WHERE active = TRUE
		AND (is_public = TRUE OR organization_id = $1)
		AND ($2::text IS NULL OR source = $2)
		ORDER BY id
		LIMIT $3 OFFSET $4`

	deactivateCatalogEntryQuery = `
		UPDATE datagrub.evaluation_catalog
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
)

/* Trace methods */

func (q *Queries) CreateTrace(ctx context.Context, trace *Trace) error {
	inputValue, err := trace.Input.Value()
	if err != nil {
		return fmt.Errorf("failed to convert input: %w", err)
	}
	outputValue, err := trace.Output.Value()
	if err != nil {
		return fmt.Errorf("failed to convert output: %w", err)
	}
	metadataValue, err := trace.Metadata.Value()
	if err != nil {
		return fmt.Errorf("failed to convert metadata: %w", err)
	}

	row := q.db.QueryRowxContext(ctx, createTraceQuery,
		trace.OrganizationID, trace.ParentTraceID, trace.Name, inputValue, outputValue,
		trace.ModelName, trace.DurationMS, trace.InputTokens, trace.OutputTokens,
		trace.TotalTokens, trace.TotalCost, metadataValue)
	if err := row.Scan(&trace.ID, &trace.CreatedAt, &trace.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create trace: %w", err)
	}
	return nil
}

func (q *Queries) GetTrace(ctx context.Context, id uuid.UUID) (*Trace, error) {
	var trace Trace
	if err := q.db.GetContext(ctx, &trace, getTraceByIDQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("trace %s not found", id)
		}
		return nil, fmt.Errorf("failed to get trace: %w", err)
	}
	return &trace, nil
}

func (q *Queries) ListTraces(ctx context.Context, orgID uuid.UUID, parentID *uuid.UUID, limit, offset int) ([]Trace, error) {
	traces := []Trace{}
	if err := q.db.SelectContext(ctx, &traces, listTracesQuery, orgID, parentID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list traces: %w", err)
	}
	return traces, nil
}

/* Catalog methods */

func (q *Queries) CreateCatalogEntry(ctx context.Context, entry *CatalogEntry) error {
	configValue, err := entry.DefaultConfig.Value()
	if err != nil {
		return fmt.Errorf("failed to convert default_config: %w", err)
	}

	row := q.db.QueryRowxContext(ctx, createCatalogEntryQuery,
		entry.ID, entry.Name, entry.Description, entry.Source, entry.EvaluationType,
		entry.Category, entry.IsPublic, entry.OrganizationID, entry.ProjectID,
		entry.AdapterHint, configValue, entry.Version, entry.Tags, entry.Active)
	if err := row.Scan(&entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create catalog entry: %w", err)
	}
	return nil
}

func (q *Queries) GetCatalogEntry(ctx context.Context, id string) (*CatalogEntry, error) {
	var entry CatalogEntry
	if err := q.db.GetContext(ctx, &entry, getCatalogEntryQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("evaluation %q not found", id)
		}
		return nil, fmt.Errorf("failed to get catalog entry: %w", err)
	}
	return &entry, nil
}

func (q *Queries) ListCatalogEntries(ctx context.Context, orgID uuid.UUID, source *string, limit, offset int) ([]CatalogEntry, error) {
	entries := []CatalogEntry{}
	if err := q.db.SelectContext(ctx, &entries, listCatalogEntriesQuery, orgID, source, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list catalog entries: %w", err)
	}
	return entries, nil
}

func (q *Queries) DeactivateCatalogEntry(ctx context.Context, id string) error {
	var updatedAt sql.NullTime
	if err := q.db.QueryRowxContext(ctx, deactivateCatalogEntryQuery, id).Scan(&updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("evaluation %q not found", id)
		}
		return fmt.Errorf("failed to deactivate catalog entry: %w", err)
	}
	return nil
}
