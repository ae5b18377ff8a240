/*-------------------------------------------------------------------------
 *
 * builtin.go
 *    Built-in adapter registration and catalog seeding for DataGrub
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/evaluation/builtin.go
 *
 *-------------------------------------------------------------------------
 */

package evaluation

import (
	"context"
	"fmt"

	"github.com/opencircle/datagrub/internal/db"
	"github.com/opencircle/datagrub/internal/llm"
)

/* BuildRegistry constructs the process-wide registry with the built-in
 * adapters in a fixed, explicit order. CustomRules claims every id, so it
 * registers last: the full fallback scan must reach every specific
 * adapter, including the judge's judge- prefix claim, before the
 * catch-all absorbs the id. */
func BuildRegistry(openaiAPIKey string, judgeCaller llm.ModelCaller, judgeModel string, judgeMaxTokens int) *Registry {
	registry := NewRegistry()
	registry.Register(NewFirstPartyAdapter())
	registry.Register(NewOpenAIModerationAdapter(openaiAPIKey))
	registry.Register(NewLLMJudgeAdapter(judgeCaller, judgeModel, judgeMaxTokens))
	registry.Register(NewCustomRuleAdapter())
	return registry
}

/* CatalogWriter persists seeded catalog entries */
type CatalogWriter interface {
	CreateCatalogEntry(ctx context.Context, entry *db.CatalogEntry) error
}

/* SeedCatalog publishes every adapter-defined evaluation as a public
 * catalog entry carrying the adapter identity hint */
func SeedCatalog(ctx context.Context, registry *Registry, writer CatalogWriter) error {
	for _, adapter := range registry.Adapters() {
		name := adapter.Name()
		for _, def := range adapter.Definitions() {
			entry := &db.CatalogEntry{
				ID:             def.ID,
				Name:           def.Name,
				Description:    def.Description,
				Source:         string(adapter.Source()),
				EvaluationType: string(def.Type),
				Category:       def.Category,
				IsPublic:       true,
				AdapterHint:    &name,
				DefaultConfig:  db.FromMap(def.DefaultConfig),
				Version:        "1",
				Active:         true,
			}
			if err := writer.CreateCatalogEntry(ctx, entry); err != nil {
				return fmt.Errorf("failed to seed catalog entry %q: %w", def.ID, err)
			}
		}
	}
	return nil
}
