/*-------------------------------------------------------------------------
 *
 * registry.go
 *    Adapter registry for DataGrub
 *
 * Process-wide catalog of registered evaluation adapters, indexed by
 * adapter identity and by source category, with three-tier fallback
 * resolution.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/evaluation/registry.go
 *
 *-------------------------------------------------------------------------
 */

package evaluation

import (
	"context"
	"fmt"
	"sync"

	"github.com/opencircle/datagrub/internal/apperr"
	"github.com/opencircle/datagrub/internal/metrics"
)

/* Registry holds every registered adapter. It is built once at startup;
 * re-registration under an existing identity is a deliberate hot-swap
 * affordance, not an error. Concurrent registration requires external
 * synchronization; resolution is safe under the read lock. */
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]Adapter
	order    []string
	bySource map[Source][]string
}

func NewRegistry() *Registry {
	return &Registry{
		byName:   make(map[string]Adapter),
		bySource: make(map[Source][]string),
	}
}

/* Register adds an adapter under its identity and source bucket.
 * Last-write-wins on identity: the replaced adapter keeps its original
 * position so that fallback scan order stays deterministic across swaps.
 * A swap that changes source moves the identity to the new bucket. */
func (r *Registry) Register(adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := adapter.Name()
	if previous, exists := r.byName[name]; exists {
		metrics.WarnWithContext(context.Background(), "Adapter re-registered, previous instance replaced", map[string]interface{}{
			"adapter": name,
			"source":  string(adapter.Source()),
		})
		if previous.Source() != adapter.Source() {
			r.bySource[previous.Source()] = removeName(r.bySource[previous.Source()], name)
			r.bySource[adapter.Source()] = append(r.bySource[adapter.Source()], name)
		}
		r.byName[name] = adapter
		return
	}

	r.byName[name] = adapter
	r.order = append(r.order, name)
	r.bySource[adapter.Source()] = append(r.bySource[adapter.Source()], name)

	metrics.InfoWithContext(context.Background(), "Adapter registered", map[string]interface{}{
		"adapter":      name,
		"source":       string(adapter.Source()),
		"availability": string(adapter.Availability()),
	})
}

func removeName(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

/* Get returns the adapter registered under name */
func (r *Registry) Get(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.byName[name]
	return adapter, ok
}

/* Adapters returns every registered adapter in registration order */
func (r *Registry) Adapters() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapters := make([]Adapter, 0, len(r.order))
	for _, name := range r.order {
		adapters = append(adapters, r.byName[name])
	}
	return adapters
}

/* BySource returns adapters in one source bucket, in registration order */
func (r *Registry) BySource(source Source) []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := r.bySource[source]
	adapters := make([]Adapter, 0, len(names))
	for _, name := range names {
		adapters = append(adapters, r.byName[name])
	}
	return adapters
}

/* Resolution holds the outcome of a resolved execution */
type Resolution struct {
	AdapterName string
	Tier        string
	Result      *Result
}

/* ResolveAndExecute finds an adapter for the evaluation id and runs it.
 *
 * Three tiers, in order: the identity hint, the source-category bucket,
 * then every registered adapter. The scan stops at the first adapter that
 * claims support and completes Execute without failing to even run; a
 * returned StatusFailed result still counts as resolved. When no tier
 * yields a resolving adapter, the id is reported as a NotFound-class
 * outcome, not an adapter failure. */
func (r *Registry) ResolveAndExecute(ctx context.Context, id string, identityHint string, sourceHint *Source, req *Request) (*Resolution, error) {
	type candidate struct {
		adapter Adapter
		tier    string
	}

	r.mu.RLock()
	var candidates []candidate
	seen := make(map[string]bool)
	if identityHint != "" {
		if adapter, ok := r.byName[identityHint]; ok {
			candidates = append(candidates, candidate{adapter, "identity"})
			seen[identityHint] = true
		}
	}
	if sourceHint != nil {
		for _, name := range r.bySource[*sourceHint] {
			if !seen[name] {
				candidates = append(candidates, candidate{r.byName[name], "source"})
				seen[name] = true
			}
		}
	}
	for _, name := range r.order {
		if !seen[name] {
			candidates = append(candidates, candidate{r.byName[name], "scan"})
			seen[name] = true
		}
	}
	r.mu.RUnlock()

	for _, c := range candidates {
		if !c.adapter.SupportsEvaluation(id) {
			continue
		}

		result, err := safeExecute(ctx, c.adapter, id, req)
		if err != nil {
			/* Could not even run: keep scanning */
			metrics.RecordAdapterResolution(c.tier, "unrecoverable")
			metrics.WarnWithContext(ctx, "Adapter failed to run, continuing scan", map[string]interface{}{
				"adapter":    c.adapter.Name(),
				"evaluation": id,
				"error":      err.Error(),
			})
			continue
		}

		metrics.RecordAdapterResolution(c.tier, "resolved")
		return &Resolution{
			AdapterName: c.adapter.Name(),
			Tier:        c.tier,
			Result:      result,
		}, nil
	}

	metrics.RecordAdapterResolution("none", "unresolved")
	return nil, apperr.NotFound("no adapter resolves evaluation %q", id)
}

/* safeExecute shields the scan from adapters that violate the contract by
 * panicking; a panic is treated as failing to even run */
func safeExecute(ctx context.Context, adapter Adapter, id string, req *Request) (result *Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("adapter %s panicked: %v", adapter.Name(), rec)
		}
	}()
	return adapter.Execute(ctx, id, req)
}
