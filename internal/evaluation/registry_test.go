/*-------------------------------------------------------------------------
 *
 * registry_test.go
 *    Tests for adapter registration and three-tier resolution
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/evaluation/registry_test.go
 *
 *-------------------------------------------------------------------------
 */

package evaluation

import (
	"context"
	"fmt"
	"testing"

	"github.com/opencircle/datagrub/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* fakeAdapter is a configurable adapter for registry and executor tests */
type fakeAdapter struct {
	name     string
	source   Source
	supports map[string]bool
	execute  func(ctx context.Context, id string, req *Request) (*Result, error)
}

func (f *fakeAdapter) Name() string               { return f.name }
func (f *fakeAdapter) Source() Source             { return f.source }
func (f *fakeAdapter) Availability() Availability { return Available }
func (f *fakeAdapter) IsAvailable() bool          { return true }
func (f *fakeAdapter) Definitions() []Definition  { return nil }
func (f *fakeAdapter) Definition(id string) (*Definition, bool) {
	return nil, false
}
func (f *fakeAdapter) SupportsEvaluation(id string) bool {
	return f.supports[id]
}
func (f *fakeAdapter) ValidateConfig(id string, config map[string]interface{}) error {
	return nil
}
func (f *fakeAdapter) Execute(ctx context.Context, id string, req *Request) (*Result, error) {
	if f.execute != nil {
		return f.execute(ctx, id, req)
	}
	return ScoredResult(1.0, true, "ok"), nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	adapter := &fakeAdapter{name: "alpha", source: SourceFirstParty}
	registry.Register(adapter)

	got, ok := registry.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", got.Name())

	_, ok = registry.Get("missing")
	assert.False(t, ok)
}

func TestRegistryReRegistrationReplacesAndKeepsOrder(t *testing.T) {
	registry := NewRegistry()
	first := &fakeAdapter{name: "alpha", source: SourceFirstParty}
	middle := &fakeAdapter{name: "beta", source: SourceVendor}
	replacement := &fakeAdapter{name: "alpha", source: SourceFirstParty, supports: map[string]bool{"x": true}}

	registry.Register(first)
	registry.Register(middle)
	registry.Register(replacement)

	adapters := registry.Adapters()
	require.Len(t, adapters, 2)
	assert.Equal(t, "alpha", adapters[0].Name())
	assert.Equal(t, "beta", adapters[1].Name())

	got, ok := registry.Get("alpha")
	require.True(t, ok)
	assert.True(t, got.SupportsEvaluation("x"), "replacement instance must be served")
}

func TestRegistryReRegistrationMovesSourceBucket(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeAdapter{name: "alpha", source: SourceFirstParty, supports: map[string]bool{"x": true}})
	registry.Register(&fakeAdapter{name: "alpha", source: SourceVendor, supports: map[string]bool{"x": true}})

	assert.Empty(t, registry.BySource(SourceFirstParty), "swapped identity must leave its old bucket")
	vendors := registry.BySource(SourceVendor)
	require.Len(t, vendors, 1)
	assert.Equal(t, "alpha", vendors[0].Name())

	source := SourceVendor
	resolution, err := registry.ResolveAndExecute(context.Background(), "x", "", &source, &Request{})
	require.NoError(t, err)
	assert.Equal(t, "source", resolution.Tier)
}

func TestRegistryBySource(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeAdapter{name: "fp", source: SourceFirstParty})
	registry.Register(&fakeAdapter{name: "vendor-a", source: SourceVendor})
	registry.Register(&fakeAdapter{name: "vendor-b", source: SourceVendor})

	vendors := registry.BySource(SourceVendor)
	require.Len(t, vendors, 2)
	assert.Equal(t, "vendor-a", vendors[0].Name())
	assert.Equal(t, "vendor-b", vendors[1].Name())
	assert.Empty(t, registry.BySource(SourceLLMJudge))
}

func TestResolveIdentityTier(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeAdapter{name: "other", source: SourceFirstParty, supports: map[string]bool{"eval-1": true}})
	registry.Register(&fakeAdapter{name: "hinted", source: SourceVendor, supports: map[string]bool{"eval-1": true}})

	resolution, err := registry.ResolveAndExecute(context.Background(), "eval-1", "hinted", nil, &Request{})
	require.NoError(t, err)
	assert.Equal(t, "hinted", resolution.AdapterName)
	assert.Equal(t, "identity", resolution.Tier)
}

func TestResolveSourceTier(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeAdapter{name: "fp", source: SourceFirstParty, supports: map[string]bool{"eval-1": true}})
	registry.Register(&fakeAdapter{name: "vendor", source: SourceVendor, supports: map[string]bool{"eval-1": true}})

	source := SourceVendor
	resolution, err := registry.ResolveAndExecute(context.Background(), "eval-1", "", &source, &Request{})
	require.NoError(t, err)
	assert.Equal(t, "vendor", resolution.AdapterName)
	assert.Equal(t, "source", resolution.Tier)
}

func TestResolveScanTierInRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeAdapter{name: "first", source: SourceFirstParty})
	registry.Register(&fakeAdapter{name: "second", source: SourceVendor, supports: map[string]bool{"eval-1": true}})
	registry.Register(&fakeAdapter{name: "third", source: SourceCustom, supports: map[string]bool{"eval-1": true}})

	resolution, err := registry.ResolveAndExecute(context.Background(), "eval-1", "", nil, &Request{})
	require.NoError(t, err)
	assert.Equal(t, "second", resolution.AdapterName)
	assert.Equal(t, "scan", resolution.Tier)
}

func TestResolveUnresolvedIsNotFound(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeAdapter{name: "alpha", source: SourceFirstParty})

	_, err := registry.ResolveAndExecute(context.Background(), "eval-unknown", "", nil, &Request{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestResolveContinuesPastAdapterError(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeAdapter{
		name: "broken", source: SourceFirstParty,
		supports: map[string]bool{"eval-1": true},
		execute: func(ctx context.Context, id string, req *Request) (*Result, error) {
			return nil, fmt.Errorf("backend unreachable")
		},
	})
	registry.Register(&fakeAdapter{name: "working", source: SourceVendor, supports: map[string]bool{"eval-1": true}})

	resolution, err := registry.ResolveAndExecute(context.Background(), "eval-1", "", nil, &Request{})
	require.NoError(t, err)
	assert.Equal(t, "working", resolution.AdapterName)
}

func TestResolveContinuesPastPanic(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeAdapter{
		name: "panicky", source: SourceFirstParty,
		supports: map[string]bool{"eval-1": true},
		execute: func(ctx context.Context, id string, req *Request) (*Result, error) {
			panic("adapter bug")
		},
	})
	registry.Register(&fakeAdapter{name: "working", source: SourceVendor, supports: map[string]bool{"eval-1": true}})

	resolution, err := registry.ResolveAndExecute(context.Background(), "eval-1", "", nil, &Request{})
	require.NoError(t, err)
	assert.Equal(t, "working", resolution.AdapterName)
}

func TestResolveFailedResultStillResolves(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeAdapter{
		name: "scoring-failed", source: SourceFirstParty,
		supports: map[string]bool{"eval-1": true},
		execute: func(ctx context.Context, id string, req *Request) (*Result, error) {
			return FailedResult("rubric rejected input"), nil
		},
	})
	registry.Register(&fakeAdapter{name: "fallback", source: SourceVendor, supports: map[string]bool{"eval-1": true}})

	resolution, err := registry.ResolveAndExecute(context.Background(), "eval-1", "", nil, &Request{})
	require.NoError(t, err)
	assert.Equal(t, "scoring-failed", resolution.AdapterName, "failed result counts as resolved, no fallback")
	assert.Equal(t, StatusFailed, resolution.Result.Status)
}

func TestResolveIdentityHintNotDuplicatedInScan(t *testing.T) {
	calls := 0
	registry := NewRegistry()
	registry.Register(&fakeAdapter{
		name: "hinted", source: SourceFirstParty,
		supports: map[string]bool{"eval-1": true},
		execute: func(ctx context.Context, id string, req *Request) (*Result, error) {
			calls++
			return nil, fmt.Errorf("always down")
		},
	})

	_, err := registry.ResolveAndExecute(context.Background(), "eval-1", "hinted", nil, &Request{})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "adapter must be tried once even when in multiple tiers")
}
