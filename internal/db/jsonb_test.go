/*-------------------------------------------------------------------------
 *
 * jsonb_test.go
 *    Tests for JSONB column conversion
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/db/jsonb_test.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONBMapValueNilIsEmptyObject(t *testing.T) {
	var m JSONBMap
	v, err := m.Value()
	require.NoError(t, err)
	/* Must never be SQL NULL: the jsonb columns carry NOT NULL constraints
	 * and an explicit NULL bypasses their DEFAULT '{}' */
	require.NotNil(t, v)
	assert.Equal(t, []byte("{}"), v)
}

func TestJSONBMapValueMarshalsContents(t *testing.T) {
	m := JSONBMap{"score": 0.5}
	v, err := m.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"score": 0.5}`, string(v.([]byte)))
}

func TestJSONBMapScanRoundTrip(t *testing.T) {
	var m JSONBMap
	require.NoError(t, m.Scan([]byte(`{"passed": true}`)))
	assert.Equal(t, true, m["passed"])

	require.NoError(t, m.Scan(nil))
	assert.Nil(t, m)
}

func TestJSONBMapValueScanNilRoundTrip(t *testing.T) {
	var m JSONBMap
	v, err := m.Value()
	require.NoError(t, err)

	var back JSONBMap
	require.NoError(t, back.Scan(v))
	assert.Empty(t, back)
}
