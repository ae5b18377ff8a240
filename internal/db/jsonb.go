/*-------------------------------------------------------------------------
 *
 * jsonb.go
 *    JSONB column support for DataGrub
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/db/jsonb.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

/* JSONBMap maps a jsonb column to a Go map */
type JSONBMap map[string]interface{}

func (m JSONBMap) Value() (driver.Value, error) {
	/* Nil maps serialize as an empty object; the jsonb columns are NOT NULL */
	if m == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jsonb: %w", err)
	}
	return data, nil
}

func (m *JSONBMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}

	if len(data) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, m)
}

/* FromMap converts a plain map to a JSONBMap */
func FromMap(m map[string]interface{}) JSONBMap {
	if m == nil {
		return nil
	}
	return JSONBMap(m)
}

/* ToMap converts a JSONBMap back to a plain map */
func (m JSONBMap) ToMap() map[string]interface{} {
	if m == nil {
		return nil
	}
	return map[string]interface{}(m)
}
