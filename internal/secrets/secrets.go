/*-------------------------------------------------------------------------
 *
 * secrets.go
 *    Secret lookup for DataGrub adapters
 *
 * Adapters that call external model providers themselves receive a Source
 * handle instead of raw credentials. Credential custody and encryption are
 * the platform's concern; this package only exposes retrieval.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/secrets/secrets.go
 *
 *-------------------------------------------------------------------------
 */

package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

/* Source resolves a named secret */
type Source interface {
	Get(ctx context.Context, name string) (string, error)
}

/* EnvSource resolves secrets from environment variables with an optional prefix */
type EnvSource struct {
	Prefix string
}

func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{Prefix: prefix}
}

func (s *EnvSource) Get(_ context.Context, name string) (string, error) {
	key := s.Prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("secret %q not set", key)
	}
	return value, nil
}

/* StaticSource serves a fixed map, used for tests and single-tenant deployments */
type StaticSource map[string]string

func (s StaticSource) Get(_ context.Context, name string) (string, error) {
	value, ok := s[name]
	if !ok {
		return "", fmt.Errorf("secret %q not set", name)
	}
	return value, nil
}
