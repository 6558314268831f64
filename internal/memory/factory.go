package memory

import (
	"context"
	"strings"
)

// NewStore creates a postgres-backed session sink when DATABASE_URL is
// configured, otherwise an in-memory one suitable for local runs and tests.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
