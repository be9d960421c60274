package testsupport

import (
	"context"
	"testing"

	"feedrelay/internal/config"
	"feedrelay/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedResource upserts a resource for tests using the provided store.
func SeedResource(t testing.TB, st *store.Store, r *store.Resource) *store.Resource {
	t.Helper()

	if err := st.UpsertResource(context.Background(), r); err != nil {
		t.Fatalf("store.UpsertResource: %v", err)
	}
	return r
}
