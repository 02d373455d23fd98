package testsupport

import (
	"testing"

	"glimpse/internal/captures"
	"glimpse/internal/config"
)

// MustOpenStore opens a captures.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *captures.Store {
	t.Helper()

	store, err := captures.Open(cfg)
	if err != nil {
		t.Fatalf("captures.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
