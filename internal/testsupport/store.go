package testsupport

import (
	"testing"

	"cardpress/internal/config"
	"cardpress/internal/draft"
)

// MustOpenStore opens a draft.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *draft.Store {
	t.Helper()

	store, err := draft.Open(cfg)
	if err != nil {
		t.Fatalf("draft.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
