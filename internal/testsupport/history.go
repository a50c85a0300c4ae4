package testsupport

import (
	"testing"

	"remaster/internal/config"
	"remaster/internal/history"
)

// MustOpenHistory opens the ledger configured in cfg and closes it on cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()
	store, err := history.OpenConfig(cfg)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
