package testsupport

import (
	"testing"

	"fieldwork/internal/config"
	"fieldwork/internal/logging"
	"fieldwork/internal/store"
)

// MustOpenStore opens a packet store for the test config and registers
// cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st := store.Open(cfg, logging.NewNop())
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return st
}
