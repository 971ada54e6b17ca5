// Package testsupport provides shared constructors for package tests:
// per-test configs seeded with temp directories and pre-opened stores.
package testsupport

import (
	"path/filepath"
	"testing"

	"fieldwork/internal/config"
)

// ConfigOption allows callers to customize the generated test
// configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per
// test. It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Sync.Destination = filepath.Join(base, "uploads")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithBackend forces the packet store backend on the test config.
func WithBackend(backend string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Storage.Backend = backend
	}
}

// WithDestination overrides the sync destination on the test config.
func WithDestination(destination string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sync.Destination = destination
	}
}
