package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"proovd/internal/platform/config"
	"proovd/internal/verification/store"
)

// A store backend selected without its connection URL must surface as a
// startup error, never a panic later in the request path.
func TestNewStoreRejectsUnconfiguredBackends(t *testing.T) {
	t.Run("postgres without URL", func(t *testing.T) {
		_, _, err := newStore(config.Server{StoreBackend: "postgres"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "postgres URL is required")
	})

	t.Run("redis without URL", func(t *testing.T) {
		_, _, err := newStore(config.Server{StoreBackend: "redis"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "redis URL is required")
	})

	t.Run("memory needs no configuration", func(t *testing.T) {
		st, cleanup, err := newStore(config.Server{StoreBackend: "memory"})
		require.NoError(t, err)
		defer cleanup()
		require.IsType(t, &store.Memory{}, st)
	})
}
