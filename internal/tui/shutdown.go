package tui

import (
	"context"
	"sync"
	"time"
)

// ShutdownManager coordinates graceful shutdown of the dashboard's
// collaborators. Shutdown runs at most once; later calls are no-ops.
type ShutdownManager struct {
	// DrainTimeout bounds how long StopServer may wait for in-flight requests.
	DrainTimeout time.Duration

	// StopServer stops the optional HTTP API.
	StopServer func(ctx context.Context) error

	// CloseStore flushes and closes the recent identifiers store.
	CloseStore func() error

	// Cleanup performs any additional cleanup (e.g. closing the debug log).
	Cleanup func()

	once sync.Once
}

// NewShutdownManager creates a ShutdownManager with a 5-second drain timeout.
func NewShutdownManager() *ShutdownManager {
	return &ShutdownManager{
		DrainTimeout: 5 * time.Second,
	}
}

// Shutdown stops the server, closes the store and runs cleanup, in that
// order. It returns the first error encountered.
func (sm *ShutdownManager) Shutdown() error {
	var firstErr error
	sm.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sm.DrainTimeout)
		defer cancel()

		if sm.StopServer != nil {
			if err := sm.StopServer(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}

		if sm.CloseStore != nil {
			if err := sm.CloseStore(); err != nil && firstErr == nil {
				firstErr = err
			}
		}

		if sm.Cleanup != nil {
			sm.Cleanup()
		}
	})
	return firstErr
}
