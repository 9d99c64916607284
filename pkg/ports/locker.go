package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a lock.
type UnlockFunc func(ctx context.Context) error

// Locker defines the interface for concurrency control.
// The engine locks the job ID so concurrent compilations of the same job
// write their program one at a time, possibly across replicas.
type Locker interface {
	// Lock blocks until the lock for key is acquired or the context is canceled.
	// The lock expires after ttl if the holder never releases it.
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
