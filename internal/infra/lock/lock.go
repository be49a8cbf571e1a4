package lock

import (
	"context"
	"time"
)

// Locker hands out short-lived exclusive leases so that only one instance
// runs a given job at a time.
type Locker interface {
	// Acquire returns ok=false, without error, when someone else holds key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	// Release frees key only if it is still held with token.
	Release(ctx context.Context, key, token string) error
}

// Nop always grants the lease. Used for single-instance deployments.
type Nop struct{}

func (Nop) Acquire(context.Context, string, time.Duration) (string, bool, error) {
	return "", true, nil
}

func (Nop) Release(context.Context, string, string) error {
	return nil
}
