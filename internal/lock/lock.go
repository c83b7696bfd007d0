// Package lock provides keyed mutual exclusion visible to every caller that
// adjusts capacity. Keys are used verbatim; they are never hashed.
package lock

import (
	"context"
	"errors"
	"sort"
)

var (
	ErrLeaseLost = errors.New("lock lease lost before release")
	ErrEmptyKey  = errors.New("lock key is empty")
	ErrNotReady  = errors.New("lock provider not configured")
)

// Provider hands out exclusive leases on string keys.
type Provider interface {
	Acquire(ctx context.Context, key string) (Lease, error)
}

// Lease is a held lock. Release must be called exactly once.
type Lease interface {
	Key() string
	Release(ctx context.Context) error
}

// With acquires every key (sorted, deduplicated) and runs fn while holding all of
// them. Leases are released in reverse order on every exit path, including panics.
// A release failure is reported only when fn itself failed.
func With(ctx context.Context, p Provider, keys []string, fn func(ctx context.Context) error) (err error) {
	if p == nil {
		return ErrNotReady
	}
	keys = normalizeKeys(keys)

	leases := make([]Lease, 0, len(keys))
	defer func() {
		releaseCtx := context.WithoutCancel(ctx)
		var releaseErr error
		for i := len(leases) - 1; i >= 0; i-- {
			if rerr := leases[i].Release(releaseCtx); rerr != nil {
				releaseErr = errors.Join(releaseErr, rerr)
			}
		}
		if err != nil && releaseErr != nil {
			err = errors.Join(err, releaseErr)
		}
	}()

	for _, key := range keys {
		if key == "" {
			return ErrEmptyKey
		}
		lease, aerr := p.Acquire(ctx, key)
		if aerr != nil {
			return aerr
		}
		leases = append(leases, lease)
	}

	return fn(ctx)
}

func normalizeKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	// Sorted acquisition keeps multi-key callers from deadlocking each other.
	sort.Strings(out)
	return out
}
