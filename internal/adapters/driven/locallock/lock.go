// Package locallock provides an in-process DistributedLock for
// deployments that run without REDIS_URL configured, so the ingest CLI
// works standalone (spec §6 marks REDIS_URL optional).
package locallock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/domainforge/domainforge-core/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*Lock)(nil)

// Lock implements DistributedLock with a process-local mutex per name.
// It cannot coordinate across processes; it exists only to give a single
// process the same writer-exclusivity guard the Redis-backed lock gives a
// fleet.
type Lock struct {
	mu      sync.Mutex
	holders map[string]struct{}
}

// New creates an empty local lock table.
func New() *Lock {
	return &Lock{holders: make(map[string]struct{})}
}

func (l *Lock) Acquire(_ context.Context, name string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.holders[name]; held {
		return false, nil
	}
	l.holders[name] = struct{}{}
	return true, nil
}

func (l *Lock) Release(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.holders, name)
	return nil
}

func (l *Lock) Extend(_ context.Context, name string, _ time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.holders[name]; !held {
		return fmt.Errorf("lock %s not held by this instance", name)
	}
	return nil
}

func (l *Lock) Ping(_ context.Context) error {
	return nil
}
