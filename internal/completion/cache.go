package completion

import (
	"context"
	"sync"

	"github.com/jmylchreest/promptdeck/internal/logger"
)

// cacheKeySep joins model and prompt into a cache key. It cannot appear in a
// model identifier, so distinct (model, prompt) tuples never collide.
const cacheKeySep = "\x1f"

// CacheKey derives the exact-match key for a request. No normalization of
// any kind: a single differing character is a miss.
func CacheKey(model, prompt string) string {
	return model + cacheKeySep + prompt
}

// Store is a keyed result store owned by the hosting process. Entries are
// inserted once per distinct key and never mutated in place.
type Store interface {
	Get(ctx context.Context, key string) (Result, bool, error)
	Set(ctx context.Context, key string, result Result) error
}

// MemoryStore is an unbounded in-process store. A multi-session host shares
// one MemoryStore across all sessions with no isolation; the mutex only
// keeps that coarse sharing race-free.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Result
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Result)}
}

// Get returns the stored result for key, if any.
func (s *MemoryStore) Get(_ context.Context, key string) (Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.entries[key]
	return result, ok, nil
}

// Set inserts a result under key.
func (s *MemoryStore) Set(_ context.Context, key string, result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = result
	return nil
}

// Len returns the number of cached entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// CachedInvoker memoizes the blocking path of an Invoker.
//
// Concurrent identical requests arriving before the first completes are not
// deduplicated; each invokes the backend and the last write wins.
type CachedInvoker struct {
	inv   *Invoker
	store Store
}

// NewCachedInvoker wraps an invoker with a store.
func NewCachedInvoker(inv *Invoker, store Store) *CachedInvoker {
	return &CachedInvoker{inv: inv, store: store}
}

// Invoker returns the wrapped invoker, for the streaming path which is never
// cached.
func (c *CachedInvoker) Invoker() *Invoker {
	return c.inv
}

// Complete is semantically equivalent to Invoker.Complete, memoized. The
// second return reports whether the result came from the cache. A result is
// stored only after a successful invocation; failed calls leave no entry.
func (c *CachedInvoker) Complete(ctx context.Context, model, prompt string) (Result, bool, error) {
	key := CacheKey(model, prompt)

	if result, ok, err := c.store.Get(ctx, key); err != nil {
		// A broken store must not take the invocation path down with it.
		logger.Warn("cache read failed", "error", err)
	} else if ok {
		logger.Debug("cache hit", "model", model)
		return result, true, nil
	}

	result, err := c.inv.Complete(ctx, model, prompt)
	if err != nil {
		return nil, false, err
	}

	if err := c.store.Set(ctx, key, result); err != nil {
		logger.Warn("cache write failed", "error", err)
	}

	return result, false, nil
}
