package completion

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jmylchreest/promptdeck/internal/llm"
)

func TestCacheKey_ExactMatchOnly(t *testing.T) {
	base := CacheKey("claude-3-5-sonnet", "Why is the sky blue?")

	variants := []struct{ model, prompt string }{
		{"claude-3-5-sonnet", "Why is the sky blue? "},
		{"claude-3-5-sonnet", "why is the sky blue?"},
		{"claude-3-5-sonnet", "Why is the sky blue"},
		{"claude-3-5-haiku", "Why is the sky blue?"},
	}
	for _, v := range variants {
		if CacheKey(v.model, v.prompt) == base {
			t.Errorf("CacheKey(%q, %q) collides with the base key", v.model, v.prompt)
		}
	}

	if CacheKey("claude-3-5-sonnet", "Why is the sky blue?") != base {
		t.Error("identical arguments must produce identical keys")
	}
}

func TestCacheKey_NoTupleAmbiguity(t *testing.T) {
	// (model, prompt) must never collide across the tuple boundary.
	if CacheKey("ab", "c") == CacheKey("a", "bc") {
		t.Error("keys collide across the model/prompt boundary")
	}
}

func TestMemoryStore_GetSet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("empty store reported a hit")
	}

	want := Result{"a": "b"}
	if err := s.Set(ctx, "k", want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := s.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v, %v", got, ok, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %v, want %v", got, want)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestCachedComplete_HitIsFasterAndEqual(t *testing.T) {
	p := newFakeProvider(fakeRaw, "", nil)
	p.latency = 30 * time.Millisecond
	cache := NewCachedInvoker(NewInvoker(p), NewMemoryStore())
	ctx := context.Background()

	start := time.Now()
	first, cached, err := cache.Complete(ctx, "claude-3-5-sonnet", "Why is the sky blue?")
	missElapsed := time.Since(start)
	if err != nil {
		t.Fatalf("first Complete() error = %v", err)
	}
	if cached {
		t.Error("first call reported a cache hit")
	}

	start = time.Now()
	second, cached, err := cache.Complete(ctx, "claude-3-5-sonnet", "Why is the sky blue?")
	hitElapsed := time.Since(start)
	if err != nil {
		t.Fatalf("second Complete() error = %v", err)
	}
	if !cached {
		t.Error("second call should be a cache hit")
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached result differs: %v vs %v", first, second)
	}
	if hitElapsed >= missElapsed {
		t.Errorf("hit (%v) not faster than miss (%v)", hitElapsed, missElapsed)
	}

	if complete, _ := p.calls(); complete != 1 {
		t.Errorf("provider calls = %d, want 1 (hit must skip the round-trip)", complete)
	}
}

func TestCachedComplete_DistinctPromptsAreDistinctKeys(t *testing.T) {
	p := newFakeProvider(fakeRaw, "", nil)
	cache := NewCachedInvoker(NewInvoker(p), NewMemoryStore())
	ctx := context.Background()

	if _, _, err := cache.Complete(ctx, "m", "prompt"); err != nil {
		t.Fatal(err)
	}
	// One character difference is a miss.
	if _, _, err := cache.Complete(ctx, "m", "prompt!"); err != nil {
		t.Fatal(err)
	}

	if complete, _ := p.calls(); complete != 2 {
		t.Errorf("provider calls = %d, want 2", complete)
	}
}

func TestCachedComplete_FailureLeavesNoEntry(t *testing.T) {
	p := newFakeProvider(fakeRaw, "", nil)
	p.completeErr = &llm.InvocationError{Provider: "fake", Message: "boom"}
	store := NewMemoryStore()
	cache := NewCachedInvoker(NewInvoker(p), store)
	ctx := context.Background()

	_, _, err := cache.Complete(ctx, "m", "p")
	if err == nil {
		t.Fatal("expected the remote failure to propagate")
	}
	if store.Len() != 0 {
		t.Fatalf("failed invocation left %d cache entries", store.Len())
	}

	// The remote recovers; the same key must invoke again, then cache.
	p.completeErr = nil
	if _, cached, err := cache.Complete(ctx, "m", "p"); err != nil || cached {
		t.Fatalf("Complete() after recovery = cached %v, err %v", cached, err)
	}
	if complete, _ := p.calls(); complete != 2 {
		t.Errorf("provider calls = %d, want 2", complete)
	}
	if store.Len() != 1 {
		t.Errorf("successful invocation should have cached, entries = %d", store.Len())
	}
}

func TestCachedComplete_DecodeFailureLeavesNoEntry(t *testing.T) {
	p := newFakeProvider("not json", "", nil)
	store := NewMemoryStore()
	cache := NewCachedInvoker(NewInvoker(p), store)

	_, _, err := cache.Complete(context.Background(), "m", "p")
	if _, ok := llm.AsDecodeError(err); !ok {
		t.Fatalf("error = %v, want *llm.DecodeError", err)
	}
	if store.Len() != 0 {
		t.Errorf("decode failure left %d cache entries", store.Len())
	}
}

func TestCachedComplete_BrokenStoreStillCompletes(t *testing.T) {
	p := newFakeProvider(fakeRaw, "", nil)
	cache := NewCachedInvoker(NewInvoker(p), brokenStore{})

	result, cached, err := cache.Complete(context.Background(), "m", "p")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if cached || result == nil {
		t.Errorf("Complete() = %v, cached %v", result, cached)
	}
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (Result, bool, error) {
	return nil, false, errors.New("store down")
}

func (brokenStore) Set(context.Context, string, Result) error {
	return errors.New("store down")
}
