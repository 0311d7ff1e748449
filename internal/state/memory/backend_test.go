package memory

import (
	"context"
	"testing"
	"time"
)

func TestBackend_SetGet(t *testing.T) {
	b := New(0, 0)
	ctx := context.Background()

	if err := b.Set(ctx, "s1", "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	v, ok, err := b.Get(ctx, "s1", "k")
	if err != nil || !ok {
		t.Fatalf("Get() = %q, %v, %v", v, ok, err)
	}
	if string(v) != "v" {
		t.Errorf("value = %q, want v", v)
	}

	if _, ok, _ := b.Get(ctx, "s1", "missing"); ok {
		t.Error("expected not found for missing key")
	}
	if _, ok, _ := b.Get(ctx, "other", "k"); ok {
		t.Error("expected not found for other session")
	}
}

func TestBackend_ReturnedBytesAreCopies(t *testing.T) {
	b := New(0, 0)
	ctx := context.Background()

	orig := []byte("value")
	if err := b.Set(ctx, "s1", "k", orig); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	orig[0] = 'X'

	v, _, err := b.Get(ctx, "s1", "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(v) != "value" {
		t.Errorf("stored bytes aliased the caller's slice: %q", v)
	}

	v[0] = 'Y'
	v2, _, _ := b.Get(ctx, "s1", "k")
	if string(v2) != "value" {
		t.Errorf("returned bytes aliased the store: %q", v2)
	}
}

func TestBackend_DeleteAndClear(t *testing.T) {
	b := New(0, 0)
	ctx := context.Background()

	_ = b.Set(ctx, "s1", "a", []byte("1"))
	_ = b.Set(ctx, "s1", "b", []byte("2"))

	if err := b.Delete(ctx, "s1", "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := b.Get(ctx, "s1", "a"); ok {
		t.Error("deleted key still present")
	}
	if _, ok, _ := b.Get(ctx, "s1", "b"); !ok {
		t.Error("sibling key removed by Delete")
	}

	if err := b.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, ok, _ := b.Get(ctx, "s1", "b"); ok {
		t.Error("key survived Clear")
	}
	if err := b.Clear(ctx, "s1"); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
}

func TestBackend_TTLExpiry(t *testing.T) {
	b := New(0, 25*time.Millisecond)
	ctx := context.Background()

	if err := b.Set(ctx, "s1", "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(80 * time.Millisecond)

	if _, ok, _ := b.Get(ctx, "s1", "k"); ok {
		t.Error("session survived past its TTL")
	}
}

func TestBackend_DeleteDoesNotRefreshTTL(t *testing.T) {
	b := New(0, 60*time.Millisecond)
	ctx := context.Background()

	_ = b.Set(ctx, "s1", "a", []byte("1"))
	_ = b.Set(ctx, "s1", "b", []byte("2"))

	time.Sleep(40 * time.Millisecond)
	if err := b.Delete(ctx, "s1", "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	time.Sleep(40 * time.Millisecond)

	// 80ms since Set: the session must have expired on schedule even though
	// Delete touched it at the 40ms mark.
	if _, ok, _ := b.Get(ctx, "s1", "b"); ok {
		t.Error("Delete extended the session's TTL")
	}
}

func TestBackend_MaxSessionsEvictsOldest(t *testing.T) {
	b := New(2, 0)
	ctx := context.Background()

	_ = b.Set(ctx, "s1", "k", []byte("1"))
	_ = b.Set(ctx, "s2", "k", []byte("2"))
	_ = b.Set(ctx, "s3", "k", []byte("3"))

	if got := b.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	if _, ok, _ := b.Get(ctx, "s1", "k"); ok {
		t.Error("oldest session should have been evicted")
	}
	if _, ok, _ := b.Get(ctx, "s3", "k"); !ok {
		t.Error("newest session missing")
	}
}
