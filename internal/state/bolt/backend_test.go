package bolt

import (
	"context"
	"path/filepath"
	"testing"
)

func newBackend(t *testing.T) (*Backend, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.db")
	b, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b, path
}

func TestBackend_RoundTrip(t *testing.T) {
	b, _ := newBackend(t)
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

	if _, ok, _ := b.Get(ctx, "s2", "k"); ok {
		t.Error("value visible under a different session")
	}
}

func TestBackend_DeleteAndClear(t *testing.T) {
	b, _ := newBackend(t)
	ctx := context.Background()

	_ = b.Set(ctx, "s1", "a", []byte("1"))
	_ = b.Set(ctx, "s1", "b", []byte("2"))

	if err := b.Delete(ctx, "s1", "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := b.Get(ctx, "s1", "a"); ok {
		t.Error("deleted key still present")
	}

	if err := b.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, ok, _ := b.Get(ctx, "s1", "b"); ok {
		t.Error("key survived Clear")
	}

	// Idempotent, including for sessions that never existed.
	if err := b.Clear(ctx, "s1"); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
	if err := b.Clear(ctx, "ghost"); err != nil {
		t.Errorf("Clear(unknown) error = %v", err)
	}
	if err := b.Delete(ctx, "ghost", "k"); err != nil {
		t.Errorf("Delete(unknown session) error = %v", err)
	}
}

func TestBackend_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	b, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := b.Set(ctx, "s1", "k", []byte("persisted")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	b2, err := New(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer b2.Close()

	v, ok, err := b2.Get(ctx, "s1", "k")
	if err != nil || !ok {
		t.Fatalf("Get() after reopen = %q, %v, %v", v, ok, err)
	}
	if string(v) != "persisted" {
		t.Errorf("value = %q, want persisted", v)
	}
}
