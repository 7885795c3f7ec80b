package storage

import (
	"context"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(StoreTypeMemory)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok, _ := s.Get(ctx, "missing"); ok {
		t.Fatalf("missing key reported present")
	}

	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("get = (%q, %v, %v), want (v, true, nil)", v, ok, err)
	}

	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("removed key still present")
	}
}

func TestNewStoreRejectsBadConfig(t *testing.T) {
	if _, err := NewStore(StoreTypeRedis); err != ErrInvalidConfig {
		t.Fatalf("redis store without client: err = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewStore(StoreType("bolt")); err != ErrInvalidStoreType {
		t.Fatalf("unknown driver: err = %v, want ErrInvalidStoreType", err)
	}
}

func TestReadJSONTreatsCorruptionAsAbsent(t *testing.T) {
	ctx := context.Background()
	s, _ := NewStore(StoreTypeMemory)

	if err := s.Set(ctx, "blob", `{"broken`); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out map[string]int
	ok, err := ReadJSON(ctx, s, "blob", &out)
	if err != nil {
		t.Fatalf("corrupt payload must not be an error, got %v", err)
	}
	if ok {
		t.Fatalf("corrupt payload reported as present")
	}
}

func TestWriteReadJSON(t *testing.T) {
	ctx := context.Background()
	s, _ := NewStore(StoreTypeMemory)

	in := map[string]int{"a": 1, "b": 2}
	if err := WriteJSON(ctx, s, "m", in); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out map[string]int
	ok, err := ReadJSON(ctx, s, "m", &out)
	if err != nil || !ok {
		t.Fatalf("read = (%v, %v), want (true, nil)", ok, err)
	}
	if out["a"] != 1 || out["b"] != 2 {
		t.Fatalf("round trip mismatch: %v", out)
	}
}
