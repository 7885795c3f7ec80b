package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tableside/internal/common/logger"
	"tableside/internal/storage"
)

func newTestManager(t *testing.T) (*Manager, storage.Store) {
	t.Helper()
	store, err := storage.NewStore(storage.StoreTypeMemory)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return NewManager(store, logger.New("session-test")), store
}

func TestGetOrCreateGeneratesSessionID(t *testing.T) {
	m, _ := newTestManager(t)
	s, err := m.GetOrCreate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parts := strings.SplitN(s.ID, "_", 3)
	if len(parts) != 3 || parts[0] != "session" {
		t.Fatalf("session id %q does not match session_<ms>_<rand>", s.ID)
	}
	if len(parts[2]) != 9 {
		t.Fatalf("random suffix %q is not 9 chars", parts[2])
	}
	if !s.Active {
		t.Fatalf("new session must be active")
	}
	if s.TableNumber != 0 {
		t.Fatalf("new session must have no table, got %d", s.TableNumber)
	}
}

func TestGetOrCreateIsIdempotentAcrossReloads(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	first, err := m.GetOrCreate(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	again, err := m.GetOrCreate(ctx)
	if err != nil {
		t.Fatalf("repeat: %v", err)
	}
	if again.ID != first.ID || !again.StartedAt.Equal(first.StartedAt) {
		t.Fatalf("repeated call changed identity: %v vs %v", again, first)
	}

	// A fresh manager over the same store simulates a page reload.
	reloaded, err := NewManager(store, logger.New("session-test")).GetOrCreate(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ID != first.ID {
		t.Fatalf("reload produced new id %q, want %q", reloaded.ID, first.ID)
	}
	if !reloaded.StartedAt.Equal(first.StartedAt) {
		t.Fatalf("reload changed start time %v, want %v", reloaded.StartedAt, first.StartedAt)
	}
}

func TestRestoreRecoversFromCorruptStartTime(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	if _, err := m.GetOrCreate(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Set(ctx, storage.KeySessionStart, "not a timestamp"); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	s, err := NewManager(store, logger.New("session-test")).GetOrCreate(ctx)
	if err != nil {
		t.Fatalf("restore with corrupt start must not fail: %v", err)
	}
	if s.StartedAt.IsZero() {
		t.Fatalf("start time not repaired")
	}
}

func TestStaleInactiveSessionIsDiscarded(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	first, err := m.GetOrCreate(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// An interrupted finalize leaves the flag flipped but the keys behind.
	if err := store.Set(ctx, storage.KeySessionActive, "false"); err != nil {
		t.Fatalf("flag: %v", err)
	}
	_ = store.Set(ctx, storage.KeyCart, `[{"item_id":"x","quantity":1}]`)

	next, err := NewManager(store, logger.New("session-test")).GetOrCreate(ctx)
	if err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if next.ID == first.ID {
		t.Fatalf("inactive session resurrected")
	}
	if _, ok, _ := store.Get(ctx, storage.KeyCart); ok {
		t.Fatalf("stale cart survived the purge")
	}
}

func TestSetTableNumberValidation(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	if _, err := m.GetOrCreate(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, n := range []int{0, -3, 51, 100} {
		if err := m.SetTableNumber(ctx, n); !errors.Is(err, ErrInvalidTable) {
			t.Fatalf("table %d: err = %v, want ErrInvalidTable", n, err)
		}
	}

	if err := m.SetTableNumber(ctx, 12); err != nil {
		t.Fatalf("valid table rejected: %v", err)
	}
	s, _ := m.Current()
	if s.TableNumber != 12 {
		t.Fatalf("table = %d, want 12", s.TableNumber)
	}

	// First valid selection is sticky.
	if err := m.SetTableNumber(ctx, 7); err != nil {
		t.Fatalf("second selection must be a silent no-op: %v", err)
	}
	s, _ = m.Current()
	if s.TableNumber != 12 {
		t.Fatalf("table changed to %d after second selection", s.TableNumber)
	}
}

func TestDetectTableFromURL(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	if _, err := m.GetOrCreate(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := m.DetectTable(ctx, "oops"); !errors.Is(err, ErrInvalidTable) {
		t.Fatalf("garbage url value: err = %v, want ErrInvalidTable", err)
	}
	if err := m.DetectTable(ctx, "42"); err != nil {
		t.Fatalf("valid url value rejected: %v", err)
	}
	s, _ := m.Current()
	if s.TableNumber != 42 {
		t.Fatalf("table = %d, want 42", s.TableNumber)
	}
}

func TestElapsedIsRecomputedNotCounted(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	if _, err := m.GetOrCreate(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}

	m.now = func() time.Time { return base.Add(95 * time.Second) }
	if got := m.Elapsed(); got != 95*time.Second {
		t.Fatalf("elapsed = %v, want 95s", got)
	}

	// Clock skew must never make it negative.
	m.now = func() time.Time { return base.Add(-time.Minute) }
	if got := m.Elapsed(); got != 0 {
		t.Fatalf("elapsed = %v, want 0 under skew", got)
	}
}

func TestEndPurgesEverythingAndMintsNewIdentity(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	first, err := m.GetOrCreate(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.SetTableNumber(ctx, 5); err != nil {
		t.Fatalf("table: %v", err)
	}
	// Simulate sibling state owned by cart and history.
	_ = store.Set(ctx, storage.KeyCart, `[{"item_id":"x","quantity":1}]`)
	_ = store.Set(ctx, storage.KeySessionOrders, `[]`)

	if err := m.End(ctx); err != nil {
		t.Fatalf("end: %v", err)
	}
	for _, key := range storage.SessionKeys {
		if _, ok, _ := store.Get(ctx, key); ok {
			t.Fatalf("key %q survived session end", key)
		}
	}

	next, err := m.GetOrCreate(ctx)
	if err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if next.ID == first.ID {
		t.Fatalf("session id reused after end")
	}
	if next.TableNumber != 0 {
		t.Fatalf("table leaked into new session: %d", next.TableNumber)
	}
}
