// Package session owns the identity and lifetime of one dining visit.
package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"tableside/internal/common/logger"
	"tableside/internal/domain"
	"tableside/internal/storage"
)

// ErrInvalidTable rejects table numbers outside the policy bounds.
var ErrInvalidTable = errors.New("invalid table number")

// Policy bounds for selectable tables. The UI may render fewer, but
// anything in this range is accepted (e.g. from a printed QR code).
const (
	MinTable = 1
	MaxTable = 50
)

// Manager creates a session on first visit, restores it on reload and
// tears it down on session end. There is at most one active session
// per device.
type Manager struct {
	store storage.Store
	lg    *logger.Logger

	now   func() time.Time
	newID func() string

	mu  sync.Mutex
	cur *domain.Session
}

func NewManager(store storage.Store, lg *logger.Logger) *Manager {
	return &Manager{store: store, lg: lg, now: time.Now, newID: newSessionID}
}

// GetOrCreate restores the persisted session or starts a fresh one.
// Repeated calls without an End in between always yield the same
// id and start time, so a page reload is invisible to the visit.
func (m *Manager) GetOrCreate(ctx context.Context) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur != nil {
		return *m.cur, nil
	}

	id, ok, err := m.store.Get(ctx, storage.KeySessionID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("read session id: %w", err)
	}
	if ok && id != "" {
		s, err := m.restore(ctx, id)
		if err != nil {
			return domain.Session{}, err
		}
		// An inactive leftover means a finalize was interrupted before
		// the purge completed. Finish the purge and start over.
		if s.Active {
			m.cur = &s
			m.lg.Info("session_restored", map[string]any{"session_id": s.ID, "table": s.TableNumber})
			return s, nil
		}
		m.lg.Warn("stale_session_discarded", map[string]any{"session_id": s.ID})
		for _, key := range storage.SessionKeys {
			if err := m.store.Remove(ctx, key); err != nil {
				return domain.Session{}, fmt.Errorf("purge %s: %w", key, err)
			}
		}
	}

	s := domain.Session{
		ID:        m.newID(),
		StartedAt: m.now(),
		Active:    true,
	}
	if err := m.persist(ctx, s); err != nil {
		return domain.Session{}, err
	}
	m.cur = &s
	m.lg.Info("session_created", map[string]any{"session_id": s.ID})
	return s, nil
}

// restore rebuilds the session from its persisted fields. Any field
// that is missing or corrupt falls back to a sane default; a broken
// start timestamp restarts the clock rather than failing the visit.
func (m *Manager) restore(ctx context.Context, id string) (domain.Session, error) {
	s := domain.Session{ID: id, Active: true}

	if raw, ok, err := m.store.Get(ctx, storage.KeySessionStart); err != nil {
		return domain.Session{}, fmt.Errorf("read session start: %w", err)
	} else if ok {
		if t, perr := time.Parse(time.RFC3339Nano, raw); perr == nil {
			s.StartedAt = t
		}
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = m.now()
		if err := m.store.Set(ctx, storage.KeySessionStart, s.StartedAt.Format(time.RFC3339Nano)); err != nil {
			return domain.Session{}, fmt.Errorf("write session start: %w", err)
		}
	}

	if raw, ok, err := m.store.Get(ctx, storage.KeySessionActive); err != nil {
		return domain.Session{}, fmt.Errorf("read session active: %w", err)
	} else if ok {
		s.Active = raw == "true"
	}

	if raw, ok, err := m.store.Get(ctx, storage.KeyTableNumber); err != nil {
		return domain.Session{}, fmt.Errorf("read table number: %w", err)
	} else if ok {
		if n, perr := strconv.Atoi(raw); perr == nil && validTable(n) {
			s.TableNumber = n
		}
	}
	return s, nil
}

func (m *Manager) persist(ctx context.Context, s domain.Session) error {
	if err := m.store.Set(ctx, storage.KeySessionID, s.ID); err != nil {
		return fmt.Errorf("write session id: %w", err)
	}
	if err := m.store.Set(ctx, storage.KeySessionStart, s.StartedAt.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("write session start: %w", err)
	}
	if err := m.store.Set(ctx, storage.KeySessionActive, strconv.FormatBool(s.Active)); err != nil {
		return fmt.Errorf("write session active: %w", err)
	}
	return nil
}

// Current returns the in-memory session without touching the store.
func (m *Manager) Current() (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return domain.Session{}, false
	}
	return *m.cur, true
}

// SetTableNumber accepts a table once per session: the first valid
// selection wins and later calls are no-ops. An out-of-range number is
// rejected with ErrInvalidTable and changes nothing.
func (m *Manager) SetTableNumber(ctx context.Context, n int) error {
	if !validTable(n) {
		m.lg.Warn("table_rejected", map[string]any{"table": n})
		return ErrInvalidTable
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return errors.New("no active session")
	}
	if m.cur.TableNumber != 0 {
		return nil
	}
	if err := m.store.Set(ctx, storage.KeyTableNumber, strconv.Itoa(n)); err != nil {
		return fmt.Errorf("write table number: %w", err)
	}
	m.cur.TableNumber = n
	m.lg.Info("table_selected", map[string]any{"session_id": m.cur.ID, "table": n})
	return nil
}

// DetectTable applies a raw table value carried in the shareable URL.
// A present, valid value becomes the canonical table for the visit.
func (m *Manager) DetectTable(ctx context.Context, raw string) error {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return ErrInvalidTable
	}
	return m.SetTableNumber(ctx, n)
}

// Elapsed is recomputed from the start time on every read, never
// stored as a counter, so it self-corrects across reloads.
func (m *Manager) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return 0
	}
	d := m.now().Sub(m.cur.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// End deactivates the session and purges every session-scoped key:
// identity, clock, table, cart and order history. The next
// GetOrCreate starts a brand-new visit.
func (m *Manager) End(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return nil
	}
	id := m.cur.ID
	m.cur.Active = false

	for _, key := range storage.SessionKeys {
		if err := m.store.Remove(ctx, key); err != nil {
			return fmt.Errorf("purge %s: %w", key, err)
		}
	}
	m.cur = nil
	m.lg.Info("session_ended", map[string]any{"session_id": id})
	return nil
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// newSessionID yields session_<epoch-ms>_<9 random base36 chars>.
func newSessionID() string {
	buf := make([]byte, 9)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = base36[int(b)%len(base36)]
	}
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), buf)
}

func validTable(n int) bool { return n >= MinTable && n <= MaxTable }
