package state

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/RevCBH/lastsignal/internal/logging"
)

// backend persists the whole record. *Store is the production backend.
type backend interface {
	Path() string
	Load() (st State, raw []byte, exists bool, err error)
	Save(st State) ([]byte, error)
}

// Manager is the only writer of the lifecycle record. Every mutation is
// applied to a copy, flushed to disk, and only then becomes current, so a
// failed write leaves the in-memory record unchanged.
type Manager struct {
	store  backend
	logger *slog.Logger
	now    func() time.Time

	mu          sync.RWMutex
	state       State
	lastWritten []byte
}

// Open loads state from dataDir, creating and persisting an empty record on
// first run.
func Open(dataDir string) (*Manager, error) {
	return OpenWithClock(dataDir, time.Now)
}

// OpenWithClock is Open with an injected clock.
func OpenWithClock(dataDir string, now func() time.Time) (*Manager, error) {
	return openBackend(NewStore(dataDir), now)
}

func openBackend(store backend, now func() time.Time) (*Manager, error) {
	m := &Manager{
		store:  store,
		logger: logging.Component("state"),
		now:    now,
	}

	st, raw, exists, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	if !exists {
		m.logger.Info("state file does not exist, creating new state", "path", m.store.Path())
		if raw, err = m.store.Save(st); err != nil {
			return nil, err
		}
	}
	m.state = st
	m.lastWritten = raw
	return m, nil
}

// Path returns the state file location.
func (m *Manager) Path() string {
	return m.store.Path()
}

// Snapshot returns a copy of the current record.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

// Now returns the manager's clock reading.
func (m *Manager) Now() time.Time {
	return m.now().UTC()
}

func (m *Manager) mutate(fn func(*State)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Pick up an external replacement first so it is not overwritten
	if _, err := m.reloadLocked(); err != nil {
		return err
	}

	next := m.state.Clone()
	fn(&next)

	raw, err := m.store.Save(next)
	if err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	m.state = next
	m.lastWritten = raw
	return nil
}

// RecordCheckin sets last_checkin to now and resets the request counter.
// It returns the recorded time.
func (m *Manager) RecordCheckin() (time.Time, error) {
	now := m.Now()
	err := m.mutate(func(s *State) {
		s.LastCheckin = &now
		s.CheckinRequestCount = 0
		s.FirstUnansweredRequest = nil
	})
	if err != nil {
		return time.Time{}, err
	}
	m.logger.Info("recorded check-in", "at", now)
	return now, nil
}

// RecordManualCheckin records a user-initiated check-in. It also clears
// recipient tracking and the last fired time, all in one write, so either
// every field changes or none does.
func (m *Manager) RecordManualCheckin() (time.Time, error) {
	now := m.Now()
	err := m.mutate(func(s *State) {
		s.LastCheckin = &now
		s.CheckinRequestCount = 0
		s.FirstUnansweredRequest = nil
		s.RecipientNotifications = make(map[string]time.Time)
		s.LastEscalationFired = nil
	})
	if err != nil {
		return time.Time{}, err
	}
	m.logger.Info("recorded manual check-in and cleared last signal recipient tracking", "at", now)
	return now, nil
}

// RecordCheckinRequest records that a check-in was requested.
func (m *Manager) RecordCheckinRequest() error {
	now := m.Now()
	var count uint32
	err := m.mutate(func(s *State) {
		s.LastCheckinRequest = &now
		if s.FirstUnansweredRequest == nil {
			s.FirstUnansweredRequest = &now
		}
		s.CheckinRequestCount++
		count = s.CheckinRequestCount
	})
	if err != nil {
		return err
	}
	m.logger.Info("recorded check-in request", "at", now, "count", count)
	return nil
}

// RecordEscalationFired records that the broadcast reached someone.
func (m *Manager) RecordEscalationFired() error {
	now := m.Now()
	if err := m.mutate(func(s *State) { s.LastEscalationFired = &now }); err != nil {
		return err
	}
	m.logger.Info("recorded last signal fired", "at", now)
	return nil
}

// RecordRecipientNotified marks a recipient as having received the broadcast.
func (m *Manager) RecordRecipientNotified(id string) error {
	now := m.Now()
	if err := m.mutate(func(s *State) { s.RecipientNotifications[id] = now }); err != nil {
		return err
	}
	m.logger.Info("recorded recipient notified", "recipient", id, "at", now)
	return nil
}

// IsRecipientNotified reports whether id already received the broadcast.
func (m *Manager) IsRecipientNotified(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.IsRecipientNotified(id)
}

// ClearRecipientTracking resets recipient notifications and the last fired
// time together, so a future escalation can fire again.
func (m *Manager) ClearRecipientTracking() error {
	if err := m.mutate(func(s *State) {
		s.RecipientNotifications = make(map[string]time.Time)
		s.LastEscalationFired = nil
	}); err != nil {
		return err
	}
	m.logger.Info("cleared last signal recipient tracking")
	return nil
}

// Reload re-reads the state file if another process replaced it. It
// reports whether the in-memory record changed.
func (m *Manager) Reload() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reloadLocked()
}

func (m *Manager) reloadLocked() (bool, error) {
	st, raw, exists, err := m.store.Load()
	if err != nil {
		return false, err
	}
	if !exists || sameContent(raw, m.lastWritten) {
		return false, nil
	}

	m.state = st
	m.lastWritten = raw
	m.logger.Info("reloaded state changed by another process")
	return true, nil
}
