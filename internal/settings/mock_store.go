package settings

import (
	"context"
	"sync"

	"github.com/sellerpulse/notify-core/internal/domain"
)

// MockStore is a hand-written, in-memory Store used in unit tests.
type MockStore struct {
	mu       sync.RWMutex
	settings map[int64]domain.NotificationSettings

	// Optional error overrides — set in tests to simulate failure paths.
	GetErr    error
	UpdateErr error

	GetCalls int
}

func NewMockStore() *MockStore {
	return &MockStore{settings: make(map[int64]domain.NotificationSettings)}
}

func (m *MockStore) GetUserSettings(_ context.Context, userID int64) (domain.NotificationSettings, error) {
	m.mu.Lock()
	m.GetCalls++
	m.mu.Unlock()

	if m.GetErr != nil {
		return domain.NotificationSettings{}, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settings[userID]
	if !ok {
		return domain.NotificationSettings{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *MockStore) UpdateUserSettings(_ context.Context, s domain.NotificationSettings) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[s.UserID] = s
	return nil
}

// compile-time check that MockStore implements Store
var _ Store = (*MockStore)(nil)
