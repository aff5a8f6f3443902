package services

import (
	"context"
	"sync"
)

// MockNotifier is a mock implementation of Notifier for testing
type MockNotifier struct {
	sent []Notification
	errs map[NotificationKind]error
	mu   sync.RWMutex
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		errs: make(map[NotificationKind]error),
	}
}

// SetAsMockForTesting sets this mock as the global notifier instance for testing
func (m *MockNotifier) SetAsMockForTesting() {
	SetNotifier(m)
}

// FailWith makes every notification of kind fail with err. A nil err clears it.
func (m *MockNotifier) FailWith(kind NotificationKind, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, kind)
		return
	}
	m.errs[kind] = err
}

// Send records n, or fails if a failure is configured for its kind
func (m *MockNotifier) Send(_ context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.errs[n.Kind]; ok {
		return err
	}
	m.sent = append(m.sent, n)
	return nil
}

// Sent returns the delivered notifications (for testing assertions)
func (m *MockNotifier) Sent() []Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Notification, len(m.sent))
	copy(out, m.sent)
	return out
}

// LastOfKind returns the most recent delivered notification of kind
func (m *MockNotifier) LastOfKind(kind NotificationKind) (Notification, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Kind == kind {
			return m.sent[i], true
		}
	}
	return Notification{}, false
}

// Clear removes all recorded notifications and failures
func (m *MockNotifier) Clear() {
	m.mu.Lock()
	m.sent = nil
	m.errs = make(map[NotificationKind]error)
	m.mu.Unlock()
}
