package notifier

import (
	"context"
	"sync"

	"github.com/inspectrack/inspectrack/internal/common/cnst"
	"github.com/inspectrack/inspectrack/internal/common/config"
	"go.uber.org/zap"
)

// MemoryNotifier is an in-process notifier for single-instance
// deployments and tests.
type MemoryNotifier struct {
	logger *zap.Logger
	role   config.NotifierRole

	mu   sync.RWMutex
	subs map[string][]chan *Event
}

// NewMemoryNotifier creates a new in-process notifier.
func NewMemoryNotifier(logger *zap.Logger, role config.NotifierRole) *MemoryNotifier {
	return &MemoryNotifier{
		logger: logger.Named("notifier.memory"),
		role:   role,
		subs:   make(map[string][]chan *Event),
	}
}

// Publish implements Notifier.Publish
func (m *MemoryNotifier) Publish(_ context.Context, channel string, evt *Event) error {
	if !m.CanSend() {
		return cnst.ErrNotSender
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.subs[channel] {
		select {
		case ch <- evt:
		default:
			// Slow subscriber; drop rather than block the publisher.
			m.logger.Warn("dropping event for slow subscriber",
				zap.String("channel", channel),
				zap.String("type", evt.Type))
		}
	}
	return nil
}

// Subscribe implements Notifier.Subscribe
func (m *MemoryNotifier) Subscribe(ctx context.Context, channel string) (<-chan *Event, error) {
	if !m.CanReceive() {
		return nil, cnst.ErrNotReceiver
	}

	ch := make(chan *Event, 16)
	m.mu.Lock()
	m.subs[channel] = append(m.subs[channel], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		subs := m.subs[channel]
		for i, sub := range subs {
			if sub == ch {
				m.subs[channel] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		m.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// CanReceive returns true if the notifier can receive events
func (m *MemoryNotifier) CanReceive() bool {
	return m.role == config.RoleReceiver || m.role == config.RoleBoth
}

// CanSend returns true if the notifier can send events
func (m *MemoryNotifier) CanSend() bool {
	return m.role == config.RoleSender || m.role == config.RoleBoth
}

// Close implements Notifier.Close
func (m *MemoryNotifier) Close() error {
	return nil
}
