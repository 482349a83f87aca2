package broker

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock

	mu        sync.Mutex
	published []Published
}

func (m *MockPublisher) Publish(ctx context.Context, exchange, routingKey string, msg any) error {
	m.mu.Lock()
	m.published = append(m.published, Published{Exchange: exchange, RoutingKey: routingKey, Msg: msg})
	m.mu.Unlock()

	args := m.Called(ctx, exchange, routingKey, msg)
	return args.Error(0)
}

// Published returns the arguments of every Publish call in call order. It is
// safe to call while other goroutines publish.
func (m *MockPublisher) Published() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Published(nil), m.published...)
}

type Published struct {
	Exchange   string
	RoutingKey string
	Msg        any
}
