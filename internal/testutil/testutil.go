package testutil

import (
	"context"
	"sync"

	"commoditybot/internal/fetcher"
	"commoditybot/internal/render"
)

// MockFetcher is a mock implementation of the Fetcher interface for testing
type MockFetcher struct {
	FetchFunc func(ctx context.Context) ([]fetcher.Quote, error)
	KeyFunc   func() string
}

// Fetch implements the Fetcher interface
func (m *MockFetcher) Fetch(ctx context.Context) ([]fetcher.Quote, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx)
	}
	return nil, nil
}

// Key implements the Fetcher interface
func (m *MockFetcher) Key() string {
	if m.KeyFunc != nil {
		return m.KeyFunc()
	}
	return "mock:key"
}

// NewMockFetcher creates a simple mock fetcher with predefined values
func NewMockFetcher(key string, quotes []fetcher.Quote, err error) fetcher.Fetcher {
	return &MockFetcher{
		FetchFunc: func(ctx context.Context) ([]fetcher.Quote, error) {
			return quotes, err
		},
		KeyFunc: func() string {
			return key
		},
	}
}

// MockSender records every message it is asked to deliver.
type MockSender struct {
	// SendFunc, when set, decides the outcome of each send.
	SendFunc func(ctx context.Context, to string, msg render.Message) error

	mu   sync.Mutex
	sent map[string][]render.Message
}

// Send implements broadcast.Sender
func (m *MockSender) Send(ctx context.Context, to string, msg render.Message) error {
	var err error
	if m.SendFunc != nil {
		err = m.SendFunc(ctx, to, msg)
	}
	if err == nil {
		m.mu.Lock()
		if m.sent == nil {
			m.sent = make(map[string][]render.Message)
		}
		m.sent[to] = append(m.sent[to], msg)
		m.mu.Unlock()
	}
	return err
}

// Sent returns the messages delivered to a recipient.
func (m *MockSender) Sent(to string) []render.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]render.Message(nil), m.sent[to]...)
}

// Recipients returns how many distinct recipients received at least one message.
func (m *MockSender) Recipients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
