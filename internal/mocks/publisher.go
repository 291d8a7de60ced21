package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"rental-service/internal/models"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// NotifierRecorder captures notifications synchronously.
type NotifierRecorder struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (r *NotifierRecorder) Notify(_ context.Context, n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *NotifierRecorder) Sent() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.sent...)
}

// PusherRecorder captures live pushes.
type PusherRecorder struct {
	mu     sync.Mutex
	Pushes []Push
}

type Push struct {
	UserIDs []int64
	Event   any
}

func (r *PusherRecorder) PushToUsers(userIDs []int64, event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Pushes = append(r.Pushes, Push{UserIDs: append([]int64(nil), userIDs...), Event: event})
}

func (r *PusherRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Pushes)
}
