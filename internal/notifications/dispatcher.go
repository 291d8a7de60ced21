package notifications

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"rental-service/internal/models"
	"rental-service/internal/observability"
	"rental-service/internal/repositories"
)

// Pusher delivers a live event to a user's connections.
type Pusher interface {
	PushToUsers(userIDs []int64, event any)
}

// Publisher hands events to the message broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Event is the live and broker payload for a stored notification.
type Event struct {
	Type         string              `json:"type"`
	Notification models.Notification `json:"notification"`
}

// Dispatcher stores, pushes and publishes notifications off the request
// path. A failure at any stage is logged and counted; callers never see it.
type Dispatcher struct {
	repo       repositories.NotificationRepository
	pusher     Pusher
	publisher  Publisher
	routingKey string
	timeout    time.Duration
	wg         sync.WaitGroup
}

func NewDispatcher(repo repositories.NotificationRepository, pusher Pusher, publisher Publisher, routingKey string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		repo:       repo,
		pusher:     pusher,
		publisher:  publisher,
		routingKey: routingKey,
		timeout:    timeout,
	}
}

// Notify delivers n in the background. The caller's cancellation does not
// stop delivery; the configured timeout does.
func (d *Dispatcher) Notify(ctx context.Context, n models.Notification) {
	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()
		d.deliver(ctx, n)
	}()
}

// Wait blocks until every pending delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, n models.Notification) {
	stored, err := d.repo.CreateNotification(ctx, n)
	if err != nil {
		observability.IncNotifyFailure("store")
		log.Printf("notification store failed user_id=%d title=%q: %v", n.UserID, n.Title, err)
		return
	}

	event := Event{Type: "notification", Notification: stored}
	if d.pusher != nil {
		d.pusher.PushToUsers([]int64{stored.UserID}, event)
	}

	if d.publisher == nil {
		return
	}
	var traceID string
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}
	envelope := observability.EventEnvelope{
		EventType: "notification",
		EventName: "notification_created",
		Headers:   observability.BuildHeaders(observability.RequestIDFromContext(ctx), traceID),
		Payload:   stored,
	}
	if err := d.publisher.Publish(ctx, d.routingKey, envelope); err != nil {
		observability.IncNotifyFailure("publish")
		log.Printf("notification publish failed id=%d: %v", stored.ID, err)
	}
}
