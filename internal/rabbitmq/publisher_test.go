package rabbitmq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-service/internal/observability"
	"rental-service/internal/telemetry"
)

func TestNewPublisherWithoutURLIsNoop(t *testing.T) {
	p := NewPublisher("", "rental.events")

	assert.Equal(t, "noop", PublisherMode(p))
	assert.Equal(t, "empty amqp url", PublisherNoopReason(p))
	require.NoError(t, p.Publish(context.Background(), "audit.rental", telemetry.AuditEnvelope{EventType: "audit_log"}))
	require.NoError(t, p.Publish(context.Background(), "notification.created", observability.EventEnvelope{EventType: "notification"}))
	require.NoError(t, p.Close())
}

func TestHeadersForEnvelope(t *testing.T) {
	table := headersFor(observability.EventEnvelope{Headers: map[string]string{"request_id": "r1"}})
	assert.Equal(t, "r1", table["request_id"])
	assert.Nil(t, headersFor("plain"))
}
