package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChannel struct {
	keys     []string
	messages []amqp.Publishing
	err      error
	closed   bool
}

func (c *recordingChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.keys = append(c.keys, key)
	c.messages = append(c.messages, msg)
	return nil
}

func (c *recordingChannel) Close() error {
	c.closed = true
	return nil
}

type broadcastEvent struct {
	Target     string `json:"target"`
	Title      string `json:"title"`
	Recipients int    `json:"recipients"`
}

func TestPublishSendsPersistentJSON(t *testing.T) {
	ch := &recordingChannel{}
	p := newPublisher(ch, "notifications.broadcast", nil)
	p.now = func() time.Time { return time.Date(2024, 9, 1, 8, 0, 0, 0, time.FixedZone("AST", 3*3600)) }

	err := p.Publish(context.Background(), "notification.broadcast", broadcastEvent{Target: "all", Title: "Exams", Recipients: 42})
	require.NoError(t, err)

	require.Len(t, ch.messages, 1)
	msg := ch.messages[0]
	assert.Equal(t, "notifications.broadcast", ch.keys[0])
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "notification.broadcast", msg.Type)
	assert.Equal(t, time.Date(2024, 9, 1, 5, 0, 0, 0, time.UTC), msg.Timestamp)

	var decoded broadcastEvent
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, broadcastEvent{Target: "all", Title: "Exams", Recipients: 42}, decoded)
}

func TestPublishRejectsUnencodableEvent(t *testing.T) {
	ch := &recordingChannel{}
	p := newPublisher(ch, "q", nil)

	err := p.Publish(context.Background(), "bad", map[string]interface{}{"f": func() {}})
	assert.Error(t, err)
	assert.Empty(t, ch.messages)
}

func TestPublishOpensBreakerAfterRepeatedFailures(t *testing.T) {
	ch := &recordingChannel{err: errors.New("channel closed")}
	p := newPublisher(ch, "q", nil)

	for i := 0; i < 3; i++ {
		assert.Error(t, p.Publish(context.Background(), "evt", broadcastEvent{}))
	}
	err := p.Publish(context.Background(), "evt", broadcastEvent{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestPublishHonoursExpiredContext(t *testing.T) {
	ch := &recordingChannel{}
	p := newPublisher(ch, "q", nil)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	assert.ErrorIs(t, p.Publish(ctx, "evt", broadcastEvent{}), context.DeadlineExceeded)
	assert.Empty(t, ch.messages)
}

func TestCloseWithoutConnection(t *testing.T) {
	ch := &recordingChannel{}
	require.NoError(t, newPublisher(ch, "q", nil).Close())
	assert.True(t, ch.closed)

	var nilPublisher *Publisher
	assert.NoError(t, nilPublisher.Close())
}
