package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	require.NoError(t, q.Publish(ctx, Message{Type: "campaign", Body: []byte("camp-1")}))

	messages, err := q.Consume(ctx)
	require.NoError(t, err)

	select {
	case msg := <-messages:
		assert.Equal(t, "campaign", msg.Type)
		assert.Equal(t, "camp-1", string(msg.Body))
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestInMemoryConsumeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewInMemory(1)

	messages, err := q.Consume(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, open := <-messages:
		assert.False(t, open, "channel must close after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel did not close")
	}
}

func TestInMemoryPublishHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := NewInMemory(0) // unbuffered, nothing consuming
	err := q.Publish(ctx, Message{Type: "campaign"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSerializeRoundTrip(t *testing.T) {
	msg := Message{Type: "campaign", Body: []byte("camp-1|extra")}
	got, err := deserialize(serialize(msg))

	require.NoError(t, err)
	assert.Equal(t, msg.Type, got.Type)
	assert.Equal(t, msg.Body, got.Body, "body may contain the separator")
}

func TestDeserializeWithoutSeparator(t *testing.T) {
	got, err := deserialize("raw payload")
	require.NoError(t, err)
	assert.Empty(t, got.Type)
	assert.Equal(t, "raw payload", string(got.Body))
}
