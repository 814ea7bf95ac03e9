package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestInMemoryDeliversInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	require.NoError(t, q.Publish(ctx, Message{Kind: KindRegistrationCreated, EventID: "e1"}))
	require.NoError(t, q.Publish(ctx, Message{Kind: KindCheckedIn, RegistrationID: "r1"}))

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, KindRegistrationCreated, receive(t, ch).Kind)
	assert.Equal(t, "r1", receive(t, ch).RegistrationID)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestInMemoryPublishHonoursContext(t *testing.T) {
	q := NewInMemory(1)
	require.NoError(t, q.Publish(context.Background(), Message{Kind: KindFeedbackSubmitted}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Publish(ctx, Message{Kind: KindFeedbackSubmitted}), context.DeadlineExceeded)
}

func TestRedisQueueRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	q := NewRedisQueue(client, "")
	q.timeout = 100 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, q.Publish(ctx, Message{Kind: KindAttendanceUpdated, RegistrationID: "r9", At: at}))
	assert.True(t, mr.Exists(DefaultKey))

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	msg := receive(t, ch)
	assert.Equal(t, KindAttendanceUpdated, msg.Kind)
	assert.Equal(t, "r9", msg.RegistrationID)
	assert.True(t, at.Equal(msg.At))
}

func TestRedisQueueDropsMalformed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	q := NewRedisQueue(client, "test:q")
	q.timeout = 100 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := mr.Lpush("test:q", "not-json")
	require.NoError(t, err)
	require.NoError(t, q.Publish(ctx, Message{Kind: KindCheckedIn}))

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, KindCheckedIn, receive(t, ch).Kind)
}
