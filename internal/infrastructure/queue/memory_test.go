package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueFIFO(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	require.NoError(t, q.Publish(ctx, NewMessage(MessageTypeAnalysisJob, "a-1", "m-1")))
	require.NoError(t, q.Publish(ctx, NewMessage(MessageTypeTranscriptReady, "a-1", "m-2")))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	first, err := q.Pop(ctx, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "m-1", first.MeetingID)

	second, err := q.Pop(ctx, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeTranscriptReady, second.Type)

	_, err = q.Pop(ctx, 5*time.Millisecond)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestMemoryQueuePopWakesOnPublish(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	done := make(chan *Message, 1)
	go func() {
		msg, err := q.Pop(ctx, 2*time.Second)
		if err == nil {
			done <- msg
		}
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, q.Publish(ctx, NewMessage(MessageTypeAnalysisJob, "a-1", "m-9")))

	select {
	case msg := <-done:
		require.NotNil(t, msg)
		assert.Equal(t, "m-9", msg.MeetingID)
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after Publish")
	}
}

func TestMemoryQueuePublishHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := NewMemoryQueue()
	assert.ErrorIs(t, q.Publish(ctx, NewMessage(MessageTypeAnalysisJob, "a-1", "m-1")), context.Canceled)
	assert.Empty(t, q.Messages())
}

func TestMemoryQueuePublishFailsAtCapacity(t *testing.T) {
	ctx := context.Background()
	q := NewBoundedMemoryQueue(2)

	require.NoError(t, q.Publish(ctx, NewMessage(MessageTypeAnalysisJob, "a-1", "m-1")))
	require.NoError(t, q.Publish(ctx, NewMessage(MessageTypeAnalysisJob, "a-1", "m-2")))
	assert.ErrorIs(t, q.Publish(ctx, NewMessage(MessageTypeAnalysisJob, "a-1", "m-3")), ErrFull)
	assert.Len(t, q.Messages(), 2)

	// Draining frees room again
	_, err := q.Pop(ctx, time.Millisecond)
	require.NoError(t, err)
	assert.NoError(t, q.Publish(ctx, NewMessage(MessageTypeAnalysisJob, "a-1", "m-3")))
}
