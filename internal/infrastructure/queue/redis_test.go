package queue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisQueueRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping Redis integration test")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	key := "test:analysis:" + time.Now().Format("150405.000000")
	defer client.Del(ctx, key)

	q := NewRedisQueue(client, key)
	msg := NewMessage(MessageTypeAnalysisJob, "a-1", "m-1")
	msg.JobType = "summary"
	require.NoError(t, q.Publish(ctx, msg))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, "summary", got.JobType)

	_, err = q.Pop(ctx, 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrEmpty)
}
