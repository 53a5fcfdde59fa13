package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultMemoryCapacity bounds a MemoryQueue built without an explicit size
const DefaultMemoryCapacity = 1024

// ErrFull is returned by Publish when a bounded queue holds capacity messages
var ErrFull = errors.New("queue is full")

// MemoryQueue is an in-process Queue used when Redis is not configured
// and in tests. It holds at most capacity messages.
type MemoryQueue struct {
	mu       sync.Mutex
	items    []Message
	capacity int
	notify   chan struct{}
}

// NewMemoryQueue creates an in-memory queue with DefaultMemoryCapacity
func NewMemoryQueue() *MemoryQueue {
	return NewBoundedMemoryQueue(DefaultMemoryCapacity)
}

// NewBoundedMemoryQueue creates an in-memory queue holding at most capacity
// messages. A non-positive capacity falls back to DefaultMemoryCapacity.
func NewBoundedMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryQueue{capacity: capacity, notify: make(chan struct{}, 1)}
}

// Publish appends a message, or returns ErrFull when the queue is at capacity
func (q *MemoryQueue) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	if len(q.items) >= q.capacity {
		q.mu.Unlock()
		return ErrFull
	}
	q.items = append(q.items, msg)
	q.mu.Unlock()

	// Wake one waiting Pop
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Pop removes the oldest message, waiting up to wait for one to arrive
func (q *MemoryQueue) Pop(ctx context.Context, wait time.Duration) (*Message, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		if msg, ok := q.take(); ok {
			return &msg, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			if msg, ok := q.take(); ok {
				return &msg, nil
			}
			return nil, ErrEmpty
		case <-q.notify:
		}
	}
}

// Len returns the number of waiting messages
func (q *MemoryQueue) Len(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

// Messages returns a copy of the waiting messages, oldest first
func (q *MemoryQueue) Messages() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Message(nil), q.items...)
}

func (q *MemoryQueue) take() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Message{}, false
	}
	msg := q.items[0]
	q.items = q.items[1:]
	return msg, true
}
