package usecase

import (
	"github.com/gammazero/deque"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/domain"
)

// summaryBuffer holds the summaries a slow client has not taken yet. When it
// is full the oldest one gives way to the newest. It is owned by the session's
// engine loop and is not safe for concurrent use.
type summaryBuffer struct {
	queue    *deque.Deque[*domain.Summary]
	capacity int
}

func newSummaryBuffer(capacity int) *summaryBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &summaryBuffer{
		queue:    deque.New[*domain.Summary](capacity),
		capacity: capacity,
	}
}

// Push reports whether an older summary was dropped to make room.
func (b *summaryBuffer) Push(s *domain.Summary) bool {
	dropped := false
	if b.queue.Len() >= b.capacity {
		b.queue.PopFront()
		dropped = true
	}
	b.queue.PushBack(s)
	return dropped
}

func (b *summaryBuffer) Len() int {
	return b.queue.Len()
}

// Front returns the oldest summary, nil when the buffer is empty.
func (b *summaryBuffer) Front() *domain.Summary {
	if b.queue.Len() == 0 {
		return nil
	}
	return b.queue.Front()
}

func (b *summaryBuffer) PopFront() *domain.Summary {
	return b.queue.PopFront()
}
