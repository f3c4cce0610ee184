package dashboard

import "sync"

// DefaultBufferSize is the number of recent events kept when no size is set.
const DefaultBufferSize = 1000

// RingBuffer is a thread-safe circular buffer of DashboardEvents.
type RingBuffer struct {
	mu    sync.RWMutex
	items []*DashboardEvent
	head  int
	count int
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &RingBuffer{items: make([]*DashboardEvent, capacity)}
}

// Add inserts an event, overwriting the oldest once full.
func (rb *RingBuffer) Add(event *DashboardEvent) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	size := len(rb.items)
	if rb.count == size {
		rb.items[rb.head] = event
		rb.head = (rb.head + 1) % size
		return
	}
	rb.items[(rb.head+rb.count)%size] = event
	rb.count++
}

// All returns all events in chronological order (oldest first).
func (rb *RingBuffer) All() []*DashboardEvent {
	return rb.Recent(0)
}

// Recent returns the newest n events, oldest first. n <= 0 means all.
func (rb *RingBuffer) Recent(n int) []*DashboardEvent {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if n <= 0 || n > rb.count {
		n = rb.count
	}
	skip := rb.count - n
	result := make([]*DashboardEvent, n)
	for i := range n {
		result[i] = rb.items[(rb.head+skip+i)%len(rb.items)]
	}
	return result
}

// Len returns the number of events in the buffer.
func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}
