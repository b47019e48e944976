package activity

import (
	"context"
	"fmt"
	"sync"
)

// MemoryFeed keeps activity in process. It is used when Redis is not configured.
type MemoryFeed struct {
	mu     sync.Mutex
	seq    uint64
	maxLen int
	events map[string][]Event
}

var _ Feed = (*MemoryFeed)(nil)

// NewMemoryFeed creates a feed keeping at most maxLen events per tour.
func NewMemoryFeed(maxLen int) *MemoryFeed {
	if maxLen <= 0 {
		maxLen = DefaultMaxStreamLen
	}
	return &MemoryFeed{maxLen: maxLen, events: make(map[string][]Event)}
}

// Publish appends an event, evicting the oldest one past maxLen.
func (f *MemoryFeed) Publish(_ context.Context, event Event) (string, error) {
	if err := event.Validate(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	event.ID = fmt.Sprintf("%d-0", f.seq)

	list := append(f.events[event.TourID], event)
	if len(list) > f.maxLen {
		list = list[len(list)-f.maxLen:]
	}
	f.events[event.TourID] = list
	return event.ID, nil
}

// List returns up to limit events for a tour, newest first.
func (f *MemoryFeed) List(_ context.Context, tourID string, limit int) ([]Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	list := f.events[tourID]
	limit = clampLimit(limit)

	out := make([]Event, 0, min(limit, len(list)))
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

// Delete drops a tour's events.
func (f *MemoryFeed) Delete(_ context.Context, tourID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, tourID)
	return nil
}
