package audit

import (
	"context"
	"sync"

	id "proovd/pkg/domain"
)

// MemorySink keeps events in memory. Used in tests and when no Kafka brokers
// are configured.
type MemorySink struct {
	mu     sync.RWMutex
	events map[id.WebsiteID][]Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{events: make(map[id.WebsiteID][]Event)}
}

func (s *MemorySink) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.WebsiteID] = append(s.events[event.WebsiteID], event)
	return nil
}

// ListByWebsite returns a copy of the events recorded for one website.
func (s *MemorySink) ListByWebsite(_ context.Context, websiteID id.WebsiteID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[websiteID]...), nil
}

// Clear removes all recorded events. Use between tests.
func (s *MemorySink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.WebsiteID][]Event)
}
