package feedback

import (
	"context"
	"sync"
)

// EventStore persists feedback events.
type EventStore interface {
	// Append stores one event. Events are never updated or deleted.
	Append(ctx context.Context, event Event) error
	// RecentByUser returns the newest events for a user, newest first,
	// capped at limit.
	RecentByUser(ctx context.Context, userID string, limit int) ([]Event, error)
	// Users returns the distinct user ids with recorded events.
	Users(ctx context.Context) ([]string, error)
}

// InMemoryEventStore is an in-memory implementation of EventStore for
// testing and single-process deployments.
type InMemoryEventStore struct {
	mu     sync.RWMutex
	events map[string][]Event // userID -> events in append order
}

// NewInMemoryEventStore creates a new in-memory event store.
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		events: make(map[string][]Event),
	}
}

// Append stores one event.
func (s *InMemoryEventStore) Append(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.UserID] = append(s.events[event.UserID], event)
	return nil
}

// RecentByUser returns the newest events for a user, newest first.
func (s *InMemoryEventStore) RecentByUser(ctx context.Context, userID string, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.events[userID]
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}

	// Return a copy to avoid external modification
	result := make([]Event, 0, limit)
	for i := len(all) - 1; i >= len(all)-limit; i-- {
		result = append(result, all[i])
	}
	return result, nil
}

// Users returns the distinct user ids with recorded events.
func (s *InMemoryEventStore) Users(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]string, 0, len(s.events))
	for userID := range s.events {
		users = append(users, userID)
	}
	return users, nil
}

// CountByUser returns the number of stored events for a user (for testing).
func (s *InMemoryEventStore) CountByUser(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events[userID])
}
