package store

import (
	"context"
	"sync"

	"turnstile/internal/event/models"
	"turnstile/pkg/domain"
	"turnstile/pkg/platform/sentinel"
)

// InMemoryCatalog is the event catalog double used in unit tests and
// single-process development.
type InMemoryCatalog struct {
	mu     sync.RWMutex
	events map[domain.EventID]*models.Event
}

func NewInMemoryCatalog() *InMemoryCatalog {
	return &InMemoryCatalog{events: make(map[domain.EventID]*models.Event)}
}

// Put seeds an event. Not part of the catalog contract; the core only reads.
func (c *InMemoryCatalog) Put(ev models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[ev.ID] = &ev
}

func (c *InMemoryCatalog) FindByID(_ context.Context, id domain.EventID) (*models.Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ev, ok := c.events[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *ev
	return &copied, nil
}
