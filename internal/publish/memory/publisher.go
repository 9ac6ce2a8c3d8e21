// Package memory contains an in-memory publisher for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/campuseats/spider/internal/spider"
)

// Publisher records published events for inspection.
type Publisher struct {
	mu     sync.RWMutex
	events []spider.NormalizedEvent
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records the event and returns a pseudo ID.
func (p *Publisher) Publish(_ context.Context, event spider.NormalizedEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return fmt.Sprintf("memory-%d", len(p.events)), nil
}

// Events returns the recorded publishes.
func (p *Publisher) Events() []spider.NormalizedEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]spider.NormalizedEvent, len(p.events))
	copy(out, p.events)
	return out
}
