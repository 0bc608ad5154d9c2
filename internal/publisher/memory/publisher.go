// Package memory records published article events for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/news-harvester/internal/crawler"
)

// Publisher stores published events for inspection.
type Publisher struct {
	mu     sync.RWMutex
	events []crawler.ArticleEvent
	err    error
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// FailWith makes every later Publish return err.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Publish records the event and returns a pseudo ID.
func (p *Publisher) Publish(_ context.Context, event crawler.ArticleEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return fmt.Sprintf("memory-%d", len(p.events)), nil
}

// Events returns the recorded events.
func (p *Publisher) Events() []crawler.ArticleEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]crawler.ArticleEvent, len(p.events))
	copy(out, p.events)
	return out
}
