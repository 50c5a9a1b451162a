// Package events carries change notifications from the core components to
// external consumers (journal, feeds, metrics).
package events

import (
	"sync"

	"github.com/polyphene/recs-contract/internal/domain"
)

// Publisher receives notifications emitted by successful operations.
// Components call Publish only after every precondition has passed and all
// mutations are applied, so a failed operation never reaches a publisher.
type Publisher interface {
	Publish(event domain.Event)
}

// Nop discards all notifications.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(domain.Event) {}

// Recorder accumulates notifications in order. Used by the runtime to
// journal per-operation events and by tests to assert on emissions.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

// Publish implements Publisher.
func (r *Recorder) Publish(event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Drain returns recorded events and resets the recorder.
func (r *Recorder) Drain() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}
