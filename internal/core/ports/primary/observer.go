package primary

import "gitlab.com/fcv-2025.net/jobinitiator/internal/domain"

// EventObserver receives cluster events in emission order. Implementations
// run on the controller loop and must not block.
type EventObserver interface {
	HandleEvent(event domain.Event)
}

// ObserverFunc adapts a function to EventObserver.
type ObserverFunc func(event domain.Event)

func (f ObserverFunc) HandleEvent(event domain.Event) { f(event) }
