package gotrue

import (
	"sync"

	"github.com/hostelhub/go-hostel"
)

// emitter fans session-change notifications out to registered handlers.
// Handlers run synchronously in registration order; subscribers that need to
// do work in response are expected to enqueue it rather than block the
// caller.
type emitter struct {
	mu       sync.Mutex
	next     uint64
	handlers map[uint64]hostel.SessionHandler
}

func newEmitter() *emitter {
	return &emitter{handlers: map[uint64]hostel.SessionHandler{}}
}

func (e *emitter) Subscribe(handler hostel.SessionHandler) hostel.Unsubscribe {
	e.mu.Lock()
	id := e.next
	e.next++
	e.handlers[id] = handler
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.handlers, id)
		e.mu.Unlock()
	}
}

func (e *emitter) Emit(kind hostel.SessionEventKind, session *hostel.Session) {
	e.mu.Lock()
	handlers := make([]hostel.SessionHandler, 0, len(e.handlers))
	for _, h := range e.handlers {
		handlers = append(handlers, h)
	}
	e.mu.Unlock()

	for _, h := range handlers {
		h(kind, session)
	}
}
