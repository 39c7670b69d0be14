// Package signal provides the in-process publish/subscribe bus that lets
// independent runtime surfaces invalidate and re-fetch their own state
// without a shared store. Signals carry no payload; subscribers always
// re-fetch.
package signal

import "sync"

// Kind names one cross-component signal.
type Kind string

const (
	// SessionChanged fires on login, logout, and credential refresh.
	SessionChanged Kind = "session-changed"
	// TicketsUpdated fires when ticket unread state may have changed.
	TicketsUpdated Kind = "tickets-updated"
	// ProfileUpdated fires after the user edits their own profile.
	ProfileUpdated Kind = "profile-updated"
)

// Handler reacts to one published signal. Handlers run synchronously on the
// publishing goroutine and should hand off any slow work.
type Handler func()

// Bus fans signals out to subscribers. The zero value is not usable; call
// NewBus.
type Bus struct {
	mu          sync.Mutex
	subscribers map[Kind]map[int]Handler
	nextID      int
}

// NewBus returns an empty signal bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[Kind]map[int]Handler),
	}
}

// Subscribe registers handler for kind and returns a disposer that removes
// the registration. Disposing twice is harmless.
func (b *Bus) Subscribe(kind Kind, handler Handler) func() {
	if b == nil || handler == nil {
		return func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	byID, ok := b.subscribers[kind]
	if !ok {
		byID = make(map[int]Handler)
		b.subscribers[kind] = byID
	}
	subID := b.nextID
	b.nextID++
	byID[subID] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers[kind], subID)
	}
}

// Publish synchronously notifies every current subscriber of kind. Ordering
// between subscribers is unspecified.
func (b *Bus) Publish(kind Kind) {
	if b == nil {
		return
	}
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.subscribers[kind]))
	for _, handler := range b.subscribers[kind] {
		handlers = append(handlers, handler)
	}
	b.mu.Unlock()

	for _, handler := range handlers {
		handler()
	}
}
