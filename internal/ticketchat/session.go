// Package ticketchat maintains a live view of one support ticket's message
// thread. Freshness comes from fixed-interval re-fetching: every poll
// replaces the local snapshot wholesale with the server's response, and the
// only local mutation outside a full replacement is the optimistic append of
// a just-sent message.
package ticketchat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/craftedmc/portal/internal/api"
	"github.com/craftedmc/portal/internal/poller"
	"github.com/craftedmc/portal/internal/signal"
)

var (
	// ErrTicketClosed indicates a send was attempted on a Cerrado ticket.
	ErrTicketClosed = errors.New("ticket is closed")
	// ErrClientNotConfigured indicates the session is missing its API client.
	ErrClientNotConfigured = errors.New("ticketchat api client is not configured")
)

// Client is the API surface the chat session depends on.
type Client interface {
	Ticket(ctx context.Context, ticketID int64) (api.Ticket, error)
	SendTicketResponse(ctx context.Context, ticketID int64, content string) (api.Message, error)
}

// Session is one open ticket chat. Opening the chat is itself a
// side-effecting read: the server clears the viewer-role unread flag on the
// first fetch.
type Session struct {
	client   Client
	bus      *signal.Bus
	ticketID int64
	poll     *poller.Poller

	mu          sync.Mutex
	ticket      api.Ticket
	messages    []api.Message
	haveTicket  bool
	issuedSeq   uint64
	appliedSeq  uint64
}

// NewSession builds a chat session for one ticket. bus may be nil. The
// interval defaults inside the poller when non-positive.
func NewSession(client Client, bus *signal.Bus, ticketID int64, interval time.Duration) *Session {
	s := &Session{
		client:   client,
		bus:      bus,
		ticketID: ticketID,
	}
	s.poll = poller.New(fmt.Sprintf("ticket %d chat", ticketID), interval, s.refresh)
	return s
}

// Run polls the ticket until ctx is cancelled. The first fetch happens
// immediately so opening the chat clears the unread flag without waiting a
// tick. Polling continues while the ticket is Cerrado; only sending is
// disabled.
func (s *Session) Run(ctx context.Context) {
	if s == nil || s.client == nil {
		return
	}
	s.poll.Run(ctx)
}

// Ticket returns the latest snapshot metadata and whether one has been
// fetched yet.
func (s *Session) Ticket() (api.Ticket, bool) {
	if s == nil {
		return api.Ticket{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticket, s.haveTicket
}

// Messages returns a copy of the current thread in server order.
func (s *Session) Messages() []api.Message {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// CanSend reports whether the send affordance is enabled. Sending is
// disabled once the ticket is Cerrado.
func (s *Session) CanSend() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.haveTicket || s.ticket.Status != api.TicketCerrado
}

// Send posts one message and appends the server's echo to the local thread
// ahead of the next poll. Failures leave the thread untouched so the caller
// can restore the input; the error carries the API's validation detail.
func (s *Session) Send(ctx context.Context, content string) (api.Message, error) {
	if s == nil || s.client == nil {
		return api.Message{}, ErrClientNotConfigured
	}
	if !s.CanSend() {
		return api.Message{}, ErrTicketClosed
	}

	message, err := s.client.SendTicketResponse(ctx, s.ticketID, content)
	if err != nil {
		return api.Message{}, fmt.Errorf("send message: %w", err)
	}

	s.mu.Lock()
	if !containsMessage(s.messages, message.ID) {
		s.messages = append(s.messages, message)
	}
	s.mu.Unlock()

	// Re-fetch promptly: the follow-up read clears the unread flag server
	// side and reconciles the optimistic append with the authoritative
	// thread.
	s.poll.Trigger()
	s.bus.Publish(signal.TicketsUpdated)
	return message, nil
}

// refresh fetches the ticket snapshot and applies it last-fetch-wins. A
// response that lost the race to a newer request is dropped rather than
// allowed to overwrite fresher state.
func (s *Session) refresh(ctx context.Context) error {
	s.mu.Lock()
	s.issuedSeq++
	seq := s.issuedSeq
	s.mu.Unlock()

	snapshot, err := s.client.Ticket(ctx, s.ticketID)
	if err != nil {
		return fmt.Errorf("fetch ticket %d: %w", s.ticketID, err)
	}

	s.mu.Lock()
	if seq < s.appliedSeq {
		s.mu.Unlock()
		return nil
	}
	s.appliedSeq = seq
	s.ticket = snapshot
	s.messages = dedupeByID(snapshot.Responses)
	s.haveTicket = true
	s.mu.Unlock()

	if snapshot.UnreadUser || snapshot.UnreadAdmin {
		s.bus.Publish(signal.TicketsUpdated)
	}
	return nil
}

func containsMessage(messages []api.Message, id int64) bool {
	for _, message := range messages {
		if message.ID == id {
			return true
		}
	}
	return false
}

// dedupeByID drops repeated message ids while preserving server order. The
// server should never repeat ids; this guards the render path anyway.
func dedupeByID(messages []api.Message) []api.Message {
	seen := make(map[int64]struct{}, len(messages))
	out := make([]api.Message, 0, len(messages))
	for _, message := range messages {
		if _, dup := seen[message.ID]; dup {
			continue
		}
		seen[message.ID] = struct{}{}
		out = append(out, message)
	}
	return out
}
