// Package counters maintains the role-dependent unread badges: the admin
// pending-count dot and the regular user's unread support-chat count. Both
// are scalar snapshots replaced wholesale on every refresh.
package counters

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/craftedmc/portal/internal/api"
	"github.com/craftedmc/portal/internal/storage"
)

// ErrClientNotConfigured indicates the service is missing its API client.
var ErrClientNotConfigured = errors.New("counters api client is not configured")

// Client is the API surface the counters depend on.
type Client interface {
	PendingCounts(ctx context.Context) (api.PendingCounts, error)
	UnreadChats(ctx context.Context) (api.UnreadChats, error)
}

// ReviewLister is the admin review surface behind the aggregate badge.
type ReviewLister interface {
	Applications(ctx context.Context) ([]api.Application, error)
	StreamerRequests(ctx context.Context) ([]api.StreamerRequest, error)
	Tickets(ctx context.Context) ([]api.Ticket, error)
}

// Breakdown itemizes the admin pending aggregate into its reviewable parts.
type Breakdown struct {
	PendingApplications int
	PendingStreamers    int
	OpenTickets         int
}

// PendingBreakdown fetches the admin review lists and counts the items still
// awaiting action, explaining an aggregate badge increase in actionable
// terms.
func PendingBreakdown(ctx context.Context, lister ReviewLister) (Breakdown, error) {
	if lister == nil {
		return Breakdown{}, ErrClientNotConfigured
	}
	apps, err := lister.Applications(ctx)
	if err != nil {
		return Breakdown{}, fmt.Errorf("fetch applications: %w", err)
	}
	requests, err := lister.StreamerRequests(ctx)
	if err != nil {
		return Breakdown{}, fmt.Errorf("fetch streamer requests: %w", err)
	}
	tickets, err := lister.Tickets(ctx)
	if err != nil {
		return Breakdown{}, fmt.Errorf("fetch tickets: %w", err)
	}

	var breakdown Breakdown
	for _, app := range apps {
		if app.Status == api.StatusPendiente {
			breakdown.PendingApplications++
		}
	}
	for _, request := range requests {
		if request.Status == api.StatusPendiente {
			breakdown.PendingStreamers++
		}
	}
	for _, ticket := range tickets {
		if ticket.Status != api.TicketCerrado {
			breakdown.OpenTickets++
		}
	}
	return breakdown, nil
}

// SessionProvider exposes the current session state; the counters only poll
// while a validated user exists and pick their path by role.
type SessionProvider interface {
	CurrentUser() (api.User, bool)
}

// Service refreshes and exposes both counter paths.
type Service struct {
	client  Client
	session SessionProvider
	kv      storage.KV

	mu           sync.Mutex
	pendingTotal int
	badge        bool
	unreadCount  int
}

// NewService constructs the counter service. kv persists the admin badge
// watermark so a restart does not spuriously re-show an acknowledged badge.
func NewService(client Client, session SessionProvider, kv storage.KV) *Service {
	return &Service{client: client, session: session, kv: kv}
}

// Refresh re-fetches the counter for the current role. Anonymous sessions
// reset both counters to their inactive state without calling the API.
func (s *Service) Refresh(ctx context.Context) error {
	if s == nil || s.client == nil {
		return ErrClientNotConfigured
	}

	user, ok := s.currentUser()
	if !ok {
		s.reset()
		return nil
	}
	if user.IsAdmin() {
		return s.refreshPending(ctx)
	}
	return s.refreshUnread(ctx)
}

// PendingTotal returns the last fetched admin aggregate.
func (s *Service) PendingTotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingTotal
}

// BadgeVisible reports whether the admin badge dot should show. The dot
// shows only when the aggregate exceeds the last acknowledged value, not
// merely when it is nonzero.
func (s *Service) BadgeVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.badge
}

// UnreadCount returns the last fetched unread support-chat count.
func (s *Service) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadCount
}

// AcknowledgeSeen records that the admin has visited the requests surface:
// the watermark moves to the current aggregate and the badge clears until
// the count increases again.
func (s *Service) AcknowledgeSeen(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	total := s.pendingTotal
	s.badge = false
	s.mu.Unlock()

	if s.kv == nil {
		return nil
	}
	if err := s.kv.Set(ctx, storage.KeyAdminLastSeenPending, strconv.Itoa(total)); err != nil {
		return fmt.Errorf("persist badge watermark: %w", err)
	}
	return nil
}

func (s *Service) refreshPending(ctx context.Context) error {
	counts, err := s.client.PendingCounts(ctx)
	if err != nil {
		return fmt.Errorf("fetch pending counts: %w", err)
	}
	lastSeen := s.lastSeen(ctx)

	s.mu.Lock()
	s.pendingTotal = counts.Total
	s.badge = counts.Total > lastSeen
	s.mu.Unlock()
	return nil
}

func (s *Service) refreshUnread(ctx context.Context) error {
	unread, err := s.client.UnreadChats(ctx)
	if err != nil {
		return fmt.Errorf("fetch unread chats: %w", err)
	}
	s.mu.Lock()
	s.unreadCount = unread.UnreadCount
	s.mu.Unlock()
	return nil
}

func (s *Service) lastSeen(ctx context.Context) int {
	if s.kv == nil {
		return 0
	}
	raw, ok, err := s.kv.Get(ctx, storage.KeyAdminLastSeenPending)
	if err != nil || !ok {
		return 0
	}
	lastSeen, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return lastSeen
}

func (s *Service) currentUser() (api.User, bool) {
	if s.session == nil {
		return api.User{}, false
	}
	return s.session.CurrentUser()
}

func (s *Service) reset() {
	s.mu.Lock()
	s.pendingTotal = 0
	s.badge = false
	s.unreadCount = 0
	s.mu.Unlock()
}
