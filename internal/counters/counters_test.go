package counters

import (
	"context"
	"errors"
	"testing"

	"github.com/craftedmc/portal/internal/api"
	"github.com/craftedmc/portal/internal/storage/memory"
)

type fakeCountsClient struct {
	pending     api.PendingCounts
	unread      api.UnreadChats
	pendingErr  error
	callPending int
	callUnread  int
}

func (f *fakeCountsClient) PendingCounts(ctx context.Context) (api.PendingCounts, error) {
	f.callPending++
	if f.pendingErr != nil {
		return api.PendingCounts{}, f.pendingErr
	}
	return f.pending, nil
}

func (f *fakeCountsClient) UnreadChats(ctx context.Context) (api.UnreadChats, error) {
	f.callUnread++
	return f.unread, nil
}

type fakeSession struct {
	user api.User
	ok   bool
}

func (f *fakeSession) CurrentUser() (api.User, bool) {
	return f.user, f.ok
}

func adminSession() *fakeSession {
	return &fakeSession{user: api.User{ID: 1, Username: "staff", Role: api.RoleAdmin}, ok: true}
}

func userSession() *fakeSession {
	return &fakeSession{user: api.User{ID: 2, Username: "steve", Role: "User"}, ok: true}
}

func TestAnonymousSessionSkipsFetchAndResets(t *testing.T) {
	t.Parallel()

	client := &fakeCountsClient{pending: api.PendingCounts{Total: 9}}
	svc := NewService(client, &fakeSession{}, memory.NewStore())

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if client.callPending != 0 || client.callUnread != 0 {
		t.Fatal("expected no API calls while anonymous")
	}
	if svc.BadgeVisible() || svc.PendingTotal() != 0 || svc.UnreadCount() != 0 {
		t.Fatal("expected inactive state while anonymous")
	}
}

func TestAdminBadgeShowsOnlyOnIncrease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := &fakeCountsClient{pending: api.PendingCounts{Total: 2}}
	svc := NewService(client, adminSession(), memory.NewStore())

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !svc.BadgeVisible() {
		t.Fatal("expected badge on first nonzero fetch")
	}

	// Visiting the requests surface acknowledges the current value.
	if err := svc.AcknowledgeSeen(ctx); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if svc.BadgeVisible() {
		t.Fatal("expected badge cleared after acknowledge")
	}

	// Unchanged count must not re-trigger.
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh unchanged: %v", err)
	}
	if svc.BadgeVisible() {
		t.Fatal("badge must not re-show for unchanged count")
	}

	// A decrease must not re-trigger either.
	client.pending = api.PendingCounts{Total: 1}
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh decreased: %v", err)
	}
	if svc.BadgeVisible() {
		t.Fatal("badge must not show on decrease")
	}

	// An increase beyond the acknowledged watermark shows the badge.
	client.pending = api.PendingCounts{Total: 5}
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh increased: %v", err)
	}
	if !svc.BadgeVisible() {
		t.Fatal("expected badge after increase past watermark")
	}
	if svc.PendingTotal() != 5 {
		t.Fatalf("pending total = %d, want 5", svc.PendingTotal())
	}
}

func TestAdminWatermarkSurvivesRestart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	client := &fakeCountsClient{pending: api.PendingCounts{Total: 3}}

	first := NewService(client, adminSession(), store)
	if err := first.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := first.AcknowledgeSeen(ctx); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}

	// A fresh service over the same store must not re-show the badge at
	// steady state.
	second := NewService(client, adminSession(), store)
	if err := second.Refresh(ctx); err != nil {
		t.Fatalf("refresh after restart: %v", err)
	}
	if second.BadgeVisible() {
		t.Fatal("expected persisted watermark to suppress badge after restart")
	}
}

func TestRegularUserPathFetchesUnreadOnly(t *testing.T) {
	t.Parallel()

	client := &fakeCountsClient{unread: api.UnreadChats{UnreadCount: 4}}
	svc := NewService(client, userSession(), memory.NewStore())

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if client.callPending != 0 {
		t.Fatal("regular users must not hit the admin aggregate")
	}
	if svc.UnreadCount() != 4 {
		t.Fatalf("unread = %d, want 4", svc.UnreadCount())
	}
}

type fakeReviewLister struct {
	apps     []api.Application
	requests []api.StreamerRequest
	tickets  []api.Ticket
	err      error
}

func (f *fakeReviewLister) Applications(ctx context.Context) ([]api.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.apps, nil
}

func (f *fakeReviewLister) StreamerRequests(ctx context.Context) ([]api.StreamerRequest, error) {
	return f.requests, nil
}

func (f *fakeReviewLister) Tickets(ctx context.Context) ([]api.Ticket, error) {
	return f.tickets, nil
}

func TestPendingBreakdownCountsOnlyActionableItems(t *testing.T) {
	t.Parallel()

	lister := &fakeReviewLister{
		apps: []api.Application{
			{ID: 1, Status: api.StatusPendiente},
			{ID: 2, Status: api.StatusAceptada},
			{ID: 3, Status: api.StatusPendiente},
		},
		requests: []api.StreamerRequest{
			{ID: 4, Status: api.StatusRechazada},
			{ID: 5, Status: api.StatusPendiente},
		},
		tickets: []api.Ticket{
			{ID: 6, Status: api.TicketAbierto},
			{ID: 7, Status: api.TicketEnProceso},
			{ID: 8, Status: api.TicketCerrado},
		},
	}

	breakdown, err := PendingBreakdown(context.Background(), lister)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	want := Breakdown{PendingApplications: 2, PendingStreamers: 1, OpenTickets: 2}
	if breakdown != want {
		t.Fatalf("breakdown = %+v, want %+v", breakdown, want)
	}
}

func TestPendingBreakdownPropagatesListErrors(t *testing.T) {
	t.Parallel()

	lister := &fakeReviewLister{err: errors.New("api down")}
	if _, err := PendingBreakdown(context.Background(), lister); err == nil {
		t.Fatal("expected error from failing list fetch")
	}
	if _, err := PendingBreakdown(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil lister")
	}
}
