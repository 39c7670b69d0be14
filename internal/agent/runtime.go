// Package agent wires the portal client runtime: one process that keeps a
// signed-in session fresh and derives notification, unread-counter, and
// ticket-chat state by polling the external REST API.
package agent

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/craftedmc/portal/internal/api"
	"github.com/craftedmc/portal/internal/counters"
	"github.com/craftedmc/portal/internal/notify"
	"github.com/craftedmc/portal/internal/notify/render"
	"github.com/craftedmc/portal/internal/platform/timeouts"
	"github.com/craftedmc/portal/internal/poller"
	"github.com/craftedmc/portal/internal/session"
	"github.com/craftedmc/portal/internal/signal"
	"github.com/craftedmc/portal/internal/storage"
	storagesqlite "github.com/craftedmc/portal/internal/storage/sqlite"
	"github.com/craftedmc/portal/internal/ticketchat"
)

// RuntimeConfig controls agent startup, dependencies, and poll behavior.
type RuntimeConfig struct {
	APIBaseURL string
	DBPath     string
	Locale     string
	// Username and Password are the portal credentials. When set the agent
	// signs itself in at startup and again whenever the session collapses
	// to anonymous; when empty it only reuses a previously stored token.
	Username string
	Password string

	SessionInterval time.Duration
	CounterInterval time.Duration
	// AdminCounterInterval replaces CounterInterval once the session turns
	// out to hold the staff role; the pending aggregate moves slowly.
	AdminCounterInterval time.Duration
	NotifyInterval       time.Duration
	TicketInterval       time.Duration

	// WatchTicketID opens one ticket chat for the process lifetime. Zero
	// falls back to the newest open ticket the account owns, if any.
	WatchTicketID int64
	// NewTicketSubject, when set, opens a fresh support ticket at startup
	// and watches its chat instead of an existing one.
	NewTicketSubject     string
	NewTicketDescription string
	NewTicketCategory    string
}

const defaultAgentDB = "data/portal.db"

// Run starts the agent runtime and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return fmt.Errorf("api base url is required")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultAgentDB
	}
	if cfg.SessionInterval <= 0 {
		cfg.SessionInterval = time.Minute
	}
	if cfg.CounterInterval <= 0 {
		cfg.CounterInterval = timeouts.CounterPoll
	}
	if cfg.AdminCounterInterval <= 0 {
		cfg.AdminCounterInterval = timeouts.AdminCounterPoll
	}
	if cfg.NotifyInterval <= 0 {
		cfg.NotifyInterval = time.Minute
	}
	if cfg.TicketInterval <= 0 {
		cfg.TicketInterval = timeouts.TicketPoll
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create agent storage dir: %w", err)
		}
	}

	store, err := storagesqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open client store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close client store: %v", closeErr)
		}
	}()

	if dismissed, listErr := store.ListDismissals(ctx); listErr != nil {
		log.Printf("list stored dismissals: %v", listErr)
	} else if len(dismissed) > 0 {
		log.Printf("restored %d notification dismissals", len(dismissed))
	}

	locale, err := resolveLocale(ctx, store, cfg.Locale)
	if err != nil {
		log.Printf("resolve locale: %v", err)
	}

	bus := signal.NewBus()

	var sessionSvc *session.Service
	client, err := api.NewClient(api.Config{
		BaseURL: cfg.APIBaseURL,
		Token: func(ctx context.Context) string {
			return sessionSvc.Token(ctx)
		},
	})
	if err != nil {
		return fmt.Errorf("build api client: %w", err)
	}

	sessionSvc = session.NewService(client, store, bus)
	notifySvc := notify.NewService(client, store)
	countersSvc := counters.NewService(client, sessionSvc, store)
	localizer := render.NewLocalizer(locale)

	signIn := func(ctx context.Context) error {
		if _, ok := sessionSvc.Refresh(ctx); ok {
			return nil
		}
		if cfg.Username == "" {
			// Anonymous is a valid steady state without credentials.
			return nil
		}
		user, err := sessionSvc.Login(ctx, cfg.Username, cfg.Password)
		if err != nil {
			return fmt.Errorf("sign in as %s: %w", cfg.Username, err)
		}
		log.Printf("signed in as %s", user.Username)
		return nil
	}

	sessionPoll := poller.New("session", cfg.SessionInterval, signIn)

	var counterPoll *poller.Poller
	badgeShown := false
	counterPoll = poller.New("counters", cfg.CounterInterval, func(ctx context.Context) error {
		if err := countersSvc.Refresh(ctx); err != nil {
			return err
		}
		user, ok := sessionSvc.CurrentUser()
		if !ok {
			counterPoll.SetInterval(cfg.CounterInterval)
			badgeShown = false
			return nil
		}
		if !user.IsAdmin() {
			counterPoll.SetInterval(cfg.CounterInterval)
			badgeShown = false
			return nil
		}
		counterPoll.SetInterval(cfg.AdminCounterInterval)

		visible := countersSvc.BadgeVisible()
		if visible && !badgeShown {
			if breakdown, err := counters.PendingBreakdown(ctx, client); err != nil {
				log.Printf("pending breakdown: %v", err)
			} else {
				log.Printf("pending review: %d applications, %d streamer requests, %d open tickets (total %d)",
					breakdown.PendingApplications, breakdown.PendingStreamers,
					breakdown.OpenTickets, countersSvc.PendingTotal())
			}
		}
		badgeShown = visible
		return nil
	})

	badges := newBadgeLog(localizer)
	notifyPoll := poller.New("notifications", cfg.NotifyInterval, func(ctx context.Context) error {
		if _, ok := sessionSvc.CurrentUser(); !ok {
			return nil
		}
		notifications, err := notifySvc.Reconcile(ctx)
		if err != nil {
			return err
		}
		badges.report(notifications)
		return nil
	})

	// Signal wiring: surfaces re-fetch their own state instead of receiving
	// pushed data.
	disposers := []func(){
		bus.Subscribe(signal.SessionChanged, counterPoll.Trigger),
		bus.Subscribe(signal.SessionChanged, notifyPoll.Trigger),
		bus.Subscribe(signal.TicketsUpdated, counterPoll.Trigger),
		bus.Subscribe(signal.ProfileUpdated, notifyPoll.Trigger),
	}
	defer func() {
		for _, dispose := range disposers {
			dispose()
		}
	}()

	// Establish the session before the loops begin so the first counter and
	// notification cycles run signed in and ticket watching can resolve.
	if err := signIn(ctx); err != nil {
		log.Printf("startup sign-in: %v", err)
	}

	watchID, err := resolveWatchTicket(ctx, client, sessionSvc, cfg)
	if err != nil {
		log.Printf("resolve watched ticket: %v", err)
	}

	pollers := []*poller.Poller{sessionPoll, counterPoll, notifyPoll}
	var dones []chan struct{}
	for _, p := range pollers {
		_, done := p.Start(ctx)
		dones = append(dones, done)
	}

	if watchID > 0 {
		chat := ticketchat.NewSession(client, bus, watchID, cfg.TicketInterval)
		chatDone := make(chan struct{})
		go func() {
			defer close(chatDone)
			chat.Run(ctx)
		}()
		dones = append(dones, chatDone)
		log.Printf("agent watching ticket %d", watchID)
	}

	log.Printf("agent running against %s", cfg.APIBaseURL)
	<-ctx.Done()

	drain := time.NewTimer(timeouts.Shutdown)
	defer drain.Stop()
	for _, done := range dones {
		select {
		case <-done:
		case <-drain.C:
			return nil
		}
	}
	return nil
}

// resolveLocale applies the locale precedence: explicit configuration wins
// and is persisted for later runs; otherwise a previously stored choice;
// otherwise empty, which the localizer treats as Spanish.
func resolveLocale(ctx context.Context, kv storage.KV, configured string) (string, error) {
	configured = strings.TrimSpace(configured)
	if configured != "" {
		if err := kv.Set(ctx, storage.KeyLocale, configured); err != nil {
			return configured, fmt.Errorf("persist locale: %w", err)
		}
		return configured, nil
	}
	stored, ok, err := kv.Get(ctx, storage.KeyLocale)
	if err != nil {
		return "", fmt.Errorf("read stored locale: %w", err)
	}
	if !ok {
		return "", nil
	}
	return stored, nil
}

// resolveWatchTicket picks the ticket chat to keep open. A freshly created
// ticket wins over an explicit id, which wins over the newest open ticket
// the account owns. Zero means no chat.
func resolveWatchTicket(ctx context.Context, client *api.Client, sessionSvc *session.Service, cfg RuntimeConfig) (int64, error) {
	if strings.TrimSpace(cfg.NewTicketSubject) != "" {
		ticket, err := client.CreateTicket(ctx, api.CreateTicketInput{
			Subject:     cfg.NewTicketSubject,
			Description: cfg.NewTicketDescription,
			Category:    cfg.NewTicketCategory,
		})
		if err != nil {
			return 0, fmt.Errorf("open support ticket: %w", err)
		}
		log.Printf("opened support ticket %d: %s", ticket.ID, ticket.Subject)
		return ticket.ID, nil
	}
	if cfg.WatchTicketID > 0 {
		return cfg.WatchTicketID, nil
	}
	if _, ok := sessionSvc.CurrentUser(); !ok {
		return 0, nil
	}
	tickets, err := client.MyTickets(ctx)
	if err != nil {
		return 0, fmt.Errorf("list own tickets: %w", err)
	}
	var newest int64
	for _, ticket := range tickets {
		if ticket.Status == api.TicketCerrado {
			continue
		}
		if ticket.ID > newest {
			newest = ticket.ID
		}
	}
	return newest, nil
}

// badgeLog reports notification state transitions to the process log, the
// agent's stand-in for UI badges. Keys are logged once per appearance.
type badgeLog struct {
	localizer render.Localizer
	seen      map[string]struct{}
}

func newBadgeLog(localizer render.Localizer) *badgeLog {
	return &badgeLog{
		localizer: localizer,
		seen:      make(map[string]struct{}),
	}
}

func (b *badgeLog) report(notifications []notify.Notification) {
	current := make(map[string]struct{}, len(notifications))
	var fresh []notify.Notification
	for _, notification := range notifications {
		current[notification.Key] = struct{}{}
		if _, ok := b.seen[notification.Key]; !ok {
			fresh = append(fresh, notification)
		}
	}
	b.seen = current

	sort.Slice(fresh, func(i, j int) bool { return fresh[i].Key < fresh[j].Key })
	for _, notification := range fresh {
		log.Printf("notification [%s] %s", notification.Region, render.Body(b.localizer, notification))
	}
}
