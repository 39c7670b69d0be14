// Package agent parses agent command flags and launches the agent runtime.
package agent

import (
	"context"
	"flag"
	"time"

	agentruntime "github.com/craftedmc/portal/internal/agent"
	entrypoint "github.com/craftedmc/portal/internal/platform/cmd"
)

// Config holds agent command configuration.
type Config struct {
	APIBaseURL string `env:"PORTAL_API_BASE_URL"`
	DBPath     string `env:"PORTAL_DB_PATH" envDefault:"data/portal.db"`
	Locale     string `env:"PORTAL_LOCALE" envDefault:"es"`
	Username   string `env:"PORTAL_USERNAME"`
	Password   string `env:"PORTAL_PASSWORD"`

	SessionInterval      time.Duration `env:"PORTAL_SESSION_INTERVAL" envDefault:"1m"`
	CounterInterval      time.Duration `env:"PORTAL_COUNTER_INTERVAL" envDefault:"30s"`
	AdminCounterInterval time.Duration `env:"PORTAL_ADMIN_COUNTER_INTERVAL" envDefault:"5m"`
	NotifyInterval       time.Duration `env:"PORTAL_NOTIFY_INTERVAL" envDefault:"1m"`
	TicketInterval       time.Duration `env:"PORTAL_TICKET_INTERVAL" envDefault:"5s"`

	WatchTicketID        int64  `env:"PORTAL_WATCH_TICKET_ID"`
	NewTicketSubject     string `env:"PORTAL_NEW_TICKET_SUBJECT"`
	NewTicketDescription string `env:"PORTAL_NEW_TICKET_DESCRIPTION"`
	NewTicketCategory    string `env:"PORTAL_NEW_TICKET_CATEGORY" envDefault:"general"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.APIBaseURL, "api-base-url", cfg.APIBaseURL, "Portal REST API base URL including the version prefix")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Client store SQLite database path")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Notification copy locale (BCP 47)")
	fs.StringVar(&cfg.Username, "username", cfg.Username, "Portal account username; password comes from PORTAL_PASSWORD")
	fs.DurationVar(&cfg.SessionInterval, "session-interval", cfg.SessionInterval, "Session refresh interval")
	fs.DurationVar(&cfg.CounterInterval, "counter-interval", cfg.CounterInterval, "Unread counter refresh interval")
	fs.DurationVar(&cfg.AdminCounterInterval, "admin-counter-interval", cfg.AdminCounterInterval, "Pending aggregate refresh interval for staff sessions")
	fs.DurationVar(&cfg.NotifyInterval, "notify-interval", cfg.NotifyInterval, "Notification reconcile interval")
	fs.DurationVar(&cfg.TicketInterval, "ticket-interval", cfg.TicketInterval, "Open ticket chat poll interval")
	fs.Int64Var(&cfg.WatchTicketID, "watch-ticket", cfg.WatchTicketID, "Ticket id to keep an open chat session for")
	fs.StringVar(&cfg.NewTicketSubject, "new-ticket-subject", cfg.NewTicketSubject, "Open a fresh support ticket at startup and watch its chat")
	fs.StringVar(&cfg.NewTicketDescription, "new-ticket-description", cfg.NewTicketDescription, "Description for the startup support ticket")
	fs.StringVar(&cfg.NewTicketCategory, "new-ticket-category", cfg.NewTicketCategory, "Category for the startup support ticket")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the agent runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceAgent, func(ctx context.Context) error {
		return agentruntime.Run(ctx, agentruntime.RuntimeConfig{
			APIBaseURL:           cfg.APIBaseURL,
			DBPath:               cfg.DBPath,
			Locale:               cfg.Locale,
			Username:             cfg.Username,
			Password:             cfg.Password,
			SessionInterval:      cfg.SessionInterval,
			CounterInterval:      cfg.CounterInterval,
			AdminCounterInterval: cfg.AdminCounterInterval,
			NotifyInterval:       cfg.NotifyInterval,
			TicketInterval:       cfg.TicketInterval,
			WatchTicketID:        cfg.WatchTicketID,
			NewTicketSubject:     cfg.NewTicketSubject,
			NewTicketDescription: cfg.NewTicketDescription,
			NewTicketCategory:    cfg.NewTicketCategory,
		})
	})
}
