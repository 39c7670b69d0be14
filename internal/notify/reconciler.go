// Package notify derives "has unseen important change" notification state
// from the caller's own status-changeable items. The portal API has no
// server-side seen flag, so the reconciler diffs each item's currently
// fetched status against a durable, device-scoped dismissal record.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/craftedmc/portal/internal/api"
	"github.com/craftedmc/portal/internal/storage"
)

var (
	// ErrClientNotConfigured indicates the reconciler is missing its API client.
	ErrClientNotConfigured = errors.New("notify api client is not configured")
	// ErrStoreNotConfigured indicates the reconciler is missing its dismissal store.
	ErrStoreNotConfigured = errors.New("notify dismissal store is not configured")
)

// Kind identifies the item collection a notification key refers to. The
// values are embedded in persisted keys and must not change.
type Kind string

const (
	// KindApplication marks project application transitions.
	KindApplication Kind = "app"
	// KindStreamer marks streamer-request transitions.
	KindStreamer Kind = "streamer"
)

// Region names one UI surface that shows its own notification badge.
type Region string

const (
	// RegionProjects is the "Proyectos participados" profile tab.
	RegionProjects Region = "projects"
	// RegionConnections is the "Configuración / Conexiones" profile tab.
	RegionConnections Region = "connections"
)

// Notification is one undismissed status transition.
type Notification struct {
	Key    string
	Kind   Kind
	Region Region
	ItemID int64
	Status api.Status
	// ProjectTitle is set for application notifications when the API
	// included the project.
	ProjectTitle string
}

// Key builds the durable dismissal key for one status transition. A new
// transition on the same item yields a new key, so a previously dismissed
// item re-alerts when its status changes again.
func Key(kind Kind, itemID int64, status api.Status) string {
	return fmt.Sprintf("%s-%d-%s", kind, itemID, status)
}

// notifiable reports whether a status is a terminal-interesting change event.
// Pending items are the user's own outstanding ask, not a change; plain
// rejections match the original portal behavior and do not alert.
func notifiable(status api.Status) bool {
	return status == api.StatusAceptada || status == api.StatusRevocada
}

// Client is the API surface the reconciler depends on.
type Client interface {
	MyApplications(ctx context.Context) ([]api.Application, error)
	MyStreamerRequests(ctx context.Context) ([]api.StreamerRequest, error)
}

// Service reconciles fetched item state against the dismissal record.
type Service struct {
	client     Client
	dismissals storage.DismissalStore
}

// NewService constructs a notification reconciler.
func NewService(client Client, dismissals storage.DismissalStore) *Service {
	return &Service{client: client, dismissals: dismissals}
}

// Reconcile fetches both owned-item lists and returns the undismissed
// terminal-interesting transitions. With unchanged API data and no
// dismissals, repeated calls return the same result.
func (s *Service) Reconcile(ctx context.Context) ([]Notification, error) {
	if s == nil || s.client == nil {
		return nil, ErrClientNotConfigured
	}
	if s.dismissals == nil {
		return nil, ErrStoreNotConfigured
	}

	apps, err := s.client.MyApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch applications: %w", err)
	}
	streamers, err := s.client.MyStreamerRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch streamer requests: %w", err)
	}

	var notifications []Notification
	for _, app := range apps {
		if !notifiable(app.Status) {
			continue
		}
		notification := Notification{
			Key:    Key(KindApplication, app.ID, app.Status),
			Kind:   KindApplication,
			Region: RegionProjects,
			ItemID: app.ID,
			Status: app.Status,
		}
		if app.Project != nil {
			notification.ProjectTitle = app.Project.Title
		}
		isNew, err := s.isNew(ctx, notification.Key)
		if err != nil {
			return nil, err
		}
		if isNew {
			notifications = append(notifications, notification)
		}
	}
	for _, req := range streamers {
		if !notifiable(req.Status) {
			continue
		}
		notification := Notification{
			Key:    Key(KindStreamer, req.ID, req.Status),
			Kind:   KindStreamer,
			Region: RegionConnections,
			ItemID: req.ID,
			Status: req.Status,
		}
		isNew, err := s.isNew(ctx, notification.Key)
		if err != nil {
			return nil, err
		}
		if isNew {
			notifications = append(notifications, notification)
		}
	}
	return notifications, nil
}

// DismissRegion acknowledges every notification for region in one atomic
// batch. Notifications outside the region are untouched.
func (s *Service) DismissRegion(ctx context.Context, notifications []Notification, region Region) error {
	if s == nil || s.dismissals == nil {
		return ErrStoreNotConfigured
	}
	var keys []string
	for _, notification := range notifications {
		if notification.Region == region {
			keys = append(keys, notification.Key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.dismissals.AddDismissals(ctx, keys); err != nil {
		return fmt.Errorf("record dismissals: %w", err)
	}
	return nil
}

// RegionSignal reports whether region has at least one new notification.
func RegionSignal(notifications []Notification, region Region) bool {
	for _, notification := range notifications {
		if notification.Region == region {
			return true
		}
	}
	return false
}

// HasNew reports whether any region has a new notification. Sidebar and top
// bar badges key off the aggregate.
func HasNew(notifications []Notification) bool {
	return len(notifications) > 0
}

func (s *Service) isNew(ctx context.Context, key string) (bool, error) {
	dismissed, err := s.dismissals.IsDismissed(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check dismissal %q: %w", key, err)
	}
	return !dismissed, nil
}
