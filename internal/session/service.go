// Package session holds the bearer credential and current user profile. It
// is the source of truth for whether the runtime's polling surfaces are
// active: no validated user means every downstream fetch short-circuits to
// an anonymous, inactive state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/craftedmc/portal/internal/api"
	"github.com/craftedmc/portal/internal/signal"
	"github.com/craftedmc/portal/internal/storage"
)

// ErrClientNotConfigured indicates the service is missing its API client.
var ErrClientNotConfigured = errors.New("session api client is not configured")

// ErrStoreNotConfigured indicates the service is missing its token store.
var ErrStoreNotConfigured = errors.New("session store is not configured")

// Client is the API surface the session service depends on.
type Client interface {
	Login(ctx context.Context, username, password string) (string, error)
	Me(ctx context.Context) (api.User, error)
}

// Service manages the stored credential and the cached user profile.
type Service struct {
	client Client
	store  storage.KV
	bus    *signal.Bus
	clock  func() time.Time

	mu   sync.Mutex
	user *api.User
}

// NewService constructs a session service. bus may be nil when no other
// surface needs session transitions.
func NewService(client Client, store storage.KV, bus *signal.Bus) *Service {
	return &Service{
		client: client,
		store:  store,
		bus:    bus,
		clock:  time.Now,
	}
}

// Token returns the stored bearer credential, or "" when anonymous. Storage
// failures collapse to anonymous.
func (s *Service) Token(ctx context.Context) string {
	if s == nil || s.store == nil {
		return ""
	}
	token, ok, err := s.store.Get(ctx, storage.KeyToken)
	if err != nil {
		log.Printf("session: read token: %v", err)
		return ""
	}
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// CurrentUser returns the cached profile, which may be stale, and whether a
// validated session exists.
func (s *Service) CurrentUser() (api.User, bool) {
	if s == nil {
		return api.User{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return api.User{}, false
	}
	return *s.user, true
}

// Refresh validates the stored credential against the API and caches the
// returned profile. Any failure collapses to anonymous: refresh errors are
// logged, never surfaced, matching the runtime's best-effort read paths.
// The returned bool reports whether a signed-in session exists.
func (s *Service) Refresh(ctx context.Context) (api.User, bool) {
	if s == nil || s.client == nil {
		return api.User{}, false
	}

	token := s.Token(ctx)
	if token == "" {
		s.clearUser()
		return api.User{}, false
	}
	if expired, err := s.tokenExpired(token); err == nil && expired {
		// A locally expired credential cannot validate; skip the round trip.
		s.clearUser()
		return api.User{}, false
	}

	user, err := s.client.Me(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Printf("session: refresh: %v", err)
		}
		s.clearUser()
		return api.User{}, false
	}
	if strings.TrimSpace(user.Username) == "" {
		s.clearUser()
		return api.User{}, false
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return user, true
}

// Login exchanges credentials for a bearer token, persists it, validates it,
// and announces the session change.
func (s *Service) Login(ctx context.Context, username, password string) (api.User, error) {
	if s == nil || s.client == nil {
		return api.User{}, ErrClientNotConfigured
	}
	if s.store == nil {
		return api.User{}, ErrStoreNotConfigured
	}

	token, err := s.client.Login(ctx, username, password)
	if err != nil {
		return api.User{}, fmt.Errorf("login: %w", err)
	}
	if err := s.store.Set(ctx, storage.KeyToken, token); err != nil {
		return api.User{}, fmt.Errorf("persist token: %w", err)
	}

	user, ok := s.Refresh(ctx)
	if !ok {
		return api.User{}, fmt.Errorf("login succeeded but profile fetch failed")
	}
	s.bus.Publish(signal.SessionChanged)
	return user, nil
}

// Logout clears the stored credential and cached profile and announces the
// session change.
func (s *Service) Logout(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if s.store != nil {
		if err := s.store.Delete(ctx, storage.KeyToken); err != nil {
			return fmt.Errorf("clear token: %w", err)
		}
	}
	s.clearUser()
	s.bus.Publish(signal.SessionChanged)
	return nil
}

func (s *Service) clearUser() {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

// tokenExpired inspects the token's exp claim without verifying its
// signature; verification belongs to the API. Unparseable tokens report
// an error and are left for the API to reject.
func (s *Service) tokenExpired(token string) (bool, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false, err
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return false, err
	}
	now := time.Now
	if s.clock != nil {
		now = s.clock
	}
	return expiry.Before(now()), nil
}
