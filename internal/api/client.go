// Package api is the typed client for the portal's external REST API. All
// persistence, auth, and validation live behind that API; this client only
// shapes requests, attaches the bearer credential, and decodes snapshots.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/craftedmc/portal/internal/platform/id"
	"github.com/craftedmc/portal/internal/platform/timeouts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/craftedmc/portal/internal/api")

var (
	// ErrNoToken indicates a call requiring authentication was attempted
	// without a stored credential.
	ErrNoToken = errors.New("no bearer token available")
	// ErrUnauthorized indicates the API rejected the bearer credential.
	ErrUnauthorized = errors.New("api rejected credential")
)

// StatusError is a non-2xx API response surfaced to write-path callers.
type StatusError struct {
	Code int
	Body string
}

// Error returns the HTTP status and trimmed response body.
func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("api status %d", e.Code)
	}
	return fmt.Sprintf("api status %d: %s", e.Code, body)
}

// TokenFunc supplies the current bearer credential; an empty string means
// anonymous.
type TokenFunc func(ctx context.Context) string

// Config configures the portal API client.
type Config struct {
	// BaseURL is the API base including the version prefix, e.g.
	// "https://api.example.net/api/v1".
	BaseURL string
	// Token supplies the bearer credential per request. Nil means anonymous.
	Token TokenFunc
	// HTTPClient overrides the transport; defaults to a client with the
	// shared request timeout.
	HTTPClient *http.Client
}

// Client calls the portal REST API.
type Client struct {
	baseURL    string
	token      TokenFunc
	httpClient *http.Client
}

// NewClient builds a portal API client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.APIRequest}
	}
	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		httpClient: httpClient,
	}, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("username is required")
	}
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	var out struct {
		Token string `json:"access_token"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &out, false)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Token) == "" {
		return "", fmt.Errorf("login response missing token")
	}
	return out.Token, nil
}

// Me returns the current user profile for the stored credential.
func (c *Client) Me(ctx context.Context) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/me", nil, &user, true); err != nil {
		return User{}, err
	}
	return user, nil
}

// MyApplications lists the caller's own project applications.
func (c *Client) MyApplications(ctx context.Context) ([]Application, error) {
	var apps []Application
	if err := c.do(ctx, http.MethodGet, "/applications/me", nil, &apps, true); err != nil {
		return nil, err
	}
	return apps, nil
}

// MyStreamerRequests lists the caller's own streamer-role requests.
func (c *Client) MyStreamerRequests(ctx context.Context) ([]StreamerRequest, error) {
	var reqs []StreamerRequest
	if err := c.do(ctx, http.MethodGet, "/streamer-requests/me", nil, &reqs, true); err != nil {
		return nil, err
	}
	return reqs, nil
}

// PendingCounts returns the admin aggregate of items awaiting review.
func (c *Client) PendingCounts(ctx context.Context) (PendingCounts, error) {
	var counts PendingCounts
	if err := c.do(ctx, http.MethodGet, "/utils/pending-counts", nil, &counts, true); err != nil {
		return PendingCounts{}, err
	}
	return counts, nil
}

// UnreadChats returns the caller's count of tickets with unread replies.
func (c *Client) UnreadChats(ctx context.Context) (UnreadChats, error) {
	var unread UnreadChats
	if err := c.do(ctx, http.MethodGet, "/utils/unread-chats", nil, &unread, true); err != nil {
		return UnreadChats{}, err
	}
	return unread, nil
}

// Ticket fetches one full ticket snapshot. The server clears the caller
// role's unread flag as a side effect of this read.
func (c *Client) Ticket(ctx context.Context, ticketID int64) (Ticket, error) {
	if ticketID <= 0 {
		return Ticket{}, fmt.Errorf("ticket id is required")
	}
	var ticket Ticket
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tickets/%d", ticketID), nil, &ticket, true); err != nil {
		return Ticket{}, err
	}
	return ticket, nil
}

// MyTickets lists the caller's own support tickets.
func (c *Client) MyTickets(ctx context.Context) ([]Ticket, error) {
	var tickets []Ticket
	if err := c.do(ctx, http.MethodGet, "/tickets/me", nil, &tickets, true); err != nil {
		return nil, err
	}
	return tickets, nil
}

// CreateTicket opens a new support ticket.
func (c *Client) CreateTicket(ctx context.Context, input CreateTicketInput) (Ticket, error) {
	if strings.TrimSpace(input.Subject) == "" {
		return Ticket{}, fmt.Errorf("ticket subject is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		return Ticket{}, fmt.Errorf("ticket description is required")
	}
	var ticket Ticket
	if err := c.do(ctx, http.MethodPost, "/tickets/", input, &ticket, true); err != nil {
		return Ticket{}, err
	}
	return ticket, nil
}

// SendTicketResponse appends one message to a ticket thread and returns the
// created message.
func (c *Client) SendTicketResponse(ctx context.Context, ticketID int64, content string) (Message, error) {
	if ticketID <= 0 {
		return Message{}, fmt.Errorf("ticket id is required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, fmt.Errorf("message content is required")
	}
	var message Message
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/tickets/%d/responses", ticketID), map[string]string{
		"content": content,
	}, &message, true)
	if err != nil {
		return Message{}, err
	}
	return message, nil
}

// Applications lists every project application for admin review.
func (c *Client) Applications(ctx context.Context) ([]Application, error) {
	var apps []Application
	if err := c.do(ctx, http.MethodGet, "/applications/", nil, &apps, true); err != nil {
		return nil, err
	}
	return apps, nil
}

// StreamerRequests lists every streamer-role request for admin review.
func (c *Client) StreamerRequests(ctx context.Context) ([]StreamerRequest, error) {
	var reqs []StreamerRequest
	if err := c.do(ctx, http.MethodGet, "/streamer-requests/", nil, &reqs, true); err != nil {
		return nil, err
	}
	return reqs, nil
}

// Tickets lists every support ticket for admin review.
func (c *Client) Tickets(ctx context.Context) ([]Ticket, error) {
	var tickets []Ticket
	if err := c.do(ctx, http.MethodGet, "/tickets/", nil, &tickets, true); err != nil {
		return nil, err
	}
	return tickets, nil
}

// UpdateStatus sets the status of one admin-moderated item. Kind is the API
// collection name, e.g. "applications" or "streamer-requests".
func (c *Client) UpdateStatus(ctx context.Context, kind string, itemID int64, status Status) error {
	kind = strings.Trim(strings.TrimSpace(kind), "/")
	if kind == "" {
		return fmt.Errorf("item kind is required")
	}
	if itemID <= 0 {
		return fmt.Errorf("item id is required")
	}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/%s/%d", kind, itemID), map[string]Status{
		"status": status,
	}, nil, true)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any, authed bool) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("api client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := tracer.Start(ctx, method+" "+path, trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	))
	defer span.End()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return c.spanErr(span, fmt.Errorf("encode request body: %w", err))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return c.spanErr(span, fmt.Errorf("build request: %w", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID, idErr := id.NewID(); idErr == nil {
		req.Header.Set("X-Request-ID", requestID)
	}
	if authed {
		token := ""
		if c.token != nil {
			token = strings.TrimSpace(c.token(ctx))
		}
		if token == "" {
			return c.spanErr(span, ErrNoToken)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.spanErr(span, fmt.Errorf("call api: %w", err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return c.spanErr(span, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return c.spanErr(span, &StatusError{Code: resp.StatusCode, Body: string(raw)})
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.spanErr(span, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) spanErr(span trace.Span, err error) error {
	span.SetStatus(codes.Error, err.Error())
	return err
}
