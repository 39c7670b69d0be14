// Package timeouts defines shared timeout and interval constants used across
// the portal client runtime. Centralizing these values prevents drift between
// polling surfaces and makes the durations discoverable.
package timeouts

import "time"

// APIRequest caps the time allowed for a single REST call to the portal API.
const APIRequest = 10 * time.Second

// TicketPoll is the re-fetch interval for an open ticket chat.
const TicketPoll = 5 * time.Second

// CounterPoll is the default refresh interval for unread counters.
const CounterPoll = 30 * time.Second

// AdminCounterPoll is the refresh interval for the admin pending-count badge.
const AdminCounterPoll = 5 * time.Minute

// Shutdown limits how long the runtime waits for pollers to drain during
// graceful shutdown.
const Shutdown = 5 * time.Second
