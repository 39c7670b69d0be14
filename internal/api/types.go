package api

import "time"

// Status is the lifecycle state of a status-changeable item. Values are the
// portal API's Spanish identifiers and are compared verbatim.
type Status string

const (
	StatusPendiente Status = "Pendiente"
	StatusAceptada  Status = "Aceptada"
	StatusRechazada Status = "Rechazada"
	StatusRevocada  Status = "Revocada"
)

// TicketStatus is the lifecycle state of a support ticket.
type TicketStatus string

const (
	TicketAbierto   TicketStatus = "Abierto"
	TicketEnProceso TicketStatus = "En Proceso"
	TicketCerrado   TicketStatus = "Cerrado"
)

// RoleAdmin is the role string the API assigns to staff accounts.
const RoleAdmin = "Admin"

// User is the authenticated account profile returned by /me.
type User struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	MinecraftNick string `json:"minecraft_nick,omitempty"`
	IsPremium     bool   `json:"is_premium,omitempty"`
	Country       string `json:"country,omitempty"`
	DiscordID     string `json:"discord_id,omitempty"`
}

// IsAdmin reports whether the user holds the staff role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Project is the subset of project fields carried on an application.
type Project struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Application is one project application owned by a user.
type Application struct {
	ID      int64    `json:"id"`
	Status  Status   `json:"status"`
	Project *Project `json:"project,omitempty"`
}

// StreamerRequest is one streamer-role request owned by a user.
type StreamerRequest struct {
	ID      int64  `json:"id"`
	Status  Status `json:"status"`
	Channel string `json:"channel,omitempty"`
}

// PendingCounts is the admin-facing aggregate of items awaiting review.
type PendingCounts struct {
	Total int `json:"total"`
}

// UnreadChats is the user-facing count of support tickets with unread
// replies.
type UnreadChats struct {
	UnreadCount int `json:"unread_count"`
}

// Message is one immutable ticket chat message.
type Message struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	User      *User     `json:"user,omitempty"`
}

// Ticket is a full support ticket snapshot including its message thread.
// Responses carry the server's authoritative order; the unread flags reflect
// state before this fetch cleared the caller-role flag.
type Ticket struct {
	ID          int64        `json:"id"`
	Subject     string       `json:"subject"`
	Description string       `json:"description"`
	Status      TicketStatus `json:"status"`
	Category    string       `json:"category"`
	EvidenceURL string       `json:"evidence_url,omitempty"`
	UnreadUser  bool         `json:"unread_user"`
	UnreadAdmin bool         `json:"unread_admin"`
	Responses   []Message    `json:"responses"`
}

// CreateTicketInput describes a new support ticket.
type CreateTicketInput struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Category    string `json:"category"`
	EvidenceURL string `json:"evidence_url,omitempty"`
}
