package events

import (
	"time"

	"github.com/ayachi01/FixItWeb/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountRegistered EventType = "account_registered"
	EventAccountVerified   EventType = "account_verified"
	EventOTPIssued         EventType = "otp_issued"
	EventResetCodeIssued   EventType = "reset_code_issued"
	EventInviteCreated     EventType = "invite_created"
	EventInviteApproved    EventType = "invite_approved"
	EventInviteRedeemed    EventType = "invite_redeemed"
	EventTicketCreated     EventType = "ticket_created"
	EventTicketAssigned    EventType = "ticket_assigned"
	EventTicketAccepted    EventType = "ticket_accepted"
	EventTicketResolved    EventType = "ticket_resolved"
	EventTicketClosed      EventType = "ticket_closed"
	EventTicketReopened    EventType = "ticket_reopened"
	EventTicketEscalated   EventType = "ticket_escalated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AccountPayload accompanies account lifecycle events. Codes themselves are
// delivered out of band; the payload carries only routing metadata.
type AccountPayload struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
}

// CodePayload accompanies OTP/reset issuance events. RawCode is consumed by
// the delivery relay and never persisted.
type CodePayload struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	RawCode   string `json:"-"`
	Kind      string `json:"kind"`
}

// InvitePayload accompanies invite lifecycle events.
type InvitePayload struct {
	InviteID string `json:"invite_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Token    string `json:"-"`
}

// TicketPayload accompanies ticket lifecycle events.
type TicketPayload struct {
	TicketID   string                 `json:"ticket_id"`
	ReporterID *string                `json:"reporter_id,omitempty"`
	AssigneeID *string                `json:"assignee_id,omitempty"`
	Category   domain.Category        `json:"category,omitempty"`
	Status     domain.TicketStatus    `json:"status,omitempty"`
	Escalation domain.EscalationLevel `json:"escalation,omitempty"`
}
