package domain

import "time"

// TicketStatus enumerates lifecycle states for facility tickets.
type TicketStatus string

const (
	TicketStatusCreated         TicketStatus = "Created"
	TicketStatusAssigned        TicketStatus = "Assigned"
	TicketStatusInProgress      TicketStatus = "In Progress"
	TicketStatusNeedsAssistance TicketStatus = "Needs Assistance"
	TicketStatusResolved        TicketStatus = "Resolved"
	TicketStatusClosed          TicketStatus = "Closed"
	TicketStatusReopened        TicketStatus = "Reopened"
)

// ActiveStatuses are the states that count toward a fixer's workload and are
// visited by the escalation sweep.
func ActiveStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusCreated,
		TicketStatusAssigned,
		TicketStatusInProgress,
		TicketStatusNeedsAssistance,
		TicketStatusReopened,
	}
}

// WorkloadStatuses are the states counted against the per-fixer capacity cap.
func WorkloadStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusCreated,
		TicketStatusAssigned,
		TicketStatusInProgress,
	}
}

// Urgency marks how quickly a ticket escalates.
type Urgency string

const (
	UrgencyStandard Urgency = "Standard"
	UrgencyUrgent   Urgency = "Urgent"
)

// EscalationLevel is an ordinal severity tag (None < Secondary < Admin).
type EscalationLevel string

const (
	EscalationNone      EscalationLevel = "None"
	EscalationSecondary EscalationLevel = "Secondary"
	EscalationAdmin     EscalationLevel = "Admin"
)

// Image bounds and fixer capacity enforced at creation/assignment time.
const (
	MinTicketImages      = 1
	MaxTicketImages      = 3
	MaxActiveAssignments = 3
)

// Ticket is the aggregate for reported facility issues.
type Ticket struct {
	ID              string
	ReporterID      *string
	LocationID      string
	Title           string
	Description     string
	Category        Category
	Urgency         Urgency
	Status          TicketStatus
	EscalationLevel EscalationLevel
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Terminal reports whether the ticket has left the active flow. Closed is the
// terminal state until a reopen; Resolved only awaits closing.
func (t *Ticket) Terminal() bool {
	return t.Status == TicketStatusResolved || t.Status == TicketStatusClosed
}

var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusCreated:         {TicketStatusAssigned},
	TicketStatusAssigned:        {TicketStatusInProgress, TicketStatusResolved},
	TicketStatusInProgress:      {TicketStatusNeedsAssistance, TicketStatusResolved},
	TicketStatusNeedsAssistance: {TicketStatusInProgress, TicketStatusAssigned, TicketStatusResolved},
	TicketStatusResolved:        {TicketStatusClosed},
	TicketStatusClosed:          {TicketStatusReopened},
	TicketStatusReopened:        {TicketStatusAssigned, TicketStatusInProgress, TicketStatusResolved},
}

// ValidTransition reports whether a ticket may move from current to next.
func ValidTransition(current, next TicketStatus) bool {
	for _, candidate := range ticketTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// EscalationThresholds hold the age cutoffs for the escalation rules.
type EscalationThresholds struct {
	UrgentSecondary   time.Duration
	StandardSecondary time.Duration
	Admin             time.Duration
}

// DefaultEscalationThresholds returns the standard SLA cutoffs.
func DefaultEscalationThresholds() EscalationThresholds {
	return EscalationThresholds{
		UrgentSecondary:   4 * time.Hour,
		StandardSecondary: 24 * time.Hour,
		Admin:             48 * time.Hour,
	}
}

// EscalationDecision evaluates the escalation rules for a ticket at the given
// instant and returns the new level when a change is due. The rules are
// evaluated in order and the last matching rule wins: a ticket older than the
// admin cutoff goes straight to Admin even when the same evaluation would
// have produced Secondary. Resolved and closed tickets never escalate, and
// re-evaluating without elapsed time yields no further change.
func EscalationDecision(t *Ticket, now time.Time, th EscalationThresholds) (EscalationLevel, bool) {
	if t.Terminal() {
		return t.EscalationLevel, false
	}

	age := now.Sub(t.CreatedAt)
	level := t.EscalationLevel
	changed := false

	if t.EscalationLevel == EscalationNone {
		if t.Urgency == UrgencyUrgent && age > th.UrgentSecondary {
			level = EscalationSecondary
			changed = true
		} else if t.Urgency == UrgencyStandard && age > th.StandardSecondary {
			level = EscalationSecondary
			changed = true
		}
	}

	if age > th.Admin && t.EscalationLevel != EscalationAdmin {
		level = EscalationAdmin
		changed = true
	}

	if !changed || level == t.EscalationLevel {
		return t.EscalationLevel, false
	}
	return level, true
}

// TicketImage records an evidence photo attached at ticket creation.
type TicketImage struct {
	ID         string
	TicketID   string
	ImageURL   string
	UploadedBy *string
	CreatedAt  time.Time
}

// TicketAssignment joins a ticket to a fixer. Unique per (ticket, user).
type TicketAssignment struct {
	ID         string
	TicketID   string
	AssigneeID string
	AssignedAt time.Time
	Accepted   bool
	AcceptedAt *time.Time
}

// TicketResolution records a fix, with proof when the resolver's role
// requires it.
type TicketResolution struct {
	ID             string
	TicketID       string
	ResolvedBy     *string
	ProofImageURL  *string
	ResolutionNote string
	CreatedAt      time.Time
}
