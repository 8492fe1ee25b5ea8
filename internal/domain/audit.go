package domain

import "time"

// AuditAction is the closed vocabulary of auditable actions. Anything outside
// this set is silently dropped by the audit service.
type AuditAction string

const (
	// Account and auth actions.
	AuditUserCreated            AuditAction = "User Created"
	AuditUserProfileCreated     AuditAction = "User Profile Created"
	AuditRoleAssigned           AuditAction = "Role Assigned"
	AuditOTPVerified            AuditAction = "OTP Verified"
	AuditOTPResent              AuditAction = "OTP Resent"
	AuditInviteCreated          AuditAction = "Invite Created"
	AuditInviteApproved         AuditAction = "Invite Approved"
	AuditInviteAccepted         AuditAction = "Invite Accepted"
	AuditInviteRejected         AuditAction = "Invite Rejected"
	AuditPasswordResetRequested AuditAction = "Password Reset Requested"
	AuditPasswordResetConfirmed AuditAction = "Password Reset Confirmed"
	AuditLogin                  AuditAction = "Login"
	AuditLogout                 AuditAction = "Logout"
	AuditLoginFailed            AuditAction = "Login Failed"

	// Ticket lifecycle actions.
	AuditTicketCreated    AuditAction = "Ticket Created"
	AuditTicketUpdated    AuditAction = "Ticket Updated"
	AuditTicketAssigned   AuditAction = "Ticket Assigned"
	AuditTicketUnassigned AuditAction = "Ticket Unassigned"
	AuditTicketAccepted   AuditAction = "Ticket Accepted"
	AuditTicketResolved   AuditAction = "Ticket Resolved"
	AuditTicketClosed     AuditAction = "Ticket Closed"
	AuditTicketReopened   AuditAction = "Ticket Reopened"
	AuditTicketEscalated  AuditAction = "Ticket Escalated"
)

var auditActions = map[AuditAction]struct{}{
	AuditUserCreated:            {},
	AuditUserProfileCreated:     {},
	AuditRoleAssigned:           {},
	AuditOTPVerified:            {},
	AuditOTPResent:              {},
	AuditInviteCreated:          {},
	AuditInviteApproved:         {},
	AuditInviteAccepted:         {},
	AuditInviteRejected:         {},
	AuditPasswordResetRequested: {},
	AuditPasswordResetConfirmed: {},
	AuditLogin:                  {},
	AuditLogout:                 {},
	AuditLoginFailed:            {},
	AuditTicketCreated:          {},
	AuditTicketUpdated:          {},
	AuditTicketAssigned:         {},
	AuditTicketUnassigned:       {},
	AuditTicketAccepted:         {},
	AuditTicketResolved:         {},
	AuditTicketClosed:           {},
	AuditTicketReopened:         {},
	AuditTicketEscalated:        {},
}

// ValidAuditAction reports whether a is part of the closed vocabulary.
func ValidAuditAction(a AuditAction) bool {
	_, ok := auditActions[a]
	return ok
}

// HighSensitivityActions are retained for a shorter window than normal
// entries during retention cleanup.
func HighSensitivityActions() []AuditAction {
	return []AuditAction{
		AuditLoginFailed,
		AuditPasswordResetRequested,
		AuditPasswordResetConfirmed,
		AuditOTPVerified,
		AuditOTPResent,
	}
}

// AuditEntry is an append-only record of a state-changing action. Entries are
// never updated; deletion happens only through retention cleanup.
type AuditEntry struct {
	ID           string
	Action       AuditAction
	PerformedBy  *string
	TargetUser   *string
	TargetInvite *string
	TargetTicket *string
	Details      string
	CreatedAt    time.Time
}
