package domain

import "time"

// Invite is a single-use, time-bounded token that authorizes creation of a
// privileged account outside the self-service flow. At most one active
// (unused, unexpired) invite may exist per email.
type Invite struct {
	ID                    string
	Email                 string
	Token                 string
	RoleName              string
	CreatedBy             *string
	CreatedAt             time.Time
	ExpiresAt             time.Time
	IsUsed                bool
	RequiresAdminApproval bool
	IsApproved            bool
	ApprovedBy            *string
	ApprovedAt            *time.Time
}

// Expired reports whether the invite is past its expiry at the given time.
func (i *Invite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Active reports whether the invite still blocks new invites for its email.
func (i *Invite) Active(now time.Time) bool {
	return !i.IsUsed && !i.Expired(now)
}

// Usable reports whether the invite can be redeemed: not used, not expired,
// and approved when approval is required.
func (i *Invite) Usable(now time.Time) bool {
	if i.IsUsed || i.Expired(now) {
		return false
	}
	if i.RequiresAdminApproval && !i.IsApproved {
		return false
	}
	return true
}
