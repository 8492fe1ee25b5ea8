package service

import "github.com/ayachi01/FixItWeb/internal/domain"

// Actor identifies the caller of a service operation with permissions already
// resolved by the auth middleware.
type Actor struct {
	AccountID string
	ProfileID string
	Role      string
	Bundle    domain.PermissionBundle
}

// ID returns a pointer to the actor's account ID for nullable audit and
// event fields. System actors (the escalation sweep) have no account.
func (a Actor) ID() *string {
	if a.AccountID == "" {
		return nil
	}
	id := a.AccountID
	return &id
}

// SystemActor is used by background jobs acting without a user.
var SystemActor = Actor{}
