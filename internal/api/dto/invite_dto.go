package dto

import (
	"time"

	"github.com/ayachi01/FixItWeb/internal/domain"
)

// InviteCreateRequest payload for issuing an invite.
type InviteCreateRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// InviteRedeemRequest payload for redeeming an invite token.
type InviteRedeemRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// InviteResponse is the public invite representation. The token is only
// included on creation.
type InviteResponse struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	Token            string    `json:"token,omitempty"`
	ExpiresAt        time.Time `json:"expires_at"`
	RequiresApproval bool      `json:"requires_approval"`
	Approved         bool      `json:"approved"`
	Used             bool      `json:"used"`
}

// NewInviteResponse maps an invite; includeToken controls token exposure.
func NewInviteResponse(inv *domain.Invite, includeToken bool) InviteResponse {
	resp := InviteResponse{
		ID:               inv.ID,
		Email:            inv.Email,
		Role:             inv.RoleName,
		ExpiresAt:        inv.ExpiresAt,
		RequiresApproval: inv.RequiresAdminApproval,
		Approved:         inv.IsApproved,
		Used:             inv.IsUsed,
	}
	if includeToken {
		resp.Token = inv.Token
	}
	return resp
}
