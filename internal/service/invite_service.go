package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ayachi01/FixItWeb/internal/auth"
	"github.com/ayachi01/FixItWeb/internal/config"
	"github.com/ayachi01/FixItWeb/internal/domain"
	"github.com/ayachi01/FixItWeb/internal/events"
	"github.com/ayachi01/FixItWeb/internal/repository"
	"github.com/ayachi01/FixItWeb/internal/roles"
	apperrors "github.com/ayachi01/FixItWeb/pkg/util"
)

// InviteService manages the invite-based account creation flow for
// privileged roles.
type InviteService struct {
	invites    repository.InviteRepository
	users      repository.UserRepository
	registry   *roles.Registry
	dispatcher events.Dispatcher
	audit      *AuditService
	tx         repository.TxRunner
	bcryptCost int
	expiry     time.Duration
}

// InviteDependencies bundles requirements for the invite service.
type InviteDependencies struct {
	InviteRepo repository.InviteRepository
	UserRepo   repository.UserRepository
	Registry   *roles.Registry
	Dispatcher events.Dispatcher
	Audit      *AuditService
	Tx         repository.TxRunner
}

// NewInviteService builds the service.
func NewInviteService(cfg config.Config, deps InviteDependencies) *InviteService {
	return &InviteService{
		invites:    deps.InviteRepo,
		users:      deps.UserRepo,
		registry:   deps.Registry,
		dispatcher: deps.Dispatcher,
		audit:      deps.Audit,
		tx:         deps.Tx,
		bcryptCost: cfg.Auth.BcryptCost,
		expiry:     cfg.Accounts.InviteExpiry(),
	}
}

// CreateInvite issues a single-use invite for the email and role. At most
// one active invite may exist per email; an expired unused invite is
// superseded by the new one. Invites for sensitive roles require admin
// approval before they can be redeemed.
func (s *InviteService) CreateInvite(ctx context.Context, actor Actor, email, roleName string) (*domain.Invite, error) {
	if !actor.Bundle.CanManageUsers {
		return nil, apperrors.NewForbidden("user management permission required")
	}
	if domain.EmailDomain(email) == "" {
		return nil, apperrors.NewValidationError("invalid email address", nil)
	}
	if _, ok := s.registry.Get(roleName); !ok {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": roleName})
	}

	if _, err := s.users.GetAccountByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("account already exists for email", nil)
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	now := time.Now()
	if existing, err := s.invites.GetActiveByEmail(ctx, email); err == nil {
		if existing.Active(now) {
			return nil, apperrors.NewDuplicateActive("an active invite already exists for this email",
				map[string]any{"invite_id": existing.ID})
		}
		// Expired and never redeemed; the fresh invite replaces it.
		if err := s.invites.Delete(ctx, existing.ID); err != nil {
			return nil, err
		}
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	invite := &domain.Invite{
		Email:                 email,
		Token:                 auth.GenerateInviteToken(),
		RoleName:              roleName,
		CreatedBy:             actor.ID(),
		ExpiresAt:             now.Add(s.expiry),
		RequiresAdminApproval: s.registry.IsSensitive(roleName),
	}
	if err := s.invites.Create(ctx, invite); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, domain.AuditEntry{
		Action:       domain.AuditInviteCreated,
		PerformedBy:  actor.ID(),
		TargetInvite: &invite.ID,
		Details:      fmt.Sprintf("invite for %s as %s", email, roleName),
	})
	publishEvent(ctx, s.dispatcher, events.EventInviteCreated, actor.ID(), events.InvitePayload{
		InviteID: invite.ID,
		Email:    invite.Email,
		Role:     invite.RoleName,
		Token:    invite.Token,
	})
	return invite, nil
}

// ApproveInvite clears a sensitive-role invite for redemption. Only
// admin-level roles may approve.
func (s *InviteService) ApproveInvite(ctx context.Context, actor Actor, inviteID string) error {
	if !actor.Bundle.IsAdminLevel {
		return apperrors.NewForbidden("admin role required to approve invites")
	}

	err := s.invites.MarkApproved(ctx, inviteID, actor.AccountID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("invite", nil)
		}
		return err
	}

	s.audit.Record(ctx, domain.AuditEntry{
		Action:       domain.AuditInviteApproved,
		PerformedBy:  actor.ID(),
		TargetInvite: &inviteID,
	})
	publishEvent(ctx, s.dispatcher, events.EventInviteApproved, actor.ID(), events.InvitePayload{
		InviteID: inviteID,
	})
	return nil
}

// RedeemInput describes invite redemption payload.
type RedeemInput struct {
	FirstName       string
	LastName        string
	Password        string
	ConfirmPassword string
}

// RedeemInvite consumes the token and creates an active, verified account
// bound to the invite's role. Redemption runs in one transaction holding a
// row lock on the invite, so a token redeems exactly once under concurrent
// attempts.
func (s *InviteService) RedeemInvite(ctx context.Context, token string, input RedeemInput) (*domain.UserAccount, error) {
	if input.Password == "" || input.Password != input.ConfirmPassword {
		return nil, apperrors.NewValidationError("passwords do not match", nil)
	}
	if input.FirstName == "" || input.LastName == "" {
		return nil, apperrors.NewValidationError("first and last name are required", nil)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	var account *domain.UserAccount
	var invite *domain.Invite
	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		invites := s.invites.WithTx(tx)

		var err error
		invite, err = invites.GetByTokenForUpdate(ctx, token)
		if err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.NewNotFound("invite", nil)
			}
			return err
		}

		now := time.Now()
		switch {
		case invite.IsUsed:
			return apperrors.NewAlreadyUsed("invite already redeemed")
		case invite.Expired(now):
			return apperrors.NewExpired("invite expired")
		case invite.RequiresAdminApproval && !invite.IsApproved:
			return apperrors.NewForbidden("invite pending admin approval")
		}

		users := s.users.WithTx(tx)
		account = &domain.UserAccount{
			Email:        invite.Email,
			FirstName:    input.FirstName,
			LastName:     input.LastName,
			PasswordHash: hash,
			IsActive:     true,
		}
		if err := users.CreateAccount(ctx, account); err != nil {
			return err
		}

		roleName := invite.RoleName
		profile := &domain.UserProfile{
			AccountID:       account.ID,
			RoleName:        &roleName,
			EmailDomain:     domain.EmailDomain(invite.Email),
			IsEmailVerified: true,
			CreatedByAdmin:  true,
		}
		if err := users.CreateProfile(ctx, profile); err != nil {
			return err
		}

		return invites.MarkUsed(ctx, invite.ID)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, domain.AuditEntry{
		Action:       domain.AuditInviteAccepted,
		PerformedBy:  &account.ID,
		TargetInvite: &invite.ID,
		TargetUser:   &account.ID,
	})
	s.audit.Record(ctx, domain.AuditEntry{
		Action:     domain.AuditUserCreated,
		TargetUser: &account.ID,
		Details:    fmt.Sprintf("invite redemption for %s as %s", invite.Email, invite.RoleName),
	})
	publishEvent(ctx, s.dispatcher, events.EventInviteRedeemed, &account.ID, events.InvitePayload{
		InviteID: invite.ID,
		Email:    invite.Email,
		Role:     invite.RoleName,
	})
	return account, nil
}

// ListPendingApproval returns sensitive-role invites awaiting approval.
func (s *InviteService) ListPendingApproval(ctx context.Context, actor Actor, limit, offset int) ([]domain.Invite, error) {
	if !actor.Bundle.IsAdminLevel {
		return nil, apperrors.NewForbidden("admin role required")
	}
	return s.invites.ListPendingApproval(ctx, limit, offset)
}

// ListInvites returns recent invites for user managers.
func (s *InviteService) ListInvites(ctx context.Context, actor Actor, limit, offset int) ([]domain.Invite, error) {
	if !actor.Bundle.CanManageUsers {
		return nil, apperrors.NewForbidden("user management permission required")
	}
	return s.invites.List(ctx, limit, offset)
}
