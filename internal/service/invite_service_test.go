package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ayachi01/FixItWeb/internal/domain"
	apperrors "github.com/ayachi01/FixItWeb/pkg/util"
)

type inviteFixture struct {
	svc     *InviteService
	invites *fakeInviteRepo
	users   *fakeUserRepo
	audit   *fakeAuditRepo
}

func newInviteFixture() *inviteFixture {
	invites := newFakeInviteRepo()
	users := newFakeUserRepo()
	auditRepo := &fakeAuditRepo{}

	auditSvc := NewAuditService(AuditDependencies{
		AuditRepo:             auditRepo,
		Logger:                zap.NewNop(),
		RetentionDays:         90,
		HighSensRetentionDays: 30,
	})
	svc := NewInviteService(testConfig(), InviteDependencies{
		InviteRepo: invites,
		UserRepo:   users,
		Registry:   testRegistry(),
		Dispatcher: &recordingDispatcher{},
		Audit:      auditSvc,
		Tx:         fakeTx{},
	})
	return &inviteFixture{svc: svc, invites: invites, users: users, audit: auditRepo}
}

var registrarActor = Actor{
	AccountID: "registrar-1",
	Role:      domain.RoleRegistrar,
	Bundle:    domain.PermissionBundle{CanReport: true, CanManageUsers: true, IsAdminLevel: true},
}

func redemption() RedeemInput {
	return RedeemInput{
		FirstName:       "Maria",
		LastName:        "Santos",
		Password:        "sturdy-password",
		ConfirmPassword: "sturdy-password",
	}
}

func TestCreateInviteRejectsSecondActive(t *testing.T) {
	f := newInviteFixture()
	ctx := context.Background()

	if _, err := f.svc.CreateInvite(ctx, registrarActor, "maria@pirmaed.com", domain.RoleFaculty); err != nil {
		t.Fatalf("first invite: %v", err)
	}
	_, err := f.svc.CreateInvite(ctx, registrarActor, "maria@pirmaed.com", domain.RoleFaculty)
	if !apperrors.IsCode(err, "DUPLICATE_ACTIVE") {
		t.Fatalf("err = %v, want DUPLICATE_ACTIVE", err)
	}
}

func TestCreateInviteSupersedesExpired(t *testing.T) {
	f := newInviteFixture()
	ctx := context.Background()

	first, err := f.svc.CreateInvite(ctx, registrarActor, "maria@pirmaed.com", domain.RoleFaculty)
	if err != nil {
		t.Fatalf("first invite: %v", err)
	}
	f.invites.invites[first.ID].ExpiresAt = time.Now().Add(-time.Hour)

	second, err := f.svc.CreateInvite(ctx, registrarActor, "maria@pirmaed.com", domain.RoleFaculty)
	if err != nil {
		t.Fatalf("superseding invite: %v", err)
	}
	if _, ok := f.invites.invites[first.ID]; ok {
		t.Fatal("expired invite must be removed")
	}
	if _, ok := f.invites.invites[second.ID]; !ok {
		t.Fatal("fresh invite must exist")
	}
}

func TestCreateInviteRejectsExistingAccount(t *testing.T) {
	f := newInviteFixture()
	ctx := context.Background()

	account := &domain.UserAccount{Email: "maria@pirmaed.com"}
	if err := f.users.CreateAccount(ctx, account); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	_, err := f.svc.CreateInvite(ctx, registrarActor, "maria@pirmaed.com", domain.RoleFaculty)
	if !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
}

func TestCreateInviteRequiresUserManagement(t *testing.T) {
	f := newInviteFixture()

	fixer := Actor{AccountID: "fixer-1", Bundle: domain.PermissionBundle{CanReport: true, CanFix: true}}
	_, err := f.svc.CreateInvite(context.Background(), fixer, "maria@pirmaed.com", domain.RoleFaculty)
	if !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}
}

func TestRedeemInviteIsExactlyOnce(t *testing.T) {
	f := newInviteFixture()
	ctx := context.Background()

	invite, err := f.svc.CreateInvite(ctx, registrarActor, "maria@pirmaed.com", domain.RoleFaculty)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	account, err := f.svc.RedeemInvite(ctx, invite.Token, redemption())
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if !account.IsActive {
		t.Fatal("redeemed account must be active")
	}

	profile, err := f.users.GetProfileByAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Role() != domain.RoleFaculty {
		t.Fatalf("role = %q, want Faculty", profile.Role())
	}
	if !profile.IsEmailVerified || !profile.CreatedByAdmin {
		t.Fatal("redeemed profile must be verified and admin-created")
	}

	if _, err := f.svc.RedeemInvite(ctx, invite.Token, redemption()); !apperrors.IsCode(err, "ALREADY_USED") {
		t.Fatalf("second redeem err = %v, want ALREADY_USED", err)
	}
}

func TestRedeemInviteRejectsExpired(t *testing.T) {
	f := newInviteFixture()
	ctx := context.Background()

	invite, err := f.svc.CreateInvite(ctx, registrarActor, "maria@pirmaed.com", domain.RoleFaculty)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	f.invites.invites[invite.ID].ExpiresAt = time.Now().Add(-time.Minute)

	if _, err := f.svc.RedeemInvite(ctx, invite.Token, redemption()); !apperrors.IsCode(err, "EXPIRED") {
		t.Fatalf("err = %v, want EXPIRED", err)
	}
}

func TestSensitiveInviteNeedsApproval(t *testing.T) {
	f := newInviteFixture()
	ctx := context.Background()

	invite, err := f.svc.CreateInvite(ctx, registrarActor, "guard@pirmaed.com", domain.RoleSecurityGuard)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if !invite.RequiresAdminApproval {
		t.Fatal("security guard invites must require approval")
	}

	if _, err := f.svc.RedeemInvite(ctx, invite.Token, redemption()); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("unapproved redeem err = %v, want FORBIDDEN", err)
	}

	pending, err := f.svc.ListPendingApproval(ctx, registrarActor, 10, 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}

	nonAdmin := Actor{AccountID: "officer-1", Bundle: domain.PermissionBundle{CanAssign: true}}
	if err := f.svc.ApproveInvite(ctx, nonAdmin, invite.ID); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("non-admin approve err = %v, want FORBIDDEN", err)
	}

	if err := f.svc.ApproveInvite(ctx, registrarActor, invite.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := f.svc.RedeemInvite(ctx, invite.Token, redemption()); err != nil {
		t.Fatalf("redeem after approval: %v", err)
	}
}

func TestFacultyInviteSkipsApproval(t *testing.T) {
	f := newInviteFixture()

	invite, err := f.svc.CreateInvite(context.Background(), registrarActor, "prof@pirmaed.com", domain.RoleFaculty)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if invite.RequiresAdminApproval {
		t.Fatal("faculty invites must not require approval")
	}
}

func TestListInvitesRequiresUserManagement(t *testing.T) {
	f := newInviteFixture()
	ctx := context.Background()

	if _, err := f.svc.CreateInvite(ctx, registrarActor, "prof@pirmaed.com", domain.RoleFaculty); err != nil {
		t.Fatalf("invite: %v", err)
	}

	student := Actor{AccountID: "student-1", Role: domain.RoleStudent, Bundle: domain.PermissionBundle{CanReport: true}}
	if _, err := f.svc.ListInvites(ctx, student, 20, 0); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}

	invites, err := f.svc.ListInvites(ctx, registrarActor, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(invites) != 1 {
		t.Fatalf("expected 1 invite, got %d", len(invites))
	}
}
