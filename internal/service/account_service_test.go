package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/ayachi01/FixItWeb/internal/auth"
	"github.com/ayachi01/FixItWeb/internal/config"
	"github.com/ayachi01/FixItWeb/internal/domain"
	"github.com/ayachi01/FixItWeb/internal/events"
	"github.com/ayachi01/FixItWeb/internal/roles"
	apperrors "github.com/ayachi01/FixItWeb/pkg/util"
)

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4,
		},
		Accounts: config.AccountConfig{
			SelfServiceDomains:  []string{"student.pirmaed.com"},
			InviteExpiryHours:   24,
			OTPTTLMinutes:       5,
			ResetCodeTTLMinutes: 15,
			FallbackRole:        domain.RoleVisitor,
		},
		Escalation: config.EscalationConfig{
			UrgentSecondaryHours:   4,
			StandardSecondaryHours: 24,
			AdminHours:             48,
		},
	}
}

func testRegistry() *roles.Registry {
	return roles.NewRegistry(roles.SeedCatalog(), roles.SeedDomainMappings(), domain.RoleVisitor)
}

type accountFixture struct {
	svc        *AccountService
	users      *fakeUserRepo
	codes      *fakeCodeRepo
	audit      *fakeAuditRepo
	dispatcher *recordingDispatcher
}

func newAccountFixture() *accountFixture {
	users := newFakeUserRepo()
	codes := newFakeCodeRepo()
	auditRepo := &fakeAuditRepo{}
	dispatcher := &recordingDispatcher{}

	auditSvc := NewAuditService(AuditDependencies{
		AuditRepo:             auditRepo,
		Logger:                zap.NewNop(),
		RetentionDays:         90,
		HighSensRetentionDays: 30,
	})
	svc := NewAccountService(testConfig(), AccountDependencies{
		UserRepo:   users,
		CodeRepo:   codes,
		Registry:   testRegistry(),
		Dispatcher: dispatcher,
		Audit:      auditSvc,
		Tx:         fakeTx{},
	})
	return &accountFixture{svc: svc, users: users, codes: codes, audit: auditRepo, dispatcher: dispatcher}
}

func studentRegistration() RegisterInput {
	return RegisterInput{
		Email:           "juan@student.pirmaed.com",
		FirstName:       "Juan",
		LastName:        "Dela Cruz",
		Password:        "hunter2hunter2",
		ConfirmPassword: "hunter2hunter2",
		StudentID:       "21-1234-567890",
		CourseCode:      "BSCS",
		CourseName:      "Computer Science",
		YearLevel:       3,
	}
}

func issuedCode(t *testing.T, d *recordingDispatcher, kind string) string {
	t.Helper()
	for i := len(d.published) - 1; i >= 0; i-- {
		if payload, ok := d.published[i].Payload.(events.CodePayload); ok && payload.Kind == kind {
			return payload.RawCode
		}
	}
	t.Fatalf("no %s code issued", kind)
	return ""
}

func TestRegisterSelfServiceCreatesStudentAccount(t *testing.T) {
	f := newAccountFixture()

	account, err := f.svc.RegisterSelfService(context.Background(), studentRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if account.IsActive {
		t.Fatal("account must stay inactive until OTP verification")
	}

	profile, err := f.users.GetProfileByAccount(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Role() != domain.RoleStudent {
		t.Fatalf("role = %q, want Student", profile.Role())
	}
	if profile.IsEmailVerified {
		t.Fatal("profile must not be verified yet")
	}
	if _, err := f.users.GetStudentProfile(context.Background(), profile.ID); err != nil {
		t.Fatalf("student profile: %v", err)
	}
	if n := f.codes.activeVerificationCount(account.ID); n != 1 {
		t.Fatalf("active OTPs = %d, want 1", n)
	}

	got := f.audit.actions()
	want := []domain.AuditAction{domain.AuditUserCreated, domain.AuditUserProfileCreated}
	if len(got) != len(want) {
		t.Fatalf("audit actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("audit actions = %v, want %v", got, want)
		}
	}
}

func TestRegisterSelfServiceRejectsForeignDomain(t *testing.T) {
	f := newAccountFixture()

	input := studentRegistration()
	input.Email = "intruder@gmail.com"
	if _, err := f.svc.RegisterSelfService(context.Background(), input); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}
}

func TestRegisterSelfServiceRejectsBadStudentID(t *testing.T) {
	f := newAccountFixture()

	input := studentRegistration()
	input.StudentID = "21-1234"
	if _, err := f.svc.RegisterSelfService(context.Background(), input); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}
}

func TestRegisterSelfServiceRejectsDuplicateEmail(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	if _, err := f.svc.RegisterSelfService(ctx, studentRegistration()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := f.svc.RegisterSelfService(ctx, studentRegistration()); !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
}

func TestVerifyOTPActivatesAccount(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	account, err := f.svc.RegisterSelfService(ctx, studentRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	code := issuedCode(t, f.dispatcher, "otp")

	if err := f.svc.VerifyOTP(ctx, account.Email, code); err != nil {
		t.Fatalf("verify: %v", err)
	}

	refreshed, err := f.users.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if !refreshed.IsActive {
		t.Fatal("account must be active after verification")
	}
	profile, _ := f.users.GetProfileByAccount(ctx, account.ID)
	if !profile.IsEmailVerified {
		t.Fatal("profile must be verified")
	}

	// Second use of the same code fails.
	if err := f.svc.VerifyOTP(ctx, account.Email, code); !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("second verify err = %v, want CONFLICT", err)
	}
}

func TestVerifyOTPRejectsWrongCode(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	account, err := f.svc.RegisterSelfService(ctx, studentRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := f.svc.VerifyOTP(ctx, account.Email, "000000"); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}
}

func TestResendOTPInvalidatesPreviousCode(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	account, err := f.svc.RegisterSelfService(ctx, studentRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	first := issuedCode(t, f.dispatcher, "otp")

	if err := f.svc.ResendOTP(ctx, account.Email); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if n := f.codes.activeVerificationCount(account.ID); n != 1 {
		t.Fatalf("active OTPs = %d, want 1", n)
	}

	// Old code no longer works, the fresh one does.
	second := issuedCode(t, f.dispatcher, "otp")
	if first == second {
		t.Fatal("resend must issue a new code")
	}
	if err := f.svc.VerifyOTP(ctx, account.Email, first); err == nil {
		t.Fatal("stale OTP must be rejected")
	}
	if err := f.svc.VerifyOTP(ctx, account.Email, second); err != nil {
		t.Fatalf("fresh OTP: %v", err)
	}
}

func TestLoginAuditsOutcomes(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	account, err := f.svc.RegisterSelfService(ctx, studentRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := f.svc.VerifyOTP(ctx, account.Email, issuedCode(t, f.dispatcher, "otp")); err != nil {
		t.Fatalf("verify: %v", err)
	}

	if _, _, _, err := f.svc.Login(ctx, account.Email, "wrong-password"); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("err = %v, want UNAUTHORIZED", err)
	}
	_, token, _, err := f.svc.Login(ctx, account.Email, "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatal("login must return a token")
	}

	claims, err := auth.NewTokenManager("test-secret", 60).ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Role != domain.RoleStudent {
		t.Fatalf("token role = %q, want Student", claims.Role)
	}

	var failed, succeeded bool
	for _, action := range f.audit.actions() {
		switch action {
		case domain.AuditLoginFailed:
			failed = true
		case domain.AuditLogin:
			succeeded = true
		}
	}
	if !failed || !succeeded {
		t.Fatalf("audit must record both outcomes, got %v", f.audit.actions())
	}
}

func TestLoginRejectsUnverifiedAccount(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	account, err := f.svc.RegisterSelfService(ctx, studentRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, _, err := f.svc.Login(ctx, account.Email, "hunter2hunter2"); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("err = %v, want UNAUTHORIZED", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	account, err := f.svc.RegisterSelfService(ctx, studentRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := f.svc.VerifyOTP(ctx, account.Email, issuedCode(t, f.dispatcher, "otp")); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// A second request supersedes the first code atomically.
	if err := f.svc.RequestPasswordReset(ctx, account.Email); err != nil {
		t.Fatalf("first request: %v", err)
	}
	stale := issuedCode(t, f.dispatcher, "password_reset")
	if err := f.svc.RequestPasswordReset(ctx, account.Email); err != nil {
		t.Fatalf("second request: %v", err)
	}
	if n := f.codes.activeResetCount(account.ID); n != 1 {
		t.Fatalf("active reset codes = %d, want 1", n)
	}

	fresh := issuedCode(t, f.dispatcher, "password_reset")
	if err := f.svc.ConfirmPasswordReset(ctx, account.Email, stale, "newpassword1", "newpassword1"); err == nil {
		t.Fatal("stale reset code must be rejected")
	}
	if err := f.svc.ConfirmPasswordReset(ctx, account.Email, fresh, "newpassword1", "newpassword1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// Old password stops working, new one logs in.
	if _, _, _, err := f.svc.Login(ctx, account.Email, "hunter2hunter2"); err == nil {
		t.Fatal("old password must be rejected")
	}
	if _, _, _, err := f.svc.Login(ctx, account.Email, "newpassword1"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	// The consumed code cannot be replayed.
	if err := f.svc.ConfirmPasswordReset(ctx, account.Email, fresh, "another1", "another1"); err == nil {
		t.Fatal("used reset code must be rejected")
	}
}

func TestRequestPasswordResetHidesUnknownEmail(t *testing.T) {
	f := newAccountFixture()
	if err := f.svc.RequestPasswordReset(context.Background(), "ghost@student.pirmaed.com"); err != nil {
		t.Fatalf("unknown email must not error, got %v", err)
	}
}

func TestAssignRoleRequiresPermission(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	account, err := f.svc.RegisterSelfService(ctx, studentRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	student := Actor{AccountID: account.ID, Bundle: domain.PermissionBundle{CanReport: true}}
	if err := f.svc.AssignRole(ctx, student, account.ID, domain.RoleFaculty); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}

	admin := Actor{AccountID: "admin-1", Bundle: domain.PermissionBundle{CanManageUsers: true, IsAdminLevel: true}}
	if err := f.svc.AssignRole(ctx, admin, account.ID, "No Such Role"); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}
	if err := f.svc.AssignRole(ctx, admin, account.ID, domain.RoleFaculty); err != nil {
		t.Fatalf("assign: %v", err)
	}

	profile, _ := f.users.GetProfileByAccount(ctx, account.ID)
	if profile.Role() != domain.RoleFaculty {
		t.Fatalf("role = %q, want Faculty", profile.Role())
	}
}
