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

// AccountService coordinates self-service registration, verification, login,
// and password recovery.
type AccountService struct {
	users      repository.UserRepository
	codes      repository.CodeRepository
	registry   *roles.Registry
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	audit      *AuditService
	tx         repository.TxRunner
	bcryptCost int
	accounts   config.AccountConfig
}

// AccountDependencies bundles requirements for the account service.
type AccountDependencies struct {
	UserRepo   repository.UserRepository
	CodeRepo   repository.CodeRepository
	Registry   *roles.Registry
	Dispatcher events.Dispatcher
	Audit      *AuditService
	Tx         repository.TxRunner
}

// NewAccountService builds the service.
func NewAccountService(cfg config.Config, deps AccountDependencies) *AccountService {
	return &AccountService{
		users:      deps.UserRepo,
		codes:      deps.CodeRepo,
		registry:   deps.Registry,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		dispatcher: deps.Dispatcher,
		audit:      deps.Audit,
		tx:         deps.Tx,
		bcryptCost: cfg.Auth.BcryptCost,
		accounts:   cfg.Accounts,
	}
}

// TokenManager exposes the token manager for the auth middleware.
func (s *AccountService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// RegisterInput describes a self-service registration request.
type RegisterInput struct {
	Email           string
	FirstName       string
	LastName        string
	Password        string
	ConfirmPassword string
	StudentID       string
	CourseCode      string
	CourseName      string
	YearLevel       int
}

// RegisterSelfService creates an inactive account for an allowed email
// domain and issues a verification OTP. The role comes from the email domain
// mapping; student accounts additionally require academic details.
func (s *AccountService) RegisterSelfService(ctx context.Context, input RegisterInput) (*domain.UserAccount, error) {
	emailDomain := domain.EmailDomain(input.Email)
	if emailDomain == "" {
		return nil, apperrors.NewValidationError("invalid email address", nil)
	}
	if !s.accounts.AllowsDomain(emailDomain) {
		return nil, apperrors.NewValidationError("email domain not eligible for self-service registration",
			map[string]any{"domain": emailDomain})
	}
	if input.Password == "" || input.Password != input.ConfirmPassword {
		return nil, apperrors.NewValidationError("passwords do not match", nil)
	}
	if input.FirstName == "" || input.LastName == "" {
		return nil, apperrors.NewValidationError("first and last name are required", nil)
	}

	if _, err := s.users.GetAccountByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	roleName := s.registry.ResolveDomain(input.Email)
	if roleName == domain.RoleStudent {
		if !domain.ValidStudentID(input.StudentID) {
			return nil, apperrors.NewValidationError("student ID must match NN-NNNN-NNNNNN",
				map[string]any{"student_id": input.StudentID})
		}
		if input.CourseCode == "" || input.CourseName == "" || input.YearLevel <= 0 {
			return nil, apperrors.NewValidationError("course details are required for students", nil)
		}
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	rawCode, err := auth.GenerateNumericCode(auth.CodeDigits)
	if err != nil {
		return nil, err
	}
	codeHash, err := auth.HashPassword(rawCode, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	account := &domain.UserAccount{
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		IsActive:     false,
	}
	profile := &domain.UserProfile{
		RoleName:    &roleName,
		EmailDomain: emailDomain,
	}

	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		users := s.users.WithTx(tx)
		if err := users.CreateAccount(ctx, account); err != nil {
			return err
		}
		profile.AccountID = account.ID
		if err := users.CreateProfile(ctx, profile); err != nil {
			return err
		}
		if roleName == domain.RoleStudent {
			student := &domain.StudentProfile{
				ProfileID:  profile.ID,
				StudentID:  input.StudentID,
				CourseCode: input.CourseCode,
				CourseName: input.CourseName,
				YearLevel:  input.YearLevel,
			}
			if err := users.CreateStudentProfile(ctx, student); err != nil {
				return err
			}
		}
		return s.codes.WithTx(tx).CreateVerificationCode(ctx, &domain.VerificationCode{
			AccountID: account.ID,
			CodeHash:  codeHash,
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, domain.AuditEntry{
		Action:     domain.AuditUserCreated,
		TargetUser: &account.ID,
		Details:    fmt.Sprintf("self-service registration for %s", account.Email),
	})
	s.audit.Record(ctx, domain.AuditEntry{
		Action:     domain.AuditUserProfileCreated,
		TargetUser: &account.ID,
		Details:    fmt.Sprintf("role %s from domain %s", roleName, emailDomain),
	})

	publishEvent(ctx, s.dispatcher, events.EventAccountRegistered, nil, events.AccountPayload{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      roleName,
	})
	publishEvent(ctx, s.dispatcher, events.EventOTPIssued, nil, events.CodePayload{
		AccountID: account.ID,
		Email:     account.Email,
		RawCode:   rawCode,
		Kind:      "otp",
	})
	return account, nil
}

// VerifyOTP activates an account from a pending registration. The code is
// single use and expires on a short window.
func (s *AccountService) VerifyOTP(ctx context.Context, email, code string) error {
	account, err := s.users.GetAccountByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("account", nil)
		}
		return err
	}
	if account.IsActive {
		return apperrors.NewConflict("account already verified", nil)
	}

	stored, err := s.codes.GetActiveVerificationCode(ctx, account.ID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("verification code", nil)
		}
		return err
	}
	if stored.ExpiredAfter(s.accounts.OTPTTL(), time.Now()) {
		return apperrors.NewExpired("verification code expired")
	}
	if err := auth.ComparePassword(stored.CodeHash, code); err != nil {
		return apperrors.NewValidationError("invalid verification code", nil)
	}

	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.codes.WithTx(tx).MarkVerificationCodeUsed(ctx, stored.ID); err != nil {
			return err
		}
		users := s.users.WithTx(tx)
		account.IsActive = true
		if err := users.UpdateAccount(ctx, account); err != nil {
			return err
		}
		profile, err := users.GetProfileByAccount(ctx, account.ID)
		if err != nil {
			return err
		}
		profile.IsEmailVerified = true
		return users.UpdateProfile(ctx, profile)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, domain.AuditEntry{
		Action:     domain.AuditOTPVerified,
		TargetUser: &account.ID,
	})
	publishEvent(ctx, s.dispatcher, events.EventAccountVerified, nil, events.AccountPayload{
		AccountID: account.ID,
		Email:     account.Email,
	})
	return nil
}

// ResendOTP invalidates any outstanding verification code and issues a fresh
// one atomically, so at most one code is live per account.
func (s *AccountService) ResendOTP(ctx context.Context, email string) error {
	account, err := s.users.GetAccountByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("account", nil)
		}
		return err
	}
	if account.IsActive {
		return apperrors.NewConflict("account already verified", nil)
	}

	rawCode, err := auth.GenerateNumericCode(auth.CodeDigits)
	if err != nil {
		return err
	}
	codeHash, err := auth.HashPassword(rawCode, s.bcryptCost)
	if err != nil {
		return err
	}

	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		codes := s.codes.WithTx(tx)
		if err := codes.InvalidateVerificationCodes(ctx, account.ID); err != nil {
			return err
		}
		return codes.CreateVerificationCode(ctx, &domain.VerificationCode{
			AccountID: account.ID,
			CodeHash:  codeHash,
		})
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, domain.AuditEntry{
		Action:     domain.AuditOTPResent,
		TargetUser: &account.ID,
	})
	publishEvent(ctx, s.dispatcher, events.EventOTPIssued, nil, events.CodePayload{
		AccountID: account.ID,
		Email:     account.Email,
		RawCode:   rawCode,
		Kind:      "otp",
	})
	return nil
}

// Login authenticates an account and returns a signed token. Failed attempts
// are audited with the account when it exists.
func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.UserAccount, string, time.Time, error) {
	account, err := s.users.GetAccountByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			s.audit.Record(ctx, domain.AuditEntry{
				Action:  domain.AuditLoginFailed,
				Details: fmt.Sprintf("unknown email %s", email),
			})
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		s.audit.Record(ctx, domain.AuditEntry{
			Action:     domain.AuditLoginFailed,
			TargetUser: &account.ID,
		})
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if !account.IsActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account not verified")
	}

	profile, err := s.users.GetProfileByAccount(ctx, account.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(account.ID, profile.Role())
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.audit.Record(ctx, domain.AuditEntry{
		Action:      domain.AuditLogin,
		PerformedBy: &account.ID,
		TargetUser:  &account.ID,
	})
	return account, token, exp, nil
}

// Logout records the logout for the audit trail. Tokens are stateless and
// expire on their own.
func (s *AccountService) Logout(ctx context.Context, actor Actor) error {
	s.audit.Record(ctx, domain.AuditEntry{
		Action:      domain.AuditLogout,
		PerformedBy: actor.ID(),
		TargetUser:  actor.ID(),
	})
	return nil
}

// RequestPasswordReset issues a reset code, invalidating all prior unused
// codes in the same transaction. Unknown emails return success so the
// endpoint does not leak which addresses exist.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.users.GetAccountByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil
		}
		return err
	}

	rawCode, err := auth.GenerateNumericCode(auth.CodeDigits)
	if err != nil {
		return err
	}
	codeHash, err := auth.HashPassword(rawCode, s.bcryptCost)
	if err != nil {
		return err
	}

	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		codes := s.codes.WithTx(tx)
		if err := codes.InvalidateResetCodes(ctx, account.ID); err != nil {
			return err
		}
		return codes.CreateResetCode(ctx, &domain.PasswordResetCode{
			AccountID: account.ID,
			CodeHash:  codeHash,
		})
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, domain.AuditEntry{
		Action:     domain.AuditPasswordResetRequested,
		TargetUser: &account.ID,
	})
	publishEvent(ctx, s.dispatcher, events.EventResetCodeIssued, nil, events.CodePayload{
		AccountID: account.ID,
		Email:     account.Email,
		RawCode:   rawCode,
		Kind:      "password_reset",
	})
	return nil
}

// ConfirmPasswordReset validates the code and sets the new password. The
// code is consumed whether or not a later attempt retries it.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, email, code, newPassword, confirmPassword string) error {
	if newPassword == "" || newPassword != confirmPassword {
		return apperrors.NewValidationError("passwords do not match", nil)
	}

	account, err := s.users.GetAccountByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("account", nil)
		}
		return err
	}

	stored, err := s.codes.GetActiveResetCode(ctx, account.ID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("reset code", nil)
		}
		return err
	}
	if stored.ExpiredAfter(s.accounts.ResetCodeTTL(), time.Now()) {
		return apperrors.NewExpired("reset code expired")
	}
	if err := auth.ComparePassword(stored.CodeHash, code); err != nil {
		return apperrors.NewValidationError("invalid reset code", nil)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.codes.WithTx(tx).MarkResetCodeUsed(ctx, stored.ID); err != nil {
			return err
		}
		account.PasswordHash = hash
		return s.users.WithTx(tx).UpdateAccount(ctx, account)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, domain.AuditEntry{
		Action:     domain.AuditPasswordResetConfirmed,
		TargetUser: &account.ID,
	})
	return nil
}

// AssignRole rebinds an account's role. Caller must hold user management
// permission.
func (s *AccountService) AssignRole(ctx context.Context, actor Actor, accountID, roleName string) error {
	if !actor.Bundle.CanManageUsers {
		return apperrors.NewForbidden("user management permission required")
	}
	if _, ok := s.registry.Get(roleName); !ok {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": roleName})
	}

	profile, err := s.users.GetProfileByAccount(ctx, accountID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("profile", nil)
		}
		return err
	}
	profile.RoleName = &roleName
	if err := s.users.UpdateProfile(ctx, profile); err != nil {
		return err
	}

	s.audit.Record(ctx, domain.AuditEntry{
		Action:      domain.AuditRoleAssigned,
		PerformedBy: actor.ID(),
		TargetUser:  &accountID,
		Details:     fmt.Sprintf("role set to %s", roleName),
	})
	return nil
}

// GetAccount fetches an account with its profile.
func (s *AccountService) GetAccount(ctx context.Context, accountID string) (*domain.UserAccount, *domain.UserProfile, error) {
	account, err := s.users.GetAccountByID(ctx, accountID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, apperrors.NewNotFound("account", nil)
		}
		return nil, nil, err
	}
	profile, err := s.users.GetProfileByAccount(ctx, accountID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, apperrors.NewNotFound("profile", nil)
		}
		return nil, nil, err
	}
	return account, profile, nil
}
