package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/ayachi01/FixItWeb/internal/domain"
	"github.com/ayachi01/FixItWeb/internal/repository"
	"github.com/ayachi01/FixItWeb/internal/roles"
	apperrors "github.com/ayachi01/FixItWeb/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller with permissions resolved
// from the current profile, not from the token.
type Principal struct {
	Account *domain.UserAccount
	Profile *domain.UserProfile
	Bundle  domain.PermissionBundle
}

// Role returns the principal's role name.
func (p *Principal) Role() string {
	if p.Profile == nil {
		return ""
	}
	return p.Profile.Role()
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	users    repository.UserRepository
	registry *roles.Registry
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, registry *roles.Registry) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, registry: registry}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	account, err := m.users.GetAccountByID(c.Context(), claims.AccountID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("account not found")
		}
		return apperrors.MapError(err)
	}
	if !account.IsActive {
		return apperrors.NewUnauthorized("account inactive")
	}

	profile, err := m.users.GetProfileByAccount(c.Context(), account.ID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("profile not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{
		Account: account,
		Profile: profile,
		Bundle:  m.registry.PermissionsForProfile(profile),
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
