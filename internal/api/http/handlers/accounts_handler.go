package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ayachi01/FixItWeb/internal/api/dto"
	"github.com/ayachi01/FixItWeb/internal/domain"
	"github.com/ayachi01/FixItWeb/internal/service"
)

// AccountsHandler exposes registration, verification, and auth endpoints.
type AccountsHandler struct {
	accounts *service.AccountService
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(accounts *service.AccountService) *AccountsHandler {
	return &AccountsHandler{accounts: accounts}
}

func accountResponse(account *domain.UserAccount, profile *domain.UserProfile) dto.AccountResponse {
	resp := dto.AccountResponse{
		ID:        account.ID,
		Email:     account.Email,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Active:    account.IsActive,
	}
	if profile != nil {
		resp.Role = profile.Role()
		resp.Verified = profile.IsEmailVerified
	}
	return resp
}

// Register handles POST /auth/register.
func (h *AccountsHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	account, err := h.accounts.RegisterSelfService(c.Context(), service.RegisterInput{
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		StudentID:       req.StudentID,
		CourseCode:      req.CourseCode,
		CourseName:      req.CourseName,
		YearLevel:       req.YearLevel,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"account": accountResponse(account, nil),
			"message": "verification code sent",
		},
	})
}

// VerifyOTP handles POST /auth/verify.
func (h *AccountsHandler) VerifyOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Code == "" {
		return fiber.NewError(http.StatusBadRequest, "email and code required")
	}

	if err := h.accounts.VerifyOTP(c.Context(), req.Email, req.Code); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "account verified"}})
}

// ResendOTP handles POST /auth/verify/resend.
func (h *AccountsHandler) ResendOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}

	if err := h.accounts.ResendOTP(c.Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "verification code sent"}})
}

// Login handles POST /auth/login.
func (h *AccountsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	account, token, exp, err := h.accounts.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"account": accountResponse(account, nil),
			"auth":    dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Logout handles POST /auth/logout.
func (h *AccountsHandler) Logout(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.accounts.Logout(c.Context(), actor); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "logged out"}})
}

// RequestPasswordReset handles POST /auth/password/reset/request.
func (h *AccountsHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}

	if err := h.accounts.RequestPasswordReset(c.Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "reset code sent if the account exists"}})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AccountsHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirm
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Code == "" {
		return fiber.NewError(http.StatusBadRequest, "email and code required")
	}

	if err := h.accounts.ConfirmPasswordReset(c.Context(), req.Email, req.Code, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "password updated"}})
}

// Me handles GET /accounts/me.
func (h *AccountsHandler) Me(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	account, profile, err := h.accounts.GetAccount(c.Context(), actor.AccountID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"account": accountResponse(account, profile)}})
}

// AssignRole handles PUT /accounts/:id/role.
func (h *AccountsHandler) AssignRole(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Role == "" {
		return fiber.NewError(http.StatusBadRequest, "role required")
	}

	if err := h.accounts.AssignRole(c.Context(), actor, c.Params("id"), req.Role); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "role updated"}})
}
