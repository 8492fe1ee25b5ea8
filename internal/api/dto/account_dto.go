package dto

import "time"

// RegisterRequest payload for self-service registration.
type RegisterRequest struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	StudentID       string `json:"student_id,omitempty"`
	CourseCode      string `json:"course_code,omitempty"`
	CourseName      string `json:"course_name,omitempty"`
	YearLevel       int    `json:"year_level,omitempty"`
}

// VerifyOTPRequest payload for OTP verification and resend.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code,omitempty"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PasswordResetRequest payload to request a reset code.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirm payload to consume a reset code.
type PasswordResetConfirm struct {
	Email           string `json:"email"`
	Code            string `json:"code"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// AssignRoleRequest payload to rebind an account's role.
type AssignRoleRequest struct {
	Role string `json:"role"`
}

// AccountResponse is the public account representation.
type AccountResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role,omitempty"`
	Verified  bool   `json:"verified"`
	Active    bool   `json:"active"`
}
