package domain

import "time"

// PasswordResetCode is a hashed 6-digit one-time code. Only one active
// (unused) code exists per account; issuing a new one invalidates all
// previous unused codes atomically.
type PasswordResetCode struct {
	ID        string
	AccountID string
	CodeHash  string
	CreatedAt time.Time
	IsUsed    bool
}

// ExpiredAfter reports whether the code is past its window at now.
func (c *PasswordResetCode) ExpiredAfter(ttl time.Duration, now time.Time) bool {
	return c.CreatedAt.Add(ttl).Before(now)
}

// VerificationCode is the hashed OTP issued during self-service registration.
// Single use; the account stays inactive until it is verified.
type VerificationCode struct {
	ID        string
	AccountID string
	CodeHash  string
	CreatedAt time.Time
	IsUsed    bool
}

// ExpiredAfter reports whether the OTP is past its window at now.
func (c *VerificationCode) ExpiredAfter(ttl time.Duration, now time.Time) bool {
	return c.CreatedAt.Add(ttl).Before(now)
}
