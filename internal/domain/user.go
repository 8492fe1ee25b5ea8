package domain

import (
	"regexp"
	"strings"
	"time"
)

// UserAccount is the login identity. Email is the login key and unique.
type UserAccount struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserProfile carries the role binding and verification state for an account.
// RoleName is nil only before the first save; profile creation derives it
// from the email domain when not set explicitly.
type UserProfile struct {
	ID              string
	AccountID       string
	RoleName        *string
	EmailDomain     string
	IsEmailVerified bool
	CreatedByAdmin  bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Role returns the bound role name, empty when unassigned.
func (p *UserProfile) Role() string {
	if p.RoleName == nil {
		return ""
	}
	return *p.RoleName
}

// EmailDomain extracts the lowercase domain part of an email address.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

var studentIDPattern = regexp.MustCompile(`^\d{2}-\d{4}-\d{6}$`)

// ValidStudentID reports whether id matches the NN-NNNN-NNNNNN format.
func ValidStudentID(id string) bool {
	return studentIDPattern.MatchString(id)
}

// StudentProfile extends a UserProfile with academic metadata. Created only
// for accounts holding the Student role.
type StudentProfile struct {
	ID         string
	ProfileID  string
	StudentID  string
	CourseCode string
	CourseName string
	YearLevel  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
