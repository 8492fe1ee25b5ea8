package domain

import (
	"testing"
	"time"
)

func TestEmailDomain(t *testing.T) {
	cases := map[string]string{
		"jane@student.university.edu": "student.university.edu",
		"ADMIN@ADMIN.UNIVERSITY.EDU":  "admin.university.edu",
		"no-at-sign":                  "",
	}
	for email, want := range cases {
		if got := EmailDomain(email); got != want {
			t.Errorf("EmailDomain(%q) = %q, want %q", email, got, want)
		}
	}
}

func TestValidStudentID(t *testing.T) {
	if !ValidStudentID("09-3456-348946") {
		t.Fatalf("well-formed student ID rejected")
	}
	for _, bad := range []string{"093456348946", "9-3456-348946", "09-3456-34894", "ab-cdef-ghijkl"} {
		if ValidStudentID(bad) {
			t.Errorf("ValidStudentID(%q) = true, want false", bad)
		}
	}
}

func TestInviteUsable(t *testing.T) {
	now := time.Now()
	base := Invite{ExpiresAt: now.Add(time.Hour)}

	if !base.Usable(now) {
		t.Fatalf("fresh invite should be usable")
	}

	used := base
	used.IsUsed = true
	if used.Usable(now) {
		t.Fatalf("used invite must not be usable")
	}

	expired := base
	expired.ExpiresAt = now.Add(-time.Minute)
	if expired.Usable(now) {
		t.Fatalf("expired invite must not be usable")
	}
	if expired.Active(now) {
		t.Fatalf("expired invite must not count as active")
	}

	pending := base
	pending.RequiresAdminApproval = true
	if pending.Usable(now) {
		t.Fatalf("unapproved sensitive invite must not be usable")
	}
	pending.IsApproved = true
	if !pending.Usable(now) {
		t.Fatalf("approved sensitive invite should be usable")
	}
}

func TestResetCodeExpiry(t *testing.T) {
	now := time.Now()
	code := PasswordResetCode{CreatedAt: now.Add(-16 * time.Minute)}
	if !code.ExpiredAfter(15*time.Minute, now) {
		t.Fatalf("16 minute old code should be expired at 15m TTL")
	}
	code.CreatedAt = now.Add(-14 * time.Minute)
	if code.ExpiredAfter(15*time.Minute, now) {
		t.Fatalf("14 minute old code should still be valid")
	}
}

func TestPermissionBundle(t *testing.T) {
	fixer := PermissionBundle{
		CanFix:            true,
		AllowedCategories: []Category{CategoryPlumbing, CategoryElectrical},
	}
	if !fixer.Allows(CategoryPlumbing) {
		t.Fatalf("fixer should be allowed Plumbing")
	}
	if fixer.Allows(CategoryCleaning) {
		t.Fatalf("fixer should not be allowed Cleaning")
	}
	if !fixer.RequiresProof() {
		t.Fatalf("every fixer role requires proof")
	}

	admin := PermissionBundle{IsAdminLevel: true}
	if !admin.CanCloseTickets() {
		t.Fatalf("admin-level role should close tickets")
	}
	if (PermissionBundle{}).CanCloseTickets() {
		t.Fatalf("baseline role must not close tickets")
	}
}

func TestValidAuditAction(t *testing.T) {
	if !ValidAuditAction(AuditTicketEscalated) {
		t.Fatalf("known action rejected")
	}
	if ValidAuditAction(AuditAction("Ticket Exploded")) {
		t.Fatalf("unknown action accepted")
	}
}
