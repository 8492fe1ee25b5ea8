package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ayachi01/FixItWeb/internal/domain"
)

func newAuditFixture() (*AuditService, *fakeAuditRepo) {
	repo := &fakeAuditRepo{}
	svc := NewAuditService(AuditDependencies{
		AuditRepo:             repo,
		Logger:                zap.NewNop(),
		RetentionDays:         90,
		HighSensRetentionDays: 30,
	})
	return svc, repo
}

func TestRecordDropsUnknownActions(t *testing.T) {
	svc, repo := newAuditFixture()
	ctx := context.Background()

	svc.Record(ctx, domain.AuditEntry{Action: "Made Coffee"})
	svc.Record(ctx, domain.AuditEntry{Action: domain.AuditTicketCreated})

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	if repo.entries[0].Action != domain.AuditTicketCreated {
		t.Fatalf("action = %q, want Ticket Created", repo.entries[0].Action)
	}
}

func TestCleanupUsesDualRetentionWindows(t *testing.T) {
	svc, repo := newAuditFixture()
	now := time.Now()

	seed := func(action domain.AuditAction, age time.Duration) {
		repo.entries = append(repo.entries, domain.AuditEntry{
			Action:    action,
			CreatedAt: now.Add(-age),
		})
	}

	seed(domain.AuditTicketCreated, 100*24*time.Hour)  // past standard window
	seed(domain.AuditTicketCreated, 10*24*time.Hour)   // fresh
	seed(domain.AuditLoginFailed, 45*24*time.Hour)     // past high-sensitivity window
	seed(domain.AuditLoginFailed, 5*24*time.Hour)      // fresh
	seed(domain.AuditOTPVerified, 60*24*time.Hour)     // past high-sensitivity window
	seed(domain.AuditPasswordResetConfirmed, 89*24*time.Hour) // inside 90d but past 30d

	removed, err := svc.Cleanup(context.Background(), now)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 4 {
		t.Fatalf("removed = %d, want 4", removed)
	}

	for _, e := range repo.entries {
		switch e.Action {
		case domain.AuditTicketCreated:
			if now.Sub(e.CreatedAt) > 90*24*time.Hour {
				t.Fatal("standard entry past retention survived")
			}
		case domain.AuditLoginFailed:
			if now.Sub(e.CreatedAt) > 30*24*time.Hour {
				t.Fatal("high-sensitivity entry past retention survived")
			}
		}
	}
	if len(repo.entries) != 2 {
		t.Fatalf("surviving entries = %d, want 2", len(repo.entries))
	}
}
