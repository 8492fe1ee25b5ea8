package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ayachi01/FixItWeb/internal/domain"
	"github.com/ayachi01/FixItWeb/internal/repository"
)

// AuditService records state-changing actions. Recording is fail-safe: a
// failed or invalid audit write never fails the operation that produced it.
type AuditService struct {
	entries               repository.AuditRepository
	log                   *zap.Logger
	retentionDays         int
	highSensRetentionDays int
}

// AuditDependencies bundles requirements for the audit service.
type AuditDependencies struct {
	AuditRepo             repository.AuditRepository
	Logger                *zap.Logger
	RetentionDays         int
	HighSensRetentionDays int
}

// NewAuditService builds the service.
func NewAuditService(deps AuditDependencies) *AuditService {
	return &AuditService{
		entries:               deps.AuditRepo,
		log:                   deps.Logger,
		retentionDays:         deps.RetentionDays,
		highSensRetentionDays: deps.HighSensRetentionDays,
	}
}

// Record appends an audit entry. Actions outside the known vocabulary are
// dropped silently; persistence failures are logged and swallowed.
func (s *AuditService) Record(ctx context.Context, entry domain.AuditEntry) {
	if !domain.ValidAuditAction(entry.Action) {
		s.log.Debug("dropping unknown audit action", zap.String("action", string(entry.Action)))
		return
	}
	if err := s.entries.Insert(ctx, &entry); err != nil {
		s.log.Warn("audit write failed",
			zap.String("action", string(entry.Action)),
			zap.Error(err))
	}
}

// List returns audit entries matching the filter.
func (s *AuditService) List(ctx context.Context, filter repository.AuditFilter) ([]domain.AuditEntry, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.entries.List(ctx, filter)
}

// Cleanup enforces the two retention windows: high-sensitivity actions age
// out on the shorter window, everything else on the standard one.
func (s *AuditService) Cleanup(ctx context.Context, now time.Time) (int64, error) {
	highSens := domain.HighSensitivityActions()

	standardCutoff := now.AddDate(0, 0, -s.retentionDays)
	removed, err := s.entries.DeleteOlderThan(ctx, standardCutoff, highSens)
	if err != nil {
		return removed, err
	}

	sensCutoff := now.AddDate(0, 0, -s.highSensRetentionDays)
	sensRemoved, err := s.entries.DeleteOlderThanForActions(ctx, sensCutoff, highSens)
	return removed + sensRemoved, err
}
