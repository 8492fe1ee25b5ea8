package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ayachi01/FixItWeb/internal/domain"
)

// AuditFilter narrows audit listings. Zero values mean no constraint.
type AuditFilter struct {
	Action      domain.AuditAction
	PerformedBy string
	TargetUser  string
	Since       time.Time
	Limit       int
	Offset      int
}

type AuditRepository interface {
	WithTx(tx pgx.Tx) AuditRepository
	Insert(ctx context.Context, entry *domain.AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time, excluding []domain.AuditAction) (int64, error)
	DeleteOlderThanForActions(ctx context.Context, cutoff time.Time, actions []domain.AuditAction) (int64, error)
}

type auditRepository struct {
	q Querier
}

func NewAuditRepository(q Querier) AuditRepository {
	return &auditRepository{q: q}
}

func (r *auditRepository) WithTx(tx pgx.Tx) AuditRepository {
	return &auditRepository{q: tx}
}

const auditColumns = `id, action, performed_by, target_user, target_invite, target_ticket, details, created_at`

func (r *auditRepository) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	const query = `
        INSERT INTO audit_entries (action, performed_by, target_user, target_invite, target_ticket, details)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		entry.Action,
		entry.PerformedBy,
		entry.TargetUser,
		entry.TargetInvite,
		entry.TargetTicket,
		entry.Details,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_entries WHERE 1=1`
	args := []any{}
	idx := 1

	appendArg := func(clause string, value any) {
		query += ` AND ` + clause + `$` + strconv.Itoa(idx)
		args = append(args, value)
		idx++
	}

	if filter.Action != "" {
		appendArg("action=", filter.Action)
	}
	if filter.PerformedBy != "" {
		appendArg("performed_by=", filter.PerformedBy)
	}
	if filter.TargetUser != "" {
		appendArg("target_user=", filter.TargetUser)
	}
	if !filter.Since.IsZero() {
		appendArg("created_at >= ", filter.Since)
	}

	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT $` + strconv.Itoa(idx)
		args = append(args, filter.Limit)
		idx++
	}
	if filter.Offset > 0 {
		query += ` OFFSET $` + strconv.Itoa(idx)
		args = append(args, filter.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(
			&e.ID,
			&e.Action,
			&e.PerformedBy,
			&e.TargetUser,
			&e.TargetInvite,
			&e.TargetTicket,
			&e.Details,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteOlderThan removes entries past the cutoff, skipping the given actions
// so they can be handled by a different retention window.
func (r *auditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, excluding []domain.AuditAction) (int64, error) {
	cmd, err := r.q.Exec(ctx,
		`DELETE FROM audit_entries WHERE created_at < $1 AND action != ALL($2)`,
		cutoff, actionStrings(excluding))
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *auditRepository) DeleteOlderThanForActions(ctx context.Context, cutoff time.Time, actions []domain.AuditAction) (int64, error) {
	cmd, err := r.q.Exec(ctx,
		`DELETE FROM audit_entries WHERE created_at < $1 AND action = ANY($2)`,
		cutoff, actionStrings(actions))
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func actionStrings(actions []domain.AuditAction) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}
