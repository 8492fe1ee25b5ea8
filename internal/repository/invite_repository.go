package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ayachi01/FixItWeb/internal/domain"
)

// InviteRepository manages invitation token persistence.
type InviteRepository interface {
	WithTx(tx pgx.Tx) InviteRepository

	Create(ctx context.Context, invite *domain.Invite) error
	GetByToken(ctx context.Context, token string) (*domain.Invite, error)
	// GetByTokenForUpdate locks the invite row so redemption is exactly-once
	// under concurrent requests for the same token.
	GetByTokenForUpdate(ctx context.Context, token string) (*domain.Invite, error)
	GetActiveByEmail(ctx context.Context, email string) (*domain.Invite, error)
	MarkUsed(ctx context.Context, id string) error
	MarkApproved(ctx context.Context, id, approverID string) error
	Delete(ctx context.Context, id string) error
	ListPendingApproval(ctx context.Context, limit, offset int) ([]domain.Invite, error)
	List(ctx context.Context, limit, offset int) ([]domain.Invite, error)
}

type inviteRepository struct {
	q Querier
}

// NewInviteRepository constructs repository.
func NewInviteRepository(q Querier) InviteRepository {
	return &inviteRepository{q: q}
}

func (r *inviteRepository) WithTx(tx pgx.Tx) InviteRepository {
	return &inviteRepository{q: tx}
}

const inviteColumns = `
    i.id, i.email, i.token, r.name, i.created_by, i.created_at, i.expires_at,
    i.is_used, i.requires_admin_approval, i.is_approved, i.approved_by, i.approved_at`

func (r *inviteRepository) Create(ctx context.Context, invite *domain.Invite) error {
	const query = `
        INSERT INTO invites (email, token, role_id, created_by, expires_at, requires_admin_approval)
        VALUES ($1, $2, (SELECT id FROM roles WHERE name=$3), $4, $5, $6)
        RETURNING id, created_at`

	return r.q.QueryRow(ctx, query,
		invite.Email,
		invite.Token,
		invite.RoleName,
		invite.CreatedBy,
		invite.ExpiresAt,
		invite.RequiresAdminApproval,
	).Scan(&invite.ID, &invite.CreatedAt)
}

func (r *inviteRepository) GetByToken(ctx context.Context, token string) (*domain.Invite, error) {
	const query = `
        SELECT ` + inviteColumns + `
        FROM invites i JOIN roles r ON r.id = i.role_id
        WHERE i.token=$1`
	return r.fetchOne(ctx, query, token)
}

func (r *inviteRepository) GetByTokenForUpdate(ctx context.Context, token string) (*domain.Invite, error) {
	const query = `
        SELECT ` + inviteColumns + `
        FROM invites i JOIN roles r ON r.id = i.role_id
        WHERE i.token=$1
        FOR UPDATE OF i`
	return r.fetchOne(ctx, query, token)
}

func (r *inviteRepository) GetActiveByEmail(ctx context.Context, email string) (*domain.Invite, error) {
	const query = `
        SELECT ` + inviteColumns + `
        FROM invites i JOIN roles r ON r.id = i.role_id
        WHERE LOWER(i.email)=LOWER($1) AND i.is_used=FALSE
        ORDER BY i.created_at DESC
        LIMIT 1`
	return r.fetchOne(ctx, query, email)
}

func (r *inviteRepository) fetchOne(ctx context.Context, query string, arg any) (*domain.Invite, error) {
	var invite domain.Invite
	if err := r.q.QueryRow(ctx, query, arg).Scan(
		&invite.ID,
		&invite.Email,
		&invite.Token,
		&invite.RoleName,
		&invite.CreatedBy,
		&invite.CreatedAt,
		&invite.ExpiresAt,
		&invite.IsUsed,
		&invite.RequiresAdminApproval,
		&invite.IsApproved,
		&invite.ApprovedBy,
		&invite.ApprovedAt,
	); err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *inviteRepository) MarkUsed(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `UPDATE invites SET is_used=TRUE WHERE id=$1 AND is_used=FALSE`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *inviteRepository) MarkApproved(ctx context.Context, id, approverID string) error {
	const query = `
        UPDATE invites SET is_approved=TRUE, approved_by=$1, approved_at=NOW()
        WHERE id=$2 AND is_used=FALSE`
	cmd, err := r.q.Exec(ctx, query, approverID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *inviteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM invites WHERE id=$1`, id)
	return err
}

func (r *inviteRepository) ListPendingApproval(ctx context.Context, limit, offset int) ([]domain.Invite, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT ` + inviteColumns + `
        FROM invites i JOIN roles r ON r.id = i.role_id
        WHERE i.requires_admin_approval=TRUE AND i.is_approved=FALSE AND i.is_used=FALSE
        ORDER BY i.created_at
        LIMIT $1 OFFSET $2`

	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []domain.Invite
	for rows.Next() {
		var invite domain.Invite
		if err := rows.Scan(
			&invite.ID,
			&invite.Email,
			&invite.Token,
			&invite.RoleName,
			&invite.CreatedBy,
			&invite.CreatedAt,
			&invite.ExpiresAt,
			&invite.IsUsed,
			&invite.RequiresAdminApproval,
			&invite.IsApproved,
			&invite.ApprovedBy,
			&invite.ApprovedAt,
		); err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}

func (r *inviteRepository) List(ctx context.Context, limit, offset int) ([]domain.Invite, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT ` + inviteColumns + `
        FROM invites i JOIN roles r ON r.id = i.role_id
        ORDER BY i.created_at DESC
        LIMIT $1 OFFSET $2`

	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []domain.Invite
	for rows.Next() {
		var invite domain.Invite
		if err := rows.Scan(
			&invite.ID,
			&invite.Email,
			&invite.Token,
			&invite.RoleName,
			&invite.CreatedBy,
			&invite.CreatedAt,
			&invite.ExpiresAt,
			&invite.IsUsed,
			&invite.RequiresAdminApproval,
			&invite.IsApproved,
			&invite.ApprovedBy,
			&invite.ApprovedAt,
		); err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}
