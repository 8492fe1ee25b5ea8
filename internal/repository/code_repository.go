package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ayachi01/FixItWeb/internal/domain"
)

// CodeRepository persists one-time codes: password reset codes and
// registration OTPs. Both carry the single-active-code-per-account
// invariant; issuing a new code invalidates all prior unused codes in the
// same transaction.
type CodeRepository interface {
	WithTx(tx pgx.Tx) CodeRepository

	InvalidateResetCodes(ctx context.Context, accountID string) error
	CreateResetCode(ctx context.Context, code *domain.PasswordResetCode) error
	GetActiveResetCode(ctx context.Context, accountID string) (*domain.PasswordResetCode, error)
	MarkResetCodeUsed(ctx context.Context, id string) error
	DeleteStaleResetCodes(ctx context.Context, olderThan time.Time) (int64, error)

	InvalidateVerificationCodes(ctx context.Context, accountID string) error
	CreateVerificationCode(ctx context.Context, code *domain.VerificationCode) error
	GetActiveVerificationCode(ctx context.Context, accountID string) (*domain.VerificationCode, error)
	MarkVerificationCodeUsed(ctx context.Context, id string) error
	DeleteStaleVerificationCodes(ctx context.Context, olderThan time.Time) (int64, error)
}

type codeRepository struct {
	q Querier
}

// NewCodeRepository constructs repository.
func NewCodeRepository(q Querier) CodeRepository {
	return &codeRepository{q: q}
}

func (r *codeRepository) WithTx(tx pgx.Tx) CodeRepository {
	return &codeRepository{q: tx}
}

func (r *codeRepository) InvalidateResetCodes(ctx context.Context, accountID string) error {
	_, err := r.q.Exec(ctx,
		`UPDATE password_reset_codes SET is_used=TRUE WHERE account_id=$1 AND is_used=FALSE`,
		accountID)
	return err
}

func (r *codeRepository) CreateResetCode(ctx context.Context, code *domain.PasswordResetCode) error {
	const query = `
        INSERT INTO password_reset_codes (account_id, code_hash)
        VALUES ($1, $2)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query, code.AccountID, code.CodeHash).
		Scan(&code.ID, &code.CreatedAt)
}

func (r *codeRepository) GetActiveResetCode(ctx context.Context, accountID string) (*domain.PasswordResetCode, error) {
	const query = `
        SELECT id, account_id, code_hash, created_at, is_used
        FROM password_reset_codes
        WHERE account_id=$1 AND is_used=FALSE
        ORDER BY created_at DESC
        LIMIT 1`

	var code domain.PasswordResetCode
	if err := r.q.QueryRow(ctx, query, accountID).Scan(
		&code.ID,
		&code.AccountID,
		&code.CodeHash,
		&code.CreatedAt,
		&code.IsUsed,
	); err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *codeRepository) MarkResetCodeUsed(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE password_reset_codes SET is_used=TRUE WHERE id=$1 AND is_used=FALSE`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *codeRepository) DeleteStaleResetCodes(ctx context.Context, olderThan time.Time) (int64, error) {
	cmd, err := r.q.Exec(ctx,
		`DELETE FROM password_reset_codes WHERE is_used=TRUE OR created_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *codeRepository) InvalidateVerificationCodes(ctx context.Context, accountID string) error {
	_, err := r.q.Exec(ctx,
		`UPDATE verification_codes SET is_used=TRUE WHERE account_id=$1 AND is_used=FALSE`,
		accountID)
	return err
}

func (r *codeRepository) CreateVerificationCode(ctx context.Context, code *domain.VerificationCode) error {
	const query = `
        INSERT INTO verification_codes (account_id, code_hash)
        VALUES ($1, $2)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query, code.AccountID, code.CodeHash).
		Scan(&code.ID, &code.CreatedAt)
}

func (r *codeRepository) GetActiveVerificationCode(ctx context.Context, accountID string) (*domain.VerificationCode, error) {
	const query = `
        SELECT id, account_id, code_hash, created_at, is_used
        FROM verification_codes
        WHERE account_id=$1 AND is_used=FALSE
        ORDER BY created_at DESC
        LIMIT 1`

	var code domain.VerificationCode
	if err := r.q.QueryRow(ctx, query, accountID).Scan(
		&code.ID,
		&code.AccountID,
		&code.CodeHash,
		&code.CreatedAt,
		&code.IsUsed,
	); err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *codeRepository) MarkVerificationCodeUsed(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE verification_codes SET is_used=TRUE WHERE id=$1 AND is_used=FALSE`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *codeRepository) DeleteStaleVerificationCodes(ctx context.Context, olderThan time.Time) (int64, error) {
	cmd, err := r.q.Exec(ctx,
		`DELETE FROM verification_codes WHERE is_used=TRUE OR created_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
