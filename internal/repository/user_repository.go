package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ayachi01/FixItWeb/internal/domain"
)

// UserRepository defines persistence access for accounts, profiles, and
// student extensions.
type UserRepository interface {
	WithTx(tx pgx.Tx) UserRepository

	CreateAccount(ctx context.Context, account *domain.UserAccount) error
	UpdateAccount(ctx context.Context, account *domain.UserAccount) error
	GetAccountByID(ctx context.Context, id string) (*domain.UserAccount, error)
	GetAccountByEmail(ctx context.Context, email string) (*domain.UserAccount, error)
	// LockAccount takes a row lock on the account, serializing concurrent
	// writes that depend on per-user invariants (assignment capacity).
	LockAccount(ctx context.Context, id string) error

	CreateProfile(ctx context.Context, profile *domain.UserProfile) error
	UpdateProfile(ctx context.Context, profile *domain.UserProfile) error
	GetProfileByAccount(ctx context.Context, accountID string) (*domain.UserProfile, error)
	ListProfilesByRoles(ctx context.Context, roleNames []string) ([]domain.UserProfile, error)

	CreateStudentProfile(ctx context.Context, student *domain.StudentProfile) error
	GetStudentProfile(ctx context.Context, profileID string) (*domain.StudentProfile, error)
}

type userRepository struct {
	q Querier
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(q Querier) UserRepository {
	return &userRepository{q: q}
}

func (r *userRepository) WithTx(tx pgx.Tx) UserRepository {
	return &userRepository{q: tx}
}

func (r *userRepository) CreateAccount(ctx context.Context, account *domain.UserAccount) error {
	const query = `
        INSERT INTO user_accounts (email, first_name, last_name, password_hash, is_active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	return r.q.QueryRow(ctx, query,
		account.Email,
		account.FirstName,
		account.LastName,
		account.PasswordHash,
		account.IsActive,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
}

func (r *userRepository) UpdateAccount(ctx context.Context, account *domain.UserAccount) error {
	const query = `
        UPDATE user_accounts
        SET email=$1, first_name=$2, last_name=$3, password_hash=$4, is_active=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.q.Exec(ctx, query,
		account.Email,
		account.FirstName,
		account.LastName,
		account.PasswordHash,
		account.IsActive,
		account.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const accountColumns = `id, email, first_name, last_name, password_hash, is_active, created_at, updated_at`

func (r *userRepository) GetAccountByID(ctx context.Context, id string) (*domain.UserAccount, error) {
	return r.fetchAccount(ctx, `SELECT `+accountColumns+` FROM user_accounts WHERE id=$1`, id)
}

func (r *userRepository) GetAccountByEmail(ctx context.Context, email string) (*domain.UserAccount, error) {
	return r.fetchAccount(ctx, `SELECT `+accountColumns+` FROM user_accounts WHERE LOWER(email)=LOWER($1)`, email)
}

func (r *userRepository) fetchAccount(ctx context.Context, query string, arg any) (*domain.UserAccount, error) {
	var account domain.UserAccount
	if err := r.q.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Email,
		&account.FirstName,
		&account.LastName,
		&account.PasswordHash,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *userRepository) LockAccount(ctx context.Context, id string) error {
	var locked string
	return r.q.QueryRow(ctx, `SELECT id FROM user_accounts WHERE id=$1 FOR UPDATE`, id).Scan(&locked)
}

func (r *userRepository) CreateProfile(ctx context.Context, profile *domain.UserProfile) error {
	const query = `
        INSERT INTO user_profiles (account_id, role_name, email_domain, is_email_verified, created_by_admin)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	return r.q.QueryRow(ctx, query,
		profile.AccountID,
		profile.RoleName,
		profile.EmailDomain,
		profile.IsEmailVerified,
		profile.CreatedByAdmin,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
}

func (r *userRepository) UpdateProfile(ctx context.Context, profile *domain.UserProfile) error {
	const query = `
        UPDATE user_profiles
        SET role_name=$1, email_domain=$2, is_email_verified=$3, created_by_admin=$4, updated_at=NOW()
        WHERE id=$5`

	cmd, err := r.q.Exec(ctx, query,
		profile.RoleName,
		profile.EmailDomain,
		profile.IsEmailVerified,
		profile.CreatedByAdmin,
		profile.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const profileColumns = `id, account_id, role_name, email_domain, is_email_verified, created_by_admin, created_at, updated_at`

func (r *userRepository) GetProfileByAccount(ctx context.Context, accountID string) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := r.q.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE account_id=$1`, accountID).Scan(
		&profile.ID,
		&profile.AccountID,
		&profile.RoleName,
		&profile.EmailDomain,
		&profile.IsEmailVerified,
		&profile.CreatedByAdmin,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *userRepository) ListProfilesByRoles(ctx context.Context, roleNames []string) ([]domain.UserProfile, error) {
	if len(roleNames) == 0 {
		return nil, nil
	}
	const query = `
        SELECT ` + profileColumns + `
        FROM user_profiles
        WHERE role_name = ANY($1)
        ORDER BY created_at`

	rows, err := r.q.Query(ctx, query, roleNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.UserProfile
	for rows.Next() {
		var p domain.UserProfile
		if err := rows.Scan(
			&p.ID,
			&p.AccountID,
			&p.RoleName,
			&p.EmailDomain,
			&p.IsEmailVerified,
			&p.CreatedByAdmin,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *userRepository) CreateStudentProfile(ctx context.Context, student *domain.StudentProfile) error {
	const query = `
        INSERT INTO student_profiles (profile_id, student_id, course_code, course_name, year_level)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	return r.q.QueryRow(ctx, query,
		student.ProfileID,
		student.StudentID,
		student.CourseCode,
		student.CourseName,
		student.YearLevel,
	).Scan(&student.ID, &student.CreatedAt, &student.UpdatedAt)
}

func (r *userRepository) GetStudentProfile(ctx context.Context, profileID string) (*domain.StudentProfile, error) {
	const query = `
        SELECT id, profile_id, student_id, course_code, course_name, year_level, created_at, updated_at
        FROM student_profiles WHERE profile_id=$1`

	var student domain.StudentProfile
	if err := r.q.QueryRow(ctx, query, profileID).Scan(
		&student.ID,
		&student.ProfileID,
		&student.StudentID,
		&student.CourseCode,
		&student.CourseName,
		&student.YearLevel,
		&student.CreatedAt,
		&student.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &student, nil
}
