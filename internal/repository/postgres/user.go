package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/andrekirst/familyauth/internal/apperrors"
	"github.com/andrekirst/familyauth/internal/models"
	"github.com/andrekirst/familyauth/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, family_id, created_at, email, first_name, last_name, role,
password_hash, email_verified, email_verification_token,
failed_login_count, locked_until,
password_reset_token, password_reset_token_expires_at,
password_reset_code, password_reset_code_expires_at`

const createUser = `-- name: CreateUser
INSERT INTO users (family_id, email, first_name, last_name, role, password_hash, email_verification_token)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser,
		arg.FamilyID, arg.Email, arg.FirstName, arg.LastName, arg.Role,
		arg.PasswordHash, arg.EmailVerificationToken,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return user, nil
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		return user, fmt.Errorf("repo error: %w", apperrors.ErrEmailAlreadyExists)
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + `
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, userID)
	return collectUser(rows)
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT ` + userColumns + `
FROM users
WHERE lower(email) = lower($1)
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	return collectUser(rows)
}

const getUserByResetToken = `-- name: GetUserByResetToken
SELECT ` + userColumns + `
FROM users
WHERE password_reset_token = $1
`

func (r *UserRepo) GetUserByResetToken(ctx context.Context, token string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByResetToken, token)
	return collectUser(rows)
}

const getUserByVerificationToken = `-- name: GetUserByVerificationToken
SELECT ` + userColumns + `
FROM users
WHERE email_verification_token = $1
`

func (r *UserRepo) GetUserByVerificationToken(ctx context.Context, token string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByVerificationToken, token)
	return collectUser(rows)
}

const updateUser = `-- name: UpdateUser
UPDATE users
SET password_hash = $2,
    email_verified = $3,
    email_verification_token = $4,
    failed_login_count = $5,
    locked_until = $6,
    password_reset_token = $7,
    password_reset_token_expires_at = $8,
    password_reset_code = $9,
    password_reset_code_expires_at = $10
WHERE id = $1
RETURNING ` + userColumns

// Persist the mutable part of the credential aggregate
func (r *UserRepo) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateUser,
		user.ID,
		user.PasswordHash,
		user.EmailVerified,
		user.EmailVerificationToken,
		user.FailedLoginCount,
		user.LockedUntil,
		user.PasswordResetToken,
		user.PasswordResetTokenExpiresAt,
		user.PasswordResetCode,
		user.PasswordResetCodeExpiresAt,
	)
	return collectUser(rows)
}

const userExists = `-- name: UserExists
SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))
`

func (r *UserRepo) UserExists(ctx context.Context, email string) (bool, error) {
	rows, _ := r.DB.Query(ctx, userExists, email)
	exists, err := pgx.CollectOneRow(rows, pgx.RowTo[bool])
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.FamilyID, &u.CreatedAt, &u.Email, &u.FirstName, &u.LastName, &u.Role,
		&u.PasswordHash, &u.EmailVerified, &u.EmailVerificationToken,
		&u.FailedLoginCount, &u.LockedUntil,
		&u.PasswordResetToken, &u.PasswordResetTokenExpiresAt,
		&u.PasswordResetCode, &u.PasswordResetCodeExpiresAt,
	)
	return u, err
}
