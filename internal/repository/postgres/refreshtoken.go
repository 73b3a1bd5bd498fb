package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/andrekirst/familyauth/internal/apperrors"
	"github.com/andrekirst/familyauth/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: SaveRefreshToken
INSERT INTO refresh_tokens (id, user_id, token_hash, issued_at, expires_at, revoked_at, replaced_by_token_id, device_info, ip_address)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) error {
	rows, _ := r.DB.Query(ctx, saveToken,
		token.ID, token.UserID, token.TokenHash, token.IssuedAt, token.ExpiresAt,
		token.RevokedAt, token.ReplacedByTokenID, token.DeviceInfo, token.IPAddress,
	)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const getTokenByHash = `-- name: GetRefreshTokenByHash
SELECT id, user_id, token_hash, issued_at, expires_at, revoked_at, replaced_by_token_id, device_info, ip_address
FROM refresh_tokens
WHERE token_hash = $1
`

// Get token by hash
// It should return the record even if revoked or expired already
func (r *RefreshTokenRepo) GetByHash(ctx context.Context, tokenHash string) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getTokenByHash, tokenHash)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const revokeToken = `-- name: RevokeRefreshToken
UPDATE refresh_tokens
SET revoked_at = $2, replaced_by_token_id = $3
WHERE id = $1 AND revoked_at IS NULL
RETURNING id
`

// Revoke token once
// Must not overwrite an existing revocation: the WHERE clause claims the
// token atomically, a concurrent rotation with the same secret loses
func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenID uuid.UUID, revokedAt time.Time, replacedBy *uuid.UUID) error {
	rows, _ := r.DB.Query(ctx, revokeToken, tokenID, revokedAt, replacedBy)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])

	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenRevoked)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

const revokeAllForUser = `-- name: RevokeAllRefreshTokensForUser
UPDATE refresh_tokens
SET revoked_at = $2
WHERE user_id = $1 AND revoked_at IS NULL
`

func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID, revokedAt time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, revokeAllForUser, userID, revokedAt)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

const listActiveForUser = `-- name: ListActiveRefreshTokensForUser
SELECT id, user_id, token_hash, issued_at, expires_at, revoked_at, replaced_by_token_id, device_info, ip_address
FROM refresh_tokens
WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
ORDER BY issued_at DESC
`

func (r *RefreshTokenRepo) ListActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, listActiveForUser, userID, now)
	tokens, err := pgx.CollectRows(rows, rowToRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tokens, nil
}

func rowToRefreshToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := row.Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.IssuedAt, &t.ExpiresAt,
		&t.RevokedAt, &t.ReplacedByTokenID, &t.DeviceInfo, &t.IPAddress,
	)
	return t, err
}
