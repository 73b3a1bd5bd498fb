package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/andrekirst/familyauth/internal/models"
)

type CreateUserParams struct {
	FamilyID               uuid.UUID
	Email                  string
	FirstName              string
	LastName               string
	Role                   string
	PasswordHash           *string
	EmailVerificationToken *string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If a user with the email exists already, has to return apperrors.ErrEmailAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by id, email or one of the stored single-use secrets
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByResetToken(ctx context.Context, token string) (models.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (models.User, error)

	// Persist the whole credential aggregate (hash, lockout, secrets)
	UpdateUser(ctx context.Context, user models.User) (models.User, error)

	UserExists(ctx context.Context, email string) (bool, error)
}

// Family repository interface
type FamilyRepo interface {
	// Create family without owner; ownership is transferred right after
	// the owning user is created
	CreateFamily(ctx context.Context, name string) (models.Family, error)

	TransferOwnership(ctx context.Context, familyID uuid.UUID, ownerID uuid.UUID) error
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save persists a freshly issued token record (hash only, never the secret)
	Save(ctx context.Context, token models.RefreshToken) error

	// Get token by the SHA-256 digest of its secret
	// Has to return the record even if revoked or expired
	// If no record matches must return apperrors.ErrRefreshTokenNotFound
	GetByHash(ctx context.Context, tokenHash string) (models.RefreshToken, error)

	// Revoke marks the token revoked and optionally links its replacement.
	// Must be atomic: if the token is revoked already it must return
	// apperrors.ErrRefreshTokenRevoked and must not overwrite the existing
	// revocation. Rotation reuse detection depends on this.
	Revoke(ctx context.Context, tokenID uuid.UUID, revokedAt time.Time, replacedBy *uuid.UUID) error

	// RevokeAllForUser revokes every non-revoked token of the user
	// and returns how many were revoked
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, revokedAt time.Time) (int64, error)

	// ListActiveForUser returns tokens that are neither revoked nor expired
	ListActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.RefreshToken, error)
}

// Audit repository interface, append only
type AuditRepo interface {
	Add(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error)
}

// Storage combines all repositories and the transaction boundary
type Storage interface {
	User() UserRepo
	Family() FamilyRepo
	Refresh() RefreshTokenRepo
	Audit() AuditRepo

	// InTx runs fn with a Storage bound to a single transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
