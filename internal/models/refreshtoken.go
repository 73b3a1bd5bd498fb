package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is the persisted side of an opaque refresh secret.
// Only the SHA-256 digest of the secret is stored, never the secret itself.
//
// ReplacedByTokenID is set if and only if the token was revoked by
// rotation. A revoked token with the link set that shows up again is a
// reuse signal (possible theft).
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time

	RevokedAt         *time.Time
	ReplacedByTokenID *uuid.UUID

	DeviceInfo string
	IPAddress  string
}

// IsRevoked reports whether the token was revoked (by rotation or logout)
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsExpired reports whether the token lifetime has elapsed
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// WasRotated reports whether the token was consumed by rotation, as
// opposed to an explicit logout
func (t *RefreshToken) WasRotated() bool {
	return t.RevokedAt != nil && t.ReplacedByTokenID != nil
}

// Session is the opaque descriptor of an active refresh token,
// safe to show to the user. It never exposes the secret or its hash.
type Session struct {
	ID         uuid.UUID
	DeviceInfo string
	IPAddress  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}
