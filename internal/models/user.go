package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the credential aggregate. Security-relevant state (password hash,
// lockout counters, reset and verification secrets) must be mutated through
// the methods below only; repositories persist the aggregate as a whole.
type User struct {
	ID        uuid.UUID
	FamilyID  uuid.UUID
	CreatedAt time.Time

	Email     string
	FirstName string
	LastName  string
	Role      string

	// Nil for passwordless users federated elsewhere
	PasswordHash *string

	EmailVerified          bool
	EmailVerificationToken *string

	FailedLoginCount int
	LockedUntil      *time.Time

	PasswordResetToken          *string
	PasswordResetTokenExpiresAt *time.Time
	PasswordResetCode           *string
	PasswordResetCodeExpiresAt  *time.Time
}

// IsLockedOut reports whether the account is under an active lockout
func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// ClearExpiredLockout drops an elapsed lockout and its failure counter
// Lockouts expire lazily on read, there is no background sweeper
// Returns true if state changed and the aggregate should be persisted
func (u *User) ClearExpiredLockout(now time.Time) bool {
	if u.LockedUntil == nil || u.LockedUntil.After(now) {
		return false
	}

	u.LockedUntil = nil
	u.FailedLoginCount = 0
	return true
}

// RecordFailedLogin increments the failure counter and trips the lockout
// when maxAttempts is reached. Further failures while locked do not extend
// the window; only a fresh counter cycle after expiry can lock again.
// Returns true if this attempt caused the lockout.
func (u *User) RecordFailedLogin(now time.Time, maxAttempts int, lockoutDuration time.Duration) bool {
	if u.IsLockedOut(now) {
		return false
	}

	u.FailedLoginCount++
	if u.FailedLoginCount >= maxAttempts {
		until := now.Add(lockoutDuration)
		u.LockedUntil = &until
		return true
	}

	return false
}

// ResetLoginAttempts clears the failure counter after a successful login
func (u *User) ResetLoginAttempts() {
	u.FailedLoginCount = 0
}

// SetPassword replaces the password hash
func (u *User) SetPassword(hash string) {
	u.PasswordHash = &hash
}

// SetPasswordResetToken stores a reset token and drops any pending code
func (u *User) SetPasswordResetToken(token string, expiresAt time.Time) {
	u.PasswordResetToken = &token
	u.PasswordResetTokenExpiresAt = &expiresAt
	u.PasswordResetCode = nil
	u.PasswordResetCodeExpiresAt = nil
}

// SetPasswordResetCode stores a short numeric code and drops any pending token
func (u *User) SetPasswordResetCode(code string, expiresAt time.Time) {
	u.PasswordResetCode = &code
	u.PasswordResetCodeExpiresAt = &expiresAt
	u.PasswordResetToken = nil
	u.PasswordResetTokenExpiresAt = nil
}

// ClearPasswordReset drops reset secrets after use
func (u *User) ClearPasswordReset() {
	u.PasswordResetToken = nil
	u.PasswordResetTokenExpiresAt = nil
	u.PasswordResetCode = nil
	u.PasswordResetCodeExpiresAt = nil
}

// HasValidResetToken reports whether the stored reset token is still usable
func (u *User) HasValidResetToken(now time.Time) bool {
	return u.PasswordResetToken != nil &&
		u.PasswordResetTokenExpiresAt != nil &&
		u.PasswordResetTokenExpiresAt.After(now)
}

// HasValidResetCode reports whether the stored reset code is still usable
func (u *User) HasValidResetCode(now time.Time) bool {
	return u.PasswordResetCode != nil &&
		u.PasswordResetCodeExpiresAt != nil &&
		u.PasswordResetCodeExpiresAt.After(now)
}

// SetEmailVerificationToken stores a fresh single-use verification token
func (u *User) SetEmailVerificationToken(token string) {
	u.EmailVerificationToken = &token
}

// MarkEmailVerified flags the email verified and consumes the token
func (u *User) MarkEmailVerified() {
	u.EmailVerified = true
	u.EmailVerificationToken = nil
}

// AuthenticatedUser is the projection returned to callers after a
// successful authentication. It never carries credential state.
type AuthenticatedUser struct {
	ID            uuid.UUID
	FamilyID      uuid.UUID
	Email         string
	FirstName     string
	LastName      string
	Role          string
	EmailVerified bool
}

// Authenticated builds the caller-facing projection of the user
func (u *User) Authenticated() AuthenticatedUser {
	return AuthenticatedUser{
		ID:            u.ID,
		FamilyID:      u.FamilyID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
	}
}
