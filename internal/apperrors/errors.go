package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrUserNotFound       = errors.New("user not found")

	// ErrInvalidCredentials is returned for both "no such user" and
	// "wrong password" so callers can't enumerate accounts
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrPasswordMismatch   = errors.New("current password mismatch")

	// ErrRefreshTokenInvalid is the only refresh error callers ever see:
	// not found, revoked and expired are indistinguishable from outside.
	// The repository errors below stay internal, the audit trail keeps
	// the precise reason
	ErrRefreshTokenInvalid  = errors.New("refresh token invalid")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token is revoked")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrResetTokenInvalid        = errors.New("password reset token invalid")
	ErrResetCodeInvalid         = errors.New("password reset code invalid")
	ErrVerificationTokenInvalid = errors.New("email verification token invalid")
	ErrEmailAlreadyVerified     = errors.New("email already verified")

	ErrFamilyNotFound = errors.New("family not found")
)

// PasswordTooWeakError is returned when a password fails the strength policy
// It carries every violated rule plus heuristic suggestions
type PasswordTooWeakError struct {
	Violations  []string
	Suggestions []string
}

func (e *PasswordTooWeakError) Error() string {
	return fmt.Sprintf("password too weak: %s", strings.Join(e.Violations, "; "))
}

// Return PasswordTooWeakError if err wraps one
func AsPasswordTooWeak(err error) (*PasswordTooWeakError, bool) {
	var weak *PasswordTooWeakError
	ok := errors.As(err, &weak)
	return weak, ok
}
