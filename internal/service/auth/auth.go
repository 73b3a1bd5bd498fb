package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andrekirst/familyauth/internal/apperrors"
	"github.com/andrekirst/familyauth/internal/logger"
	"github.com/andrekirst/familyauth/internal/models"
	"github.com/andrekirst/familyauth/internal/repository"
	"github.com/andrekirst/familyauth/internal/service/email"
	"github.com/andrekirst/familyauth/internal/service/password"
	"github.com/andrekirst/familyauth/internal/service/auth/tokenmanager"
)

const (
	defaultMaxFailedAttempts = 5
	defaultLockoutDuration   = 15 * time.Minute

	defaultResetTokenTTL = time.Hour
	defaultResetCodeTTL  = 15 * time.Minute

	resetCodeDigits   = 6
	opaqueTokenBytes  = 32
	defaultMemberRole = "member"
	ownerRole         = "owner"
)

// Lockout policy applied on failed logins
type LockoutConfig struct {
	MaxFailedAttempts int
	LockoutDuration   time.Duration
}

type Config struct {
	Lockout LockoutConfig

	// Lifetimes of the password reset secrets
	// If not set then default is used
	ResetTokenTTL time.Duration
	ResetCodeTTL  time.Duration
}

// Result of every operation that authenticates the caller
type Result struct {
	User   models.AuthenticatedUser
	Tokens models.TokenPair
}

// RequestMeta carries transport-level facts for tokens and the audit trail
type RequestMeta struct {
	DeviceInfo string
	IPAddress  string
	UserAgent  string
}

// AuthService composes the password policy, the hasher, the token manager
// and the stores into the public authentication operations.
//
// Business outcomes are sentinel errors from apperrors, returned, never
// panicked. Audit writes are fatal to the operation: an auth system
// without forensics is worse than a failed request. Mail delivery is best
// effort and only logged.
type AuthService struct {
	token   *tokenmanager.TokenManager
	hasher  *password.Hasher
	policy  *password.Policy
	storage repository.Storage
	sender  email.Sender
	logger  logger.Logger

	lockout       LockoutConfig
	resetTokenTTL time.Duration
	resetCodeTTL  time.Duration
}

func NewService(
	cfg Config,
	token *tokenmanager.TokenManager,
	hasher *password.Hasher,
	policy *password.Policy,
	storage repository.Storage,
	sender email.Sender,
	l logger.Logger,
) (*AuthService, error) {
	if token == nil || hasher == nil || policy == nil || storage == nil {
		return nil, errors.New("token manager, hasher, policy and storage must not be nil")
	}
	if l == nil {
		l = logger.NewNoOp()
	}
	if sender == nil {
		sender = email.NewLogSender(l)
	}

	if cfg.Lockout.MaxFailedAttempts <= 0 {
		cfg.Lockout.MaxFailedAttempts = defaultMaxFailedAttempts
	}
	if cfg.Lockout.LockoutDuration <= 0 {
		cfg.Lockout.LockoutDuration = defaultLockoutDuration
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = defaultResetTokenTTL
	}
	if cfg.ResetCodeTTL <= 0 {
		cfg.ResetCodeTTL = defaultResetCodeTTL
	}

	return &AuthService{
		token:         token,
		hasher:        hasher,
		policy:        policy,
		storage:       storage,
		sender:        sender,
		logger:        l,
		lockout:       cfg.Lockout,
		resetTokenTTL: cfg.ResetTokenTTL,
		resetCodeTTL:  cfg.ResetCodeTTL,
	}, nil
}

type RegisterParams struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	FamilyName string
	Meta       RequestMeta
}

// Register creates a family and its owning user in one transaction and
// logs the new user in
func (s *AuthService) Register(ctx context.Context, arg RegisterParams) (Result, error) {
	var result Result

	if strength := s.policy.ValidateStrength(arg.Password); !strength.IsValid {
		weak := &apperrors.PasswordTooWeakError{Violations: strength.Errors, Suggestions: strength.Suggestions}
		if err := s.audit(ctx, models.AuditEntry{
			Email: arg.Email, EventType: models.AuditRegistration,
			FailureReason: weak.Error(), IPAddress: arg.Meta.IPAddress, UserAgent: arg.Meta.UserAgent,
		}); err != nil {
			return result, err
		}
		return result, weak
	}

	hash, err := s.hasher.Hash(arg.Password)
	if err != nil {
		return result, fmt.Errorf("can't use this as password, error=%w", err)
	}

	verificationToken, err := newOpaqueToken()
	if err != nil {
		return result, fmt.Errorf("error while generating verification token. Err: %w", err)
	}

	familyName := arg.FamilyName
	if familyName == "" {
		familyName = defaultFamilyName(arg.LastName, arg.Email)
	}

	// Family and owning user are created together; the family starts
	// without an owner and gets it right after the user exists
	var user models.User
	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		family, err := tx.Family().CreateFamily(ctx, familyName)
		if err != nil {
			return err
		}

		user, err = tx.User().CreateUser(ctx, repository.CreateUserParams{
			FamilyID:               family.ID,
			Email:                  arg.Email,
			FirstName:              arg.FirstName,
			LastName:               arg.LastName,
			Role:                   ownerRole,
			PasswordHash:           &hash,
			EmailVerificationToken: &verificationToken,
		})
		if err != nil {
			return err
		}

		return tx.Family().TransferOwnership(ctx, family.ID, user.ID)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			if aerr := s.audit(ctx, models.AuditEntry{
				Email: arg.Email, EventType: models.AuditRegistration,
				FailureReason: "email already exists", IPAddress: arg.Meta.IPAddress, UserAgent: arg.Meta.UserAgent,
			}); aerr != nil {
				return result, aerr
			}
		}
		return result, err
	}

	pair, err := s.token.GeneratePair(ctx, user, arg.Meta.DeviceInfo, arg.Meta.IPAddress)
	if err != nil {
		return result, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	if err := s.audit(ctx, models.AuditEntry{
		UserID: &user.ID, Email: user.Email, EventType: models.AuditRegistration, Success: true,
		IPAddress: arg.Meta.IPAddress, UserAgent: arg.Meta.UserAgent,
	}); err != nil {
		return result, err
	}

	s.sendMail(ctx, "welcome", func() error { return s.sender.SendWelcome(ctx, user.Email, user.FirstName) })
	s.sendMail(ctx, "verification", func() error { return s.sender.SendVerificationLink(ctx, user.Email, verificationToken) })

	return Result{User: user.Authenticated(), Tokens: pair}, nil
}

type LoginParams struct {
	Email    string
	Password string
	Meta     RequestMeta
}

// Login authenticates by email and password.
// "No such user" and "wrong password" are indistinguishable from outside;
// the audit trail keeps the precise reason.
func (s *AuthService) Login(ctx context.Context, arg LoginParams) (Result, error) {
	var result Result
	now := time.Now()

	user, err := s.storage.User().GetUserByEmail(ctx, arg.Email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		if aerr := s.audit(ctx, models.AuditEntry{
			Email: arg.Email, EventType: models.AuditFailedLogin,
			FailureReason: "user not found", IPAddress: arg.Meta.IPAddress, UserAgent: arg.Meta.UserAgent,
		}); aerr != nil {
			return result, aerr
		}
		return result, apperrors.ErrInvalidCredentials
	case err != nil:
		return result, err
	}

	// Lockouts expire lazily: clear before checking
	if user.ClearExpiredLockout(now) {
		if user, err = s.storage.User().UpdateUser(ctx, user); err != nil {
			return result, err
		}
	}

	if user.IsLockedOut(now) {
		if aerr := s.audit(ctx, models.AuditEntry{
			UserID: &user.ID, Email: user.Email, EventType: models.AuditFailedLogin,
			FailureReason: "account locked", IPAddress: arg.Meta.IPAddress, UserAgent: arg.Meta.UserAgent,
		}); aerr != nil {
			return result, aerr
		}
		return result, apperrors.ErrAccountLocked
	}

	var hash string
	if user.PasswordHash != nil {
		hash = *user.PasswordHash
	}

	verification, err := s.hasher.Verify(hash, arg.Password)
	if err != nil {
		return result, fmt.Errorf("error while verifying password. Err: %w", err)
	}

	if !verification.Matches {
		lockedNow := user.RecordFailedLogin(now, s.lockout.MaxFailedAttempts, s.lockout.LockoutDuration)
		if user, err = s.storage.User().UpdateUser(ctx, user); err != nil {
			return result, err
		}

		if lockedNow {
			if aerr := s.audit(ctx, models.AuditEntry{
				UserID: &user.ID, Email: user.Email, EventType: models.AuditAccountLockout,
				FailureReason: "too many failed login attempts", IPAddress: arg.Meta.IPAddress, UserAgent: arg.Meta.UserAgent,
			}); aerr != nil {
				return result, aerr
			}
			return result, apperrors.ErrAccountLocked
		}

		if aerr := s.audit(ctx, models.AuditEntry{
			UserID: &user.ID, Email: user.Email, EventType: models.AuditFailedLogin,
			FailureReason: "wrong password", IPAddress: arg.Meta.IPAddress, UserAgent: arg.Meta.UserAgent,
		}); aerr != nil {
			return result, aerr
		}
		return result, apperrors.ErrInvalidCredentials
	}

	// Success: migrate outdated hashes while we hold the verified password
	if verification.NeedsRehash {
		fresh, err := s.hasher.Hash(arg.Password)
		if err != nil {
			return result, fmt.Errorf("error while rehashing password. Err: %w", err)
		}
		user.SetPassword(fresh)
	}

	user.ResetLoginAttempts()
	if user, err = s.storage.User().UpdateUser(ctx, user); err != nil {
		return result, err
	}

	pair, err := s.token.GeneratePair(ctx, user, arg.Meta.DeviceInfo, arg.Meta.IPAddress)
	if err != nil {
		return result, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	if err := s.audit(ctx, models.AuditEntry{
		UserID: &user.ID, Email: user.Email, EventType: models.AuditLogin, Success: true,
		IPAddress: arg.Meta.IPAddress, UserAgent: arg.Meta.UserAgent,
	}); err != nil {
		return result, err
	}

	return Result{User: user.Authenticated(), Tokens: pair}, nil
}

// Logout revokes the presented refresh token. Returns whether a live
// token was found; the access token simply ages out.
func (s *AuthService) Logout(ctx context.Context, refreshSecret string, meta RequestMeta) (bool, error) {
	found, err := s.token.Revoke(ctx, refreshSecret)
	if err != nil {
		return false, err
	}

	reason := ""
	if !found {
		reason = "refresh token not found"
	}
	if aerr := s.audit(ctx, models.AuditEntry{
		EventType: models.AuditLogout, Success: found, FailureReason: reason,
		IPAddress: meta.IPAddress, UserAgent: meta.UserAgent,
	}); aerr != nil {
		return found, aerr
	}

	return found, nil
}

// LogoutAllDevices revokes every live refresh token of the user
func (s *AuthService) LogoutAllDevices(ctx context.Context, userID uuid.UUID, meta RequestMeta) (int64, error) {
	count, err := s.token.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	if aerr := s.audit(ctx, models.AuditEntry{
		UserID: &userID, EventType: models.AuditLogout, Success: true,
		IPAddress: meta.IPAddress, UserAgent: meta.UserAgent,
	}); aerr != nil {
		return count, aerr
	}

	return count, nil
}

type ChangePasswordParams struct {
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
	Meta            RequestMeta
}

// ChangePassword verifies the current password, applies the policy to the
// new one and forces re-authentication on every device
func (s *AuthService) ChangePassword(ctx context.Context, arg ChangePasswordParams) error {
	user, err := s.storage.User().GetUserByID(ctx, arg.UserID)
	if err != nil {
		return err
	}

	var hash string
	if user.PasswordHash != nil {
		hash = *user.PasswordHash
	}

	verification, err := s.hasher.Verify(hash, arg.CurrentPassword)
	if err != nil {
		return fmt.Errorf("error while verifying password. Err: %w", err)
	}
	if !verification.Matches {
		if aerr := s.audit(ctx, models.AuditEntry{
			UserID: &user.ID, Email: user.Email, EventType: models.AuditPasswordChange,
			FailureReason: "current password mismatch", IPAddress: arg.Meta.IPAddress, UserAgent: arg.Meta.UserAgent,
		}); aerr != nil {
			return aerr
		}
		return apperrors.ErrPasswordMismatch
	}

	if strength := s.policy.ValidateStrength(arg.NewPassword); !strength.IsValid {
		weak := &apperrors.PasswordTooWeakError{Violations: strength.Errors, Suggestions: strength.Suggestions}
		if aerr := s.audit(ctx, models.AuditEntry{
			UserID: &user.ID, Email: user.Email, EventType: models.AuditPasswordChange,
			FailureReason: weak.Error(), IPAddress: arg.Meta.IPAddress, UserAgent: arg.Meta.UserAgent,
		}); aerr != nil {
			return aerr
		}
		return weak
	}

	fresh, err := s.hasher.Hash(arg.NewPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	user.SetPassword(fresh)
	if user, err = s.storage.User().UpdateUser(ctx, user); err != nil {
		return err
	}

	if _, err := s.token.RevokeAllForUser(ctx, user.ID); err != nil {
		return err
	}

	if err := s.audit(ctx, models.AuditEntry{
		UserID: &user.ID, Email: user.Email, EventType: models.AuditPasswordChange, Success: true,
		IPAddress: arg.Meta.IPAddress, UserAgent: arg.Meta.UserAgent,
	}); err != nil {
		return err
	}

	s.sendMail(ctx, "password changed", func() error { return s.sender.SendPasswordChangedAlert(ctx, user.Email) })

	return nil
}

// RequestPasswordReset stores a single-use reset secret and mails it.
// Always succeeds, with or without a matching account, so responses
// can't be used to enumerate emails.
func (s *AuthService) RequestPasswordReset(ctx context.Context, emailAddr string, useCode bool, meta RequestMeta) error {
	now := time.Now()

	user, err := s.storage.User().GetUserByEmail(ctx, emailAddr)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return s.audit(ctx, models.AuditEntry{
			Email: emailAddr, EventType: models.AuditPasswordResetRequested,
			FailureReason: "user not found", IPAddress: meta.IPAddress, UserAgent: meta.UserAgent,
		})
	case err != nil:
		return err
	}

	var send func() error
	if useCode {
		code, err := newNumericCode(resetCodeDigits)
		if err != nil {
			return fmt.Errorf("error while generating reset code. Err: %w", err)
		}
		user.SetPasswordResetCode(code, now.Add(s.resetCodeTTL))
		send = func() error { return s.sender.SendPasswordResetCode(ctx, user.Email, code) }
	} else {
		token, err := newOpaqueToken()
		if err != nil {
			return fmt.Errorf("error while generating reset token. Err: %w", err)
		}
		user.SetPasswordResetToken(token, now.Add(s.resetTokenTTL))
		send = func() error { return s.sender.SendPasswordResetLink(ctx, user.Email, token) }
	}

	if user, err = s.storage.User().UpdateUser(ctx, user); err != nil {
		return err
	}

	if err := s.audit(ctx, models.AuditEntry{
		UserID: &user.ID, Email: user.Email, EventType: models.AuditPasswordResetRequested, Success: true,
		IPAddress: meta.IPAddress, UserAgent: meta.UserAgent,
	}); err != nil {
		return err
	}

	s.sendMail(ctx, "password reset", send)

	return nil
}

// ResetPasswordWithToken consumes a reset link token
func (s *AuthService) ResetPasswordWithToken(ctx context.Context, token string, newPassword string, meta RequestMeta) error {
	now := time.Now()

	user, err := s.storage.User().GetUserByResetToken(ctx, token)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		if aerr := s.audit(ctx, models.AuditEntry{
			EventType: models.AuditPasswordReset, FailureReason: "reset token not found",
			IPAddress: meta.IPAddress, UserAgent: meta.UserAgent,
		}); aerr != nil {
			return aerr
		}
		return apperrors.ErrResetTokenInvalid
	case err != nil:
		return err
	}

	if !user.HasValidResetToken(now) {
		if aerr := s.audit(ctx, models.AuditEntry{
			UserID: &user.ID, Email: user.Email, EventType: models.AuditPasswordReset,
			FailureReason: "reset token expired", IPAddress: meta.IPAddress, UserAgent: meta.UserAgent,
		}); aerr != nil {
			return aerr
		}
		return apperrors.ErrResetTokenInvalid
	}

	return s.resetPassword(ctx, user, newPassword, meta)
}

// ResetPasswordWithCode consumes a short numeric reset code
func (s *AuthService) ResetPasswordWithCode(ctx context.Context, emailAddr string, code string, newPassword string, meta RequestMeta) error {
	now := time.Now()

	user, err := s.storage.User().GetUserByEmail(ctx, emailAddr)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		if aerr := s.audit(ctx, models.AuditEntry{
			Email: emailAddr, EventType: models.AuditPasswordReset,
			FailureReason: "user not found", IPAddress: meta.IPAddress, UserAgent: meta.UserAgent,
		}); aerr != nil {
			return aerr
		}
		return apperrors.ErrResetCodeInvalid
	case err != nil:
		return err
	}

	if !user.HasValidResetCode(now) || subtle.ConstantTimeCompare([]byte(*user.PasswordResetCode), []byte(code)) != 1 {
		if aerr := s.audit(ctx, models.AuditEntry{
			UserID: &user.ID, Email: user.Email, EventType: models.AuditPasswordReset,
			FailureReason: "reset code invalid or expired", IPAddress: meta.IPAddress, UserAgent: meta.UserAgent,
		}); aerr != nil {
			return aerr
		}
		return apperrors.ErrResetCodeInvalid
	}

	return s.resetPassword(ctx, user, newPassword, meta)
}

// Shared tail of both reset flows: policy, rehash, clear secret, revoke all
func (s *AuthService) resetPassword(ctx context.Context, user models.User, newPassword string, meta RequestMeta) error {
	if strength := s.policy.ValidateStrength(newPassword); !strength.IsValid {
		return &apperrors.PasswordTooWeakError{Violations: strength.Errors, Suggestions: strength.Suggestions}
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	user.SetPassword(hash)
	user.ClearPasswordReset()
	if user, err = s.storage.User().UpdateUser(ctx, user); err != nil {
		return err
	}

	if _, err := s.token.RevokeAllForUser(ctx, user.ID); err != nil {
		return err
	}

	if err := s.audit(ctx, models.AuditEntry{
		UserID: &user.ID, Email: user.Email, EventType: models.AuditPasswordReset, Success: true,
		IPAddress: meta.IPAddress, UserAgent: meta.UserAgent,
	}); err != nil {
		return err
	}

	s.sendMail(ctx, "password changed", func() error { return s.sender.SendPasswordChangedAlert(ctx, user.Email) })

	return nil
}

// VerifyEmail consumes a single-use verification token
func (s *AuthService) VerifyEmail(ctx context.Context, token string, meta RequestMeta) error {
	user, err := s.storage.User().GetUserByVerificationToken(ctx, token)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		if aerr := s.audit(ctx, models.AuditEntry{
			EventType: models.AuditEmailVerification, FailureReason: "verification token not found",
			IPAddress: meta.IPAddress, UserAgent: meta.UserAgent,
		}); aerr != nil {
			return aerr
		}
		return apperrors.ErrVerificationTokenInvalid
	case err != nil:
		return err
	}

	if user.EmailVerified {
		if aerr := s.audit(ctx, models.AuditEntry{
			UserID: &user.ID, Email: user.Email, EventType: models.AuditEmailVerification,
			FailureReason: "email already verified", IPAddress: meta.IPAddress, UserAgent: meta.UserAgent,
		}); aerr != nil {
			return aerr
		}
		return apperrors.ErrEmailAlreadyVerified
	}

	user.MarkEmailVerified()
	if user, err = s.storage.User().UpdateUser(ctx, user); err != nil {
		return err
	}

	return s.audit(ctx, models.AuditEntry{
		UserID: &user.ID, Email: user.Email, EventType: models.AuditEmailVerification, Success: true,
		IPAddress: meta.IPAddress, UserAgent: meta.UserAgent,
	})
}

// ResendVerificationEmail rotates the verification token and mails it again
func (s *AuthService) ResendVerificationEmail(ctx context.Context, emailAddr string, meta RequestMeta) error {
	user, err := s.storage.User().GetUserByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}

	if user.EmailVerified {
		return apperrors.ErrEmailAlreadyVerified
	}

	token, err := newOpaqueToken()
	if err != nil {
		return fmt.Errorf("error while generating verification token. Err: %w", err)
	}

	user.SetEmailVerificationToken(token)
	if user, err = s.storage.User().UpdateUser(ctx, user); err != nil {
		return err
	}

	s.sendMail(ctx, "verification", func() error { return s.sender.SendVerificationLink(ctx, user.Email, token) })

	return nil
}

// Refresh rotates the refresh token and re-hydrates the caller projection
func (s *AuthService) Refresh(ctx context.Context, refreshSecret string, meta RequestMeta) (Result, error) {
	var result Result

	pair, user, err := s.token.Rotate(ctx, refreshSecret, meta.IPAddress)
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenInvalid):
		if aerr := s.audit(ctx, models.AuditEntry{
			EventType: models.AuditTokenRefresh, FailureReason: err.Error(),
			IPAddress: meta.IPAddress, UserAgent: meta.UserAgent,
		}); aerr != nil {
			return result, aerr
		}
		return result, apperrors.ErrRefreshTokenInvalid
	case err != nil:
		return result, err
	}

	if err := s.audit(ctx, models.AuditEntry{
		UserID: &user.ID, Email: user.Email, EventType: models.AuditTokenRefresh, Success: true,
		IPAddress: meta.IPAddress, UserAgent: meta.UserAgent,
	}); err != nil {
		return result, err
	}

	return Result{User: user.Authenticated(), Tokens: pair}, nil
}

// Authenticate validates an access token and returns the caller projection
// carried in its claims. No storage round-trip.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (models.AuthenticatedUser, error) {
	claims, err := s.token.ParseAccess(ctx, accessToken)
	if err != nil {
		return models.AuthenticatedUser{}, fmt.Errorf("%w: %s", apperrors.ErrInvalidCredentials, "access token rejected")
	}

	return models.AuthenticatedUser{
		ID:            claims.UserID,
		FamilyID:      claims.FamilyID,
		Email:         claims.Email,
		Role:          claims.Role,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// ActiveSessions lists the user's live sessions
func (s *AuthService) ActiveSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	return s.token.ActiveSessions(ctx, userID)
}

// Audit writes are fatal by decision: a lost security event is an
// infrastructure failure, not something to swallow
func (s *AuthService) audit(ctx context.Context, entry models.AuditEntry) error {
	if _, err := s.storage.Audit().Add(ctx, entry); err != nil {
		return fmt.Errorf("audit write failed: %w", err)
	}
	return nil
}

// Mail delivery is best effort: log and move on
func (s *AuthService) sendMail(ctx context.Context, kind string, send func() error) {
	if err := send(); err != nil {
		s.logger.Warn("mail delivery failed", "kind", kind, "error", err.Error())
	}
}

func defaultFamilyName(lastName string, emailAddr string) string {
	if lastName != "" {
		return lastName
	}
	if at := strings.IndexByte(emailAddr, '@'); at > 0 {
		return emailAddr[:at]
	}
	return emailAddr
}

func newOpaqueToken() (string, error) {
	b := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func newNumericCode(digits int) (string, error) {
	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for range digits {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}
