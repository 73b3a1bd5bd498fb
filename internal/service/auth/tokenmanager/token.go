package tokenmanager

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/andrekirst/familyauth/internal/apperrors"
	"github.com/andrekirst/familyauth/internal/logger"
	"github.com/andrekirst/familyauth/internal/models"
	"github.com/andrekirst/familyauth/internal/repository"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
	defaultSigningMethod   = "HS256"

	// Clock skew allowance when validating access tokens
	validationLeeway = 30 * time.Second

	// Refresh secrets are 64 bytes of CSPRNG output, URL-safe encoded.
	// Only the SHA-256 digest is ever persisted.
	refreshSecretBytes = 64
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	UserID        uuid.UUID `json:"uid"`
	Email         string    `json:"email"`
	FamilyID      uuid.UUID `json:"fid"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
}

// Token manager config with sensible defaults
type Config struct {
	// Secret key to sign access tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then default is used
	Alg string

	// Issuer and audience claims stamped on and required from access tokens
	Issuer   string
	Audience string

	// Access and refresh token lifetimes
	// If not set then default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenManager mints signed access tokens and opaque refresh tokens and
// owns the refresh rotation protocol
type TokenManager struct {
	key      string
	alg      jwt.SigningMethod
	issuer   string
	audience string

	accessTTL  time.Duration
	refreshTTL time.Duration

	refreshRepo repository.RefreshTokenRepo
	userRepo    repository.UserRepo

	logger logger.Logger
}

func New(cfg Config, refreshRepo repository.RefreshTokenRepo, userRepo repository.UserRepo, l logger.Logger) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	if l == nil {
		l = logger.NewNoOp()
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		key:         cfg.SecretKey,
		alg:         jwt.GetSigningMethod(cfg.Alg),
		issuer:      cfg.Issuer,
		audience:    cfg.Audience,
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		refreshRepo: refreshRepo,
		userRepo:    userRepo,
		logger:      l,
	}, nil
}

// GeneratePair mints a fresh access and refresh token pair for the user
func (m *TokenManager) GeneratePair(ctx context.Context, user models.User, deviceInfo string, ipAddress string) (models.TokenPair, error) {
	return m.generatePair(ctx, user, uuid.New(), deviceInfo, ipAddress)
}

func (m *TokenManager) generatePair(ctx context.Context, user models.User, refreshID uuid.UUID, deviceInfo string, ipAddress string) (models.TokenPair, error) {
	var pair models.TokenPair
	now := time.Now().Truncate(time.Second)
	accessExpiresAt := now.Add(m.accessTTL)
	refreshExpiresAt := now.Add(m.refreshTTL)

	// Generate JWT access token encoded as string
	accessToken := jwt.NewWithClaims(
		m.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   user.ID.String(),
				Issuer:    m.issuer,
				Audience:  jwt.ClaimStrings{m.audience},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(accessExpiresAt),
			},
			UserID:        user.ID,
			Email:         user.Email,
			FamilyID:      user.FamilyID,
			Role:          user.Role,
			EmailVerified: user.EmailVerified,
		},
	)
	access, err := accessToken.SignedString([]byte(m.key))
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	// Generate opaque refresh secret, persist only its hash
	secret, err := newRefreshSecret()
	if err != nil {
		return pair, fmt.Errorf("error while generating refresh token. Err: %w", err)
	}

	err = m.refreshRepo.Save(ctx, models.RefreshToken{
		ID:         refreshID,
		UserID:     user.ID,
		TokenHash:  hashSecret(secret),
		IssuedAt:   now,
		ExpiresAt:  refreshExpiresAt,
		DeviceInfo: deviceInfo,
		IPAddress:  ipAddress,
	})
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessExpiresAt},
		Refresh: models.IssuedToken{Value: secret, ExpiresAt: refreshExpiresAt},
	}, nil
}

// Rotate exchanges a refresh secret for a new token pair.
//
// Not found, revoked and expired are indistinguishable to the caller:
// each returns apperrors.ErrRefreshTokenInvalid (wrapped with the precise
// reason for audit). The old record is revoked with a link to its
// replacement, so a later re-presentation of the old secret is
// recognizable as reuse.
func (m *TokenManager) Rotate(ctx context.Context, secret string, ipAddress string) (models.TokenPair, models.User, error) {
	var pair models.TokenPair
	var user models.User
	now := time.Now()

	token, err := m.refreshRepo.GetByHash(ctx, hashSecret(secret))
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		return pair, user, fmt.Errorf("token not found: %w", apperrors.ErrRefreshTokenInvalid)
	case err != nil:
		return pair, user, err
	}

	if token.IsRevoked() {
		if token.WasRotated() {
			// Reuse of an already rotated token is the classic theft
			// signal. Denied, logged, left to operators to act on.
			m.logger.Warn("rotated refresh token presented again",
				"user_id", token.UserID,
				"token_id", token.ID,
				"replaced_by", token.ReplacedByTokenID,
			)
			return pair, user, fmt.Errorf("token reuse detected: %w", apperrors.ErrRefreshTokenInvalid)
		}
		return pair, user, fmt.Errorf("token revoked: %w", apperrors.ErrRefreshTokenInvalid)
	}

	if token.IsExpired(now) {
		return pair, user, fmt.Errorf("%w: %w", apperrors.ErrRefreshTokenExpired, apperrors.ErrRefreshTokenInvalid)
	}

	user, err = m.userRepo.GetUserByID(ctx, token.UserID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return pair, user, fmt.Errorf("owning user missing: %w", apperrors.ErrRefreshTokenInvalid)
	case err != nil:
		return pair, user, err
	}

	user.ClearExpiredLockout(now)
	if user.IsLockedOut(now) {
		return pair, user, fmt.Errorf("owning user locked out: %w", apperrors.ErrRefreshTokenInvalid)
	}

	// Claim the old token atomically: revoke it and link the successor.
	// A concurrent rotation with the same secret loses the claim and fails.
	newID := uuid.New()
	err = m.refreshRepo.Revoke(ctx, token.ID, now, &newID)
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenRevoked):
		return pair, user, fmt.Errorf("token claimed concurrently: %w", apperrors.ErrRefreshTokenInvalid)
	case err != nil:
		return pair, user, err
	}

	// Keep original device info; fall back to the original address
	// if the caller didn't supply one
	if ipAddress == "" {
		ipAddress = token.IPAddress
	}

	pair, err = m.generatePair(ctx, user, newID, token.DeviceInfo, ipAddress)
	if err != nil {
		return pair, user, err
	}

	return pair, user, nil
}

// Revoke marks the token of the given secret revoked without a rotation
// link (explicit logout). Returns whether a live record was found.
func (m *TokenManager) Revoke(ctx context.Context, secret string) (bool, error) {
	token, err := m.refreshRepo.GetByHash(ctx, hashSecret(secret))
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		return false, nil
	case err != nil:
		return false, err
	}

	err = m.refreshRepo.Revoke(ctx, token.ID, time.Now(), nil)
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenRevoked):
		return false, nil
	case err != nil:
		return false, err
	}

	return true, nil
}

// RevokeAllForUser revokes every live token of the user, forcing
// re-authentication on all devices
func (m *TokenManager) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := m.refreshRepo.RevokeAllForUser(ctx, userID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("error while revoking user tokens. Err: %w", err)
	}
	return count, nil
}

// ParseAccess parses and validates an access token: signature, issuer,
// audience and expiry, with a small clock skew allowance
func (m *TokenManager) ParseAccess(ctx context.Context, access string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(m.key), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithLeeway(validationLeeway),
	)
	if err != nil {
		return nil, fmt.Errorf("error while parsing or validating token. Err: %w", err)
	}

	return claims, nil
}

// ActiveSessions lists the user's live refresh tokens as opaque session
// descriptors. Neither the secret nor its hash is exposed.
func (m *TokenManager) ActiveSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	tokens, err := m.refreshRepo.ListActiveForUser(ctx, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("error while listing user tokens. Err: %w", err)
	}

	sessions := make([]models.Session, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, models.Session{
			ID:         t.ID,
			DeviceInfo: t.DeviceInfo,
			IPAddress:  t.IPAddress,
			CreatedAt:  t.IssuedAt,
			ExpiresAt:  t.ExpiresAt,
		})
	}

	return sessions, nil
}

func newRefreshSecret() (string, error) {
	b := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
