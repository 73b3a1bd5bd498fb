package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/andrekirst/familyauth/internal/handlers/middleware"
	"github.com/andrekirst/familyauth/internal/logger"
	"github.com/andrekirst/familyauth/internal/models"
	"github.com/andrekirst/familyauth/internal/service/auth"
)

const timeFormat = time.RFC3339

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(authService authService, logger logger.Logger) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	apiauth := http.NewServeMux()

	apiauth.Handle("POST /register", handleRegister(authService, logger))
	apiauth.Handle("POST /login", handleLogin(authService, logger))
	apiauth.Handle("POST /refresh", handleTokenRefresh(authService, logger))
	apiauth.Handle("POST /logout", handleLogout(authService, logger))
	apiauth.Handle("POST /password/reset/request", handleRequestPasswordReset(authService, logger))
	apiauth.Handle("POST /password/reset/token", handleResetPasswordWithToken(authService, logger))
	apiauth.Handle("POST /password/reset/code", handleResetPasswordWithCode(authService, logger))
	apiauth.Handle("POST /email/verify", handleVerifyEmail(authService, logger))
	apiauth.Handle("POST /email/resend", handleResendVerification(authService, logger))

	apiauth.Handle("POST /logout_all", withAuth(handleLogoutAllDevices(authService, logger)))
	apiauth.Handle("POST /password/change", withAuth(handleChangePassword(authService, logger)))
	apiauth.Handle("GET /sessions", withAuth(handleSessions(authService, logger)))
	apiauth.Handle("GET /me", withAuth(handleUserMe()))

	root := http.NewServeMux()
	root.Handle("/api/auth/", http.StripPrefix("/api/auth", apiauth))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register family owner with email and password
	// Has to return apperrors.ErrEmailAlreadyExists if email is taken and
	// apperrors.PasswordTooWeakError if the password fails the policy
	Register(ctx context.Context, arg auth.RegisterParams) (auth.Result, error)

	// Login with email and password
	// Unknown email and wrong password both return apperrors.ErrInvalidCredentials
	// A locked account returns apperrors.ErrAccountLocked
	Login(ctx context.Context, arg auth.LoginParams) (auth.Result, error)

	// Refresh rotates the refresh token
	// Any dead token returns apperrors.ErrRefreshTokenInvalid
	Refresh(ctx context.Context, refreshSecret string, meta auth.RequestMeta) (auth.Result, error)

	Logout(ctx context.Context, refreshSecret string, meta auth.RequestMeta) (bool, error)
	LogoutAllDevices(ctx context.Context, userID uuid.UUID, meta auth.RequestMeta) (int64, error)

	ChangePassword(ctx context.Context, arg auth.ChangePasswordParams) error
	RequestPasswordReset(ctx context.Context, email string, useCode bool, meta auth.RequestMeta) error
	ResetPasswordWithToken(ctx context.Context, token string, newPassword string, meta auth.RequestMeta) error
	ResetPasswordWithCode(ctx context.Context, email string, code string, newPassword string, meta auth.RequestMeta) error

	VerifyEmail(ctx context.Context, token string, meta auth.RequestMeta) error
	ResendVerificationEmail(ctx context.Context, email string, meta auth.RequestMeta) error

	// Validate access token for the auth middleware
	Authenticate(ctx context.Context, accessToken string) (models.AuthenticatedUser, error)
	ActiveSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
}
