package handlers

import (
	"errors"
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/andrekirst/familyauth/internal/apperrors"
	"github.com/andrekirst/familyauth/internal/handlers/render"
	"github.com/andrekirst/familyauth/internal/handlers/userctx"
	"github.com/andrekirst/familyauth/internal/logger"
	"github.com/andrekirst/familyauth/internal/models"
	"github.com/andrekirst/familyauth/internal/service/auth"
)

type userResponse struct {
	ID            uuid.UUID `json:"id"`
	FamilyID      uuid.UUID `json:"family_id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
}

func toUserResponse(u models.AuthenticatedUser) userResponse {
	return userResponse{
		ID:            u.ID,
		FamilyID:      u.FamilyID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
	}
}

// requestMeta collects transport facts for tokens and the audit trail
func requestMeta(r *http.Request) auth.RequestMeta {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}

	return auth.RequestMeta{
		DeviceInfo: r.UserAgent(),
		IPAddress:  ip,
		UserAgent:  r.UserAgent(),
	}
}

func handleRegister(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email      string `json:"email" validate:"required,email,max=254"`
		Password   string `json:"password" validate:"required"`
		FirstName  string `json:"first_name" validate:"required,max=100"`
		LastName   string `json:"last_name" validate:"max=100"`
		FamilyName string `json:"family_name" validate:"max=100"`
	}
	type response struct {
		Message string       `json:"message"`
		User    userResponse `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		result, err := authService.Register(r.Context(), auth.RegisterParams{
			Email:      data.Email,
			Password:   data.Password,
			FirstName:  data.FirstName,
			LastName:   data.LastName,
			FamilyName: data.FamilyName,
			Meta:       requestMeta(r),
		})
		if err != nil {
			if weak, ok := apperrors.AsPasswordTooWeak(err); ok {
				render.WeakPassword(w, weak)
				return
			}
			switch {
			case errors.Is(err, apperrors.ErrEmailAlreadyExists):
				render.ServiceError(w, "Email already registered", http.StatusConflict)
			default:
				l.Error("registration failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		setTokenPair(w, result.Tokens)
		render.JSONWithStatus(w, response{
			Message: "User registered successfully",
			User:    toUserResponse(result.User),
		}, http.StatusCreated)
	})
}

func handleLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		Message string       `json:"message"`
		User    userResponse `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		result, err := authService.Login(r.Context(), auth.LoginParams{
			Email:    data.Email,
			Password: data.Password,
			Meta:     requestMeta(r),
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidCredentials):
				render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrAccountLocked):
				render.ServiceError(w, "Account temporarily locked", http.StatusLocked)
			default:
				l.Error("login failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		setTokenPair(w, result.Tokens)
		render.JSON(w, response{
			Message: "User logged in successfully",
			User:    toUserResponse(result.User),
		})
	})
}

func handleTokenRefresh(authService authService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := readRefreshToken(r)
		if err != nil {
			render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
			return
		}

		result, err := authService.Refresh(r.Context(), refresh, requestMeta(r))
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrRefreshTokenInvalid):
				clearRefreshCookie(w)
				render.ServiceError(w, "Refresh token invalid", http.StatusUnauthorized)
			default:
				l.Error("token refresh failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		setTokenPair(w, result.Tokens)
		render.JSON(w, response{Message: "Tokens refreshed successfully"})
	})
}

func handleLogout(authService authService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := readRefreshToken(r)
		if err != nil {
			render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
			return
		}

		// Result is the same whether the token was live or not
		if _, err := authService.Logout(r.Context(), refresh, requestMeta(r)); err != nil {
			l.Error("logout failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		clearRefreshCookie(w)
		render.JSON(w, response{Message: "User logged out successfully"})
	})
}

func handleLogoutAllDevices(authService authService, l logger.Logger) http.Handler {
	type response struct {
		Message         string `json:"message"`
		RevokedSessions int64  `json:"revoked_sessions"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		count, err := authService.LogoutAllDevices(r.Context(), user.ID, requestMeta(r))
		if err != nil {
			l.Error("logout all devices failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		clearRefreshCookie(w)
		render.JSON(w, response{Message: "All sessions revoked", RevokedSessions: count})
	})
}

func handleChangePassword(authService authService, l logger.Logger) http.Handler {
	type request struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = authService.ChangePassword(r.Context(), auth.ChangePasswordParams{
			UserID:          user.ID,
			CurrentPassword: data.CurrentPassword,
			NewPassword:     data.NewPassword,
			Meta:            requestMeta(r),
		})
		if err != nil {
			if weak, ok := apperrors.AsPasswordTooWeak(err); ok {
				render.WeakPassword(w, weak)
				return
			}
			switch {
			case errors.Is(err, apperrors.ErrPasswordMismatch):
				render.ServiceError(w, "Current password is wrong", http.StatusForbidden)
			default:
				l.Error("password change failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		clearRefreshCookie(w)
		render.JSON(w, response{Message: "Password changed successfully"})
	})
}

func handleRequestPasswordReset(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email   string `json:"email" validate:"required,email"`
		UseCode bool   `json:"use_code"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		// Always the same answer, accounts must not be enumerable
		if err := authService.RequestPasswordReset(r.Context(), data.Email, data.UseCode, requestMeta(r)); err != nil {
			l.Error("password reset request failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Message: "If the account exists, reset instructions were sent"})
	})
}

func handleResetPasswordWithToken(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"new_password" validate:"required"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = authService.ResetPasswordWithToken(r.Context(), data.Token, data.NewPassword, requestMeta(r))
		if err != nil {
			if weak, ok := apperrors.AsPasswordTooWeak(err); ok {
				render.WeakPassword(w, weak)
				return
			}
			switch {
			case errors.Is(err, apperrors.ErrResetTokenInvalid):
				render.ServiceError(w, "Reset token invalid or expired", http.StatusBadRequest)
			default:
				l.Error("password reset failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "Password reset successfully"})
	})
}

func handleResetPasswordWithCode(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email       string `json:"email" validate:"required,email"`
		Code        string `json:"code" validate:"required,len=6,numeric"`
		NewPassword string `json:"new_password" validate:"required"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = authService.ResetPasswordWithCode(r.Context(), data.Email, data.Code, data.NewPassword, requestMeta(r))
		if err != nil {
			if weak, ok := apperrors.AsPasswordTooWeak(err); ok {
				render.WeakPassword(w, weak)
				return
			}
			switch {
			case errors.Is(err, apperrors.ErrResetCodeInvalid):
				render.ServiceError(w, "Reset code invalid or expired", http.StatusBadRequest)
			default:
				l.Error("password reset failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "Password reset successfully"})
	})
}

func handleVerifyEmail(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Token string `json:"token" validate:"required"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = authService.VerifyEmail(r.Context(), data.Token, requestMeta(r))
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrVerificationTokenInvalid):
				render.ServiceError(w, "Verification token invalid", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrEmailAlreadyVerified):
				render.ServiceError(w, "Email already verified", http.StatusConflict)
			default:
				l.Error("email verification failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "Email verified successfully"})
	})
}

func handleResendVerification(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email string `json:"email" validate:"required,email"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = authService.ResendVerificationEmail(r.Context(), data.Email, requestMeta(r))
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				// Same answer as success, accounts must not be enumerable
			case errors.Is(err, apperrors.ErrEmailAlreadyVerified):
				render.ServiceError(w, "Email already verified", http.StatusConflict)
				return
			default:
				l.Error("resend verification failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				return
			}
		}

		render.JSON(w, response{Message: "If the account exists, a verification email was sent"})
	})
}

func handleSessions(authService authService, l logger.Logger) http.Handler {
	type sessionResponse struct {
		ID         uuid.UUID `json:"id"`
		DeviceInfo string    `json:"device_info"`
		IPAddress  string    `json:"ip_address"`
		CreatedAt  string    `json:"created_at"`
		ExpiresAt  string    `json:"expires_at"`
	}
	type response struct {
		Sessions []sessionResponse `json:"sessions"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		sessions, err := authService.ActiveSessions(r.Context(), user.ID)
		if err != nil {
			l.Error("listing sessions failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		resp := response{Sessions: make([]sessionResponse, 0, len(sessions))}
		for _, s := range sessions {
			resp.Sessions = append(resp.Sessions, sessionResponse{
				ID:         s.ID,
				DeviceInfo: s.DeviceInfo,
				IPAddress:  s.IPAddress,
				CreatedAt:  s.CreatedAt.Format(timeFormat),
				ExpiresAt:  s.ExpiresAt.Format(timeFormat),
			})
		}

		render.JSON(w, resp)
	})
}

func handleUserMe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())
		render.JSON(w, toUserResponse(user))
	})
}
