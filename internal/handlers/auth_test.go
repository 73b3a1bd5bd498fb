package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/andrekirst/familyauth/internal/logger"
	"github.com/andrekirst/familyauth/internal/repository/postgres"
	"github.com/andrekirst/familyauth/internal/service/auth"
	"github.com/andrekirst/familyauth/internal/service/auth/tokenmanager"
	"github.com/andrekirst/familyauth/internal/service/password"
	"github.com/andrekirst/familyauth/internal/testutil"
)

func Test_AuthHandlers(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Run http server with the production auth service attached
	withTx := func(dbpool *pgxpool.Pool, t *testing.T, fn func(url string, s *auth.AuthService)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, storage.Refresh(), storage.User(), nil)
			require.NoError(t, err, "token manager should be created without errors")

			hasher, err := password.NewHasher(password.HasherConfig{
				Memory:      8 * 1024,
				Time:        1,
				Parallelism: 1,
				SaltLength:  16,
				KeyLength:   32,
			})
			require.NoError(t, err, "hasher should be created without errors")

			s, err := auth.NewService(auth.Config{}, tokenManager, hasher, password.NewPolicy(password.DefaultPolicyConfig()), storage, nil, nil)
			require.NoError(t, err, "auth service starting error", err)

			srv := httptest.NewServer(NewRouter(s, logger.NewNoOp()))
			defer srv.Close()

			fn(srv.URL, s)
		})
	}

	register := func(t *testing.T, url string, email string) *http.Response {
		t.Helper()

		data := `{"email": "` + email + `", "password": "Str0ng!Passphrase99", "first_name": "Kim", "last_name": "Tester"}`
		resp, err := http.Post(url+"/api/auth/register", "application/json", strings.NewReader(data))
		require.NoError(t, err)

		return resp
	}

	t.Run("register ok", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, _ *auth.AuthService) {
			resp := register(t, url, "kim@example.com")
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusCreated, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.Contains(t, string(body), "User registered successfully")
			require.Contains(t, string(body), "kim@example.com")

			require.Equal(t, 1, len(resp.Cookies()))
			cookie := resp.Cookies()[0]
			require.Equal(t, "refreshtoken", cookie.Name)
			require.Equal(t, cookie.HttpOnly, true, "refresh cookie should be HttpOnly")
			require.Equal(t, "/", cookie.Path, "refresh cookie should be available on / path")
			require.Equal(t, http.SameSiteStrictMode, cookie.SameSite, "refresh cookie should be SameSite Strict")
			require.InDelta(t, (30 * 24 * time.Hour).Seconds(), cookie.MaxAge, 1, "max age should be refresh TTL with 1 second delta")
			require.NotEmpty(t, cookie.Value, "refresh cookie should not be empty")

			require.Contains(t, resp.Header, "Authorization")
			header := resp.Header.Get("Authorization")
			require.Contains(t, header, "Bearer")
		})
	})

	t.Run("register weak password", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, _ *auth.AuthService) {
			data := `{"email": "kim@example.com", "password": "short", "first_name": "Kim"}`
			resp, err := http.Post(url+"/api/auth/register", "application/json", strings.NewReader(data))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.Contains(t, string(body), "password_too_weak")
			require.Contains(t, string(body), "violations")
		})
	})

	t.Run("register invalid email", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, _ *auth.AuthService) {
			data := `{"email": "not-an-email", "password": "Str0ng!Passphrase99", "first_name": "Kim"}`
			resp, err := http.Post(url+"/api/auth/register", "application/json", strings.NewReader(data))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.Contains(t, string(body), "validation_failed")
		})
	})

	t.Run("register duplicate", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, _ *auth.AuthService) {
			resp := register(t, url, "dup@example.com")
			_ = resp.Body.Close()

			resp = register(t, url, "dup@example.com")
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusConflict, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Email already registered"
				}`, string(body))
		})
	})

	t.Run("login ok", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, _ *auth.AuthService) {
			resp := register(t, url, "kim@example.com")
			_ = resp.Body.Close()

			data := `{"email": "kim@example.com", "password": "Str0ng!Passphrase99"}`
			resp, err := http.Post(url+"/api/auth/login", "application/json", strings.NewReader(data))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.Contains(t, string(body), "User logged in successfully")
			require.Equal(t, 1, len(resp.Cookies()))
			require.Contains(t, resp.Header.Get("Authorization"), "Bearer")
		})
	})

	t.Run("login wrong password", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, _ *auth.AuthService) {
			resp := register(t, url, "kim@example.com")
			_ = resp.Body.Close()

			data := `{"email": "kim@example.com", "password": "WrongPassword1!"}`
			resp, err := http.Post(url+"/api/auth/login", "application/json", strings.NewReader(data))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Invalid email or password"
				}`, string(body))

			require.Equal(t, 0, len(resp.Cookies()), "no cookies should be set on login error")
			require.NotContains(t, resp.Header, "Authorization", "Authorization header should not be set")
		})
	})

	t.Run("refresh ok", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, _ *auth.AuthService) {
			resp := register(t, url, "kim@example.com")
			_ = resp.Body.Close()
			cookie := resp.Cookies()[0]

			req, err := http.NewRequest(http.MethodPost, url+"/api/auth/refresh", nil)
			require.NoError(t, err)
			req.AddCookie(cookie)

			resp, err = http.DefaultClient.Do(req)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.Equal(t, 1, len(resp.Cookies()))
			require.NotEqual(t, cookie.Value, resp.Cookies()[0].Value, "refresh token should rotate")
		})
	})

	t.Run("refresh without cookie", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, _ *auth.AuthService) {
			resp, err := http.Post(url+"/api/auth/refresh", "application/json", nil)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	})

	t.Run("refresh with stale cookie after rotation", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, _ *auth.AuthService) {
			resp := register(t, url, "kim@example.com")
			_ = resp.Body.Close()
			cookie := resp.Cookies()[0]

			refresh := func() *http.Response {
				req, err := http.NewRequest(http.MethodPost, url+"/api/auth/refresh", nil)
				require.NoError(t, err)
				req.AddCookie(cookie)
				resp, err := http.DefaultClient.Do(req)
				require.NoError(t, err)
				return resp
			}

			first := refresh()
			_ = first.Body.Close()
			require.Equal(t, http.StatusOK, first.StatusCode)

			second := refresh()
			defer func() { _ = second.Body.Close() }()
			require.Equal(t, http.StatusUnauthorized, second.StatusCode, "reused refresh token must be rejected")
		})
	})

	t.Run("me with bearer token", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, _ *auth.AuthService) {
			resp := register(t, url, "kim@example.com")
			_ = resp.Body.Close()
			authHeader := resp.Header.Get("Authorization")

			req, err := http.NewRequest(http.MethodGet, url+"/api/auth/me", nil)
			require.NoError(t, err)
			req.Header.Set("Authorization", authHeader)

			resp, err = http.DefaultClient.Do(req)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.Contains(t, string(body), "kim@example.com")
		})
	})

	t.Run("me without token", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, _ *auth.AuthService) {
			resp, err := http.Get(url + "/api/auth/me")
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	})

	t.Run("logout clears cookie", func(t *testing.T) {
		withTx(pg.Pool, t, func(url string, _ *auth.AuthService) {
			resp := register(t, url, "kim@example.com")
			_ = resp.Body.Close()
			cookie := resp.Cookies()[0]

			req, err := http.NewRequest(http.MethodPost, url+"/api/auth/logout", nil)
			require.NoError(t, err)
			req.AddCookie(cookie)

			resp, err = http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Equal(t, 1, len(resp.Cookies()))
			require.Empty(t, resp.Cookies()[0].Value, "refresh cookie should be cleared")
			require.Negative(t, resp.Cookies()[0].MaxAge)
		})
	})
}
