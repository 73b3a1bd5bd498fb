package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/andrekirst/familyauth/internal/handlers/render"
	"github.com/andrekirst/familyauth/internal/handlers/userctx"
	"github.com/andrekirst/familyauth/internal/models"
)

type authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (models.AuthenticatedUser, error)
}

// AuthMiddleware validates the bearer access token and puts the
// authenticated user into the request context
func AuthMiddleware(a authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := a.Authenticate(r.Context(), token)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}
