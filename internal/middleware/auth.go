package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/fixbot/fixbot/internal/domain"
	"github.com/fixbot/fixbot/internal/repository"
)

type contextKey string

const (
	// ContextKeyUser is the key for storing the authenticated user in request context.
	ContextKeyUser contextKey = "user"
)

// sessionCookieName is the cookie the dashboard stores its session token in.
const sessionCookieName = "session"

// AuthMiddleware handles session token authentication for the dashboard API.
// Tokens are accepted either as a Bearer Authorization header or a session
// cookie.
type AuthMiddleware struct {
	userRepo *repository.UserRepository
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(userRepo *repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		userRepo: userRepo,
	}
}

// sessionToken extracts the session token from the request, preferring the
// Authorization header over the cookie.
func sessionToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
		return ""
	}

	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Authenticate validates the session token and adds the user to request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}

		user, err := m.userRepo.GetBySessionToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				http.Error(w, "invalid session", http.StatusUnauthorized)
				return
			}
			if errors.Is(err, domain.ErrSessionExpired) {
				http.Error(w, "session expired", http.StatusUnauthorized)
				return
			}
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(ctx context.Context) (*domain.User, error) {
	user, ok := ctx.Value(ContextKeyUser).(*domain.User)
	if !ok || user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}
