package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/hevault-io/hevault/internal/server/models"
)

type ctxKey string

const userKey ctxKey = "user"

// authMiddleware resolves the bearer token to a user and stores it on the
// request context.
func (s *HTTPServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing token"})
			return
		}

		// any authentication failure is a plain 401 here; the WebSocket
		// endpoint is the one place that distinguishes the cases
		user, err := s.users.Authenticate(r.Context(), token)
		if err != nil {
			s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// currentUser returns the authenticated user placed by authMiddleware. Must
// only be called on routes behind it.
func currentUser(r *http.Request) *models.User {
	return r.Context().Value(userKey).(*models.User)
}
