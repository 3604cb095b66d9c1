package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"chat-server/auth"
	"chat-server/errors"
)

type contextKey string

const claimsKey contextKey = "claims"

// requireAuth validates the Bearer token and stores its claims in the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			s.writeError(w, fmt.Errorf("%w: missing bearer token", errors.ErrUnauthenticated))
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			s.writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

func claimsFrom(ctx context.Context) (*auth.CustomClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.CustomClaims)
	return claims, ok
}
