package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"ets/internal/domain/auth"
	"ets/internal/platform/logging"
)

// Revoker reports whether a token id was revoked at logout.
type Revoker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Auth attaches the caller to the context when a valid, unrevoked bearer
// token is present. Requests without one pass through anonymously.
func Auth(secret string, revoker Revoker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if revoker != nil && claims.ID != "" {
				revoked, err := revoker.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					logging.From(r.Context()).Warn().Err(err).Msg("token revocation check failed")
				}
				// an unverifiable token is treated like a revoked one
				if revoked || err != nil {
					next.ServeHTTP(w, r)
					return
				}
			}

			var expiresAt time.Time
			if claims.ExpiresAt != nil {
				expiresAt = claims.ExpiresAt.Time
			}
			ctx := context.WithValue(r.Context(), ctxKeyUser, auth.UserContext{
				UserID:    claims.UserID,
				Email:     claims.Email,
				Role:      claims.Role,
				TokenID:   claims.ID,
				ExpiresAt: expiresAt,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func BearerToken(r *http.Request) string {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

// WithUser is used by tests and internal callers to act as a user.
func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}
