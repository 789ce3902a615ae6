package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"tradetrack-backend/internal/domain"
)

type principalKey struct{}

// TokenVerifier resolves a bearer token to a principal id.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, idToken string) (string, error)
}

// WithPrincipal resolves the caller's principal from the Authorization
// header. No token means local-fallback mode, not an error; a token
// that fails verification is rejected so a stale session can never
// write into the anonymous ledger by accident.
func WithPrincipal(verifier TokenVerifier, logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := domain.LocalPrincipal

		if token := bearerToken(r); token != "" {
			if verifier == nil {
				http.Error(w, "authentication not configured", http.StatusUnauthorized)
				return
			}
			uid, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				logger.Warn().Err(err).Msg("token verification failed")
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			principal = uid
		}

		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Principal returns the principal stored by WithPrincipal, or the
// local principal when the middleware did not run.
func Principal(ctx context.Context) string {
	if p, ok := ctx.Value(principalKey{}).(string); ok {
		return p
	}
	return domain.LocalPrincipal
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
