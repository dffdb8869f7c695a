package httpx

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/trame/pkg/slogx"
)

// SessionValidator resolves an opaque bearer token to the account that owns
// it. Implementations must never return an account id for an expired or
// revoked session.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (accountID string, err error)
}

// AuthnMiddleware authenticates requests via an opaque bearer session token.
// Unknown and expired tokens are indistinguishable to the client; the
// distinction is logged server-side only.
func AuthnMiddleware(v SessionValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := BearerToken(r)
			if raw == "" {
				writeBearerError(w, "missing bearer token")
				return
			}

			accountID, err := v.Validate(ctx, raw)
			if err != nil {
				writeBearerError(w, "invalid token")
				log.Warn("session validation failed", "err", err)
				return
			}

			// Inject into context for downstream handlers.
			ctx = context.WithValue(ctx, CtxKeyAccountID, accountID)
			ctx = context.WithValue(ctx, CtxKeyToken, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "unauthorized")
}
