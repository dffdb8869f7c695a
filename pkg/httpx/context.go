package httpx

import (
	"context"
	"net/http"
)

type ctxKey string

const (
	CtxKeyAccountID ctxKey = "account_id"
	CtxKeyToken     ctxKey = "token" // raw bearer token, needed for logout
)

// AccountIDFromContext returns the authenticated account id, if any.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyAccountID).(string)
	return v, ok
}

// TokenFromContext returns the raw bearer token the request authenticated with.
func TokenFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyToken).(string)
	return v, ok
}

// BearerToken extracts the token from an Authorization: Bearer header.
// Returns the empty string when the header is missing or malformed.
func BearerToken(r *http.Request) string {
	const prefix = "Bearer "
	authz := r.Header.Get("Authorization")
	if len(authz) <= len(prefix) || authz[:len(prefix)] != prefix {
		return ""
	}
	return authz[len(prefix):]
}
