package domain

import "time"

// Session is a live login. Only the SHA-256 fingerprint of the opaque token is
// stored; the token itself exists solely on the client. Many sessions may be
// live for the same account at once.
type Session struct {
	ID        string
	AccountID string
	TokenHash string // SHA-256 fingerprint of the opaque token
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is past its expiry horizon at t.
func (s Session) Expired(t time.Time) bool {
	return t.After(s.ExpiresAt)
}
