package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/trame/internal/trame/domain"
	"github.com/aussiebroadwan/trame/internal/trame/store"
	"github.com/aussiebroadwan/trame/pkg/cryptox"
	"github.com/aussiebroadwan/trame/pkg/idx"
	"github.com/aussiebroadwan/trame/pkg/slogx"
)

var (
	ErrSessionNotFound = errors.New("session_not_found")
	ErrSessionExpired  = errors.New("session_expired")
)

// SessionService issues and validates opaque bearer tokens. Only the SHA-256
// fingerprint of a token is ever persisted; the opaque value is returned to
// the client once at issue time and cannot be recovered afterwards.
type SessionService struct {
	Store      store.Store
	SessionTTL time.Duration
}

// Issue mints a fresh opaque token for the given account and persists its
// fingerprint with an absolute expiry.
func (s *SessionService) Issue(ctx context.Context, accountID string) (string, error) {
	l := slogx.FromContext(ctx)

	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	session := domain.Session{
		ID:        idx.New().String(),
		AccountID: accountID,
		TokenHash: cryptox.FingerprintToken(opaque),
		ExpiresAt: time.Now().Add(s.SessionTTL),
	}

	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		return "", err
	}

	l.Info("session issued", "session_id", session.ID, "account_id", accountID)
	return opaque, nil
}

// Validate resolves an opaque token to its account id. Expired sessions are
// deleted on sight and reported as ErrSessionExpired; unknown or previously
// revoked tokens return ErrSessionNotFound.
func (s *SessionService) Validate(ctx context.Context, token string) (string, error) {
	fp := cryptox.FingerprintToken(token)

	session, err := s.Store.Sessions().GetSessionByTokenHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrSessionNotFound
		}
		return "", err
	}

	if session.Expired(time.Now()) {
		// Lazy cleanup: an expired row is useless, drop it now rather than
		// waiting for the housekeeping sweep.
		_ = s.Store.Sessions().DeleteSessionByTokenHash(ctx, fp)
		return "", ErrSessionExpired
	}

	return session.AccountID, nil
}

// Revoke deletes the session for the given opaque token. Revoking a token
// that is already gone is not an error.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	fp := cryptox.FingerprintToken(token)
	return s.Store.Sessions().DeleteSessionByTokenHash(ctx, fp)
}
