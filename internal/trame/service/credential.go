package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/aussiebroadwan/trame/internal/trame/domain"
	"github.com/aussiebroadwan/trame/internal/trame/store"
	"github.com/aussiebroadwan/trame/pkg/cryptox"
	"github.com/aussiebroadwan/trame/pkg/idx"
	"github.com/aussiebroadwan/trame/pkg/slogx"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 64
	MinPasswordLength = 8
	MaxPasswordLength = 512
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrDuplicateUsername  = errors.New("duplicate_username")
	ErrWeakCredential     = errors.New("weak_credential")
)

// CredentialService owns account creation and password verification.
type CredentialService struct {
	Store store.Store

	// dummyHash is verified against on unknown-username lookups so both
	// branches of Verify pay the argon2 cost.
	dummyHash string
}

func NewCredentialService(st store.Store) (*CredentialService, error) {
	dummy, err := cryptox.HashPassword("trame-dummy-credential")
	if err != nil {
		return nil, err
	}
	return &CredentialService{Store: st, dummyHash: dummy}, nil
}

// CreateAccount registers a new account with an argon2id-hashed password.
// Returns ErrWeakCredential when the username or password fails validation
// and ErrDuplicateUsername when the username is already taken.
func (s *CredentialService) CreateAccount(ctx context.Context, username, password string) (domain.Account, error) {
	l := slogx.FromContext(ctx)

	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return domain.Account{}, err
	}
	if err := validatePassword(password); err != nil {
		return domain.Account{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.Account{}, err
	}

	account := domain.Account{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: hash,
	}

	if err := s.Store.Accounts().CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			l.Info("signup rejected, username taken", "username", username)
			return domain.Account{}, ErrDuplicateUsername
		}
		return domain.Account{}, err
	}

	l.Info("account created", "account_id", account.ID, "username", username)
	return account, nil
}

// Verify checks a username/password pair and returns the matching account.
// Unknown usernames and wrong passwords are indistinguishable to the caller:
// both return ErrInvalidCredentials, and both cost one argon2 verification.
func (s *CredentialService) Verify(ctx context.Context, username, password string) (domain.Account, error) {
	username = strings.TrimSpace(username)

	account, err := s.Store.Accounts().GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = cryptox.VerifyPassword(password, s.dummyHash)
			return domain.Account{}, ErrInvalidCredentials
		}
		return domain.Account{}, err
	}

	if err := cryptox.VerifyPassword(password, account.PasswordHash); err != nil {
		return domain.Account{}, ErrInvalidCredentials
	}
	return account, nil
}

// HasAccounts reports whether at least one account exists. The signup
// endpoint uses this to close registration after the first account.
func (s *CredentialService) HasAccounts(ctx context.Context) (bool, error) {
	empty, err := s.Store.Accounts().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return ErrWeakCredential
	}
	for _, r := range username {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return ErrWeakCredential
		}
	}
	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return ErrWeakCredential
	}
	return nil
}
