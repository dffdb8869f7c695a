package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/trame/internal/trame/domain"
	"github.com/aussiebroadwan/trame/internal/trame/store"
	"github.com/aussiebroadwan/trame/internal/trame/store/drivers/sqlite"
	"github.com/aussiebroadwan/trame/pkg/idx"
	"github.com/stretchr/testify/require"
)

// newTestStore opens a fresh migrated database in a per-test temp dir.
func newTestStore(t *testing.T) store.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "trame-test.db"))
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestAccount(t *testing.T, st store.Store, username string) domain.Account {
	t.Helper()

	account := domain.Account{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
	}
	require.NoError(t, st.Accounts().CreateAccount(context.Background(), account))
	return account
}

func TestAccounts_CreateAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	account := newTestAccount(t, st, "alice")

	got, err := st.Accounts().GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, account.Username, got.Username)
	require.Equal(t, account.PasswordHash, got.PasswordHash)
	require.False(t, got.CreatedAt.IsZero())

	byName, err := st.Accounts().GetAccountByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, account.ID, byName.ID)
}

func TestAccounts_DuplicateUsername(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	newTestAccount(t, st, "alice")

	err := st.Accounts().CreateAccount(ctx, domain.Account{
		ID:           idx.New().String(),
		Username:     "alice",
		PasswordHash: "hash",
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestAccounts_NotFound(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Accounts().GetAccountByUsername(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.Accounts().GetAccountByID(ctx, idx.New().String())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccounts_IsEmpty(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	empty, err := st.Accounts().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	newTestAccount(t, st, "alice")

	empty, err = st.Accounts().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestSessions_CreateGetDelete(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	account := newTestAccount(t, st, "alice")

	session := domain.Session{
		ID:        idx.New().String(),
		AccountID: account.ID,
		TokenHash: "fingerprint-1",
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}
	require.NoError(t, st.Sessions().CreateSession(ctx, session))

	got, err := st.Sessions().GetSessionByTokenHash(ctx, "fingerprint-1")
	require.NoError(t, err)
	require.Equal(t, account.ID, got.AccountID)
	require.WithinDuration(t, session.ExpiresAt, got.ExpiresAt, time.Second)

	require.NoError(t, st.Sessions().DeleteSessionByTokenHash(ctx, "fingerprint-1"))

	_, err = st.Sessions().GetSessionByTokenHash(ctx, "fingerprint-1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSessions_DeleteIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Sessions().DeleteSessionByTokenHash(ctx, "never-existed"))
}

func TestSessions_GetReturnsExpired(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	account := newTestAccount(t, st, "alice")

	session := domain.Session{
		ID:        idx.New().String(),
		AccountID: account.ID,
		TokenHash: "expired-fp",
		ExpiresAt: time.Now().Add(-time.Hour).UTC(),
	}
	require.NoError(t, st.Sessions().CreateSession(ctx, session))

	// Expiry is the caller's decision, the repo returns the row regardless
	got, err := st.Sessions().GetSessionByTokenHash(ctx, "expired-fp")
	require.NoError(t, err)
	require.True(t, got.Expired(time.Now()))
}

func TestSessions_DeleteExpired(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	account := newTestAccount(t, st, "alice")

	expired := domain.Session{
		ID:        idx.New().String(),
		AccountID: account.ID,
		TokenHash: "expired-fp",
		ExpiresAt: time.Now().Add(-time.Hour).UTC(),
	}
	live := domain.Session{
		ID:        idx.New().String(),
		AccountID: account.ID,
		TokenHash: "live-fp",
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}
	require.NoError(t, st.Sessions().CreateSession(ctx, expired))
	require.NoError(t, st.Sessions().CreateSession(ctx, live))

	require.NoError(t, st.Sessions().DeleteExpiredSessions(ctx))

	_, err := st.Sessions().GetSessionByTokenHash(ctx, "expired-fp")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.Sessions().GetSessionByTokenHash(ctx, "live-fp")
	require.NoError(t, err)
}

func TestNotes_UpsertAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	account := newTestAccount(t, st, "alice")

	_, err := st.Notes().Get(ctx, account.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.Notes().Upsert(ctx, account.ID, "first draft"))

	note, err := st.Notes().Get(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "first draft", note.Content)
	require.Equal(t, account.ID, note.OwnerID)
	firstID := note.ID

	// A second upsert overwrites content but keeps the same row
	require.NoError(t, st.Notes().Upsert(ctx, account.ID, "second draft"))

	note, err = st.Notes().Get(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "second draft", note.Content)
	require.Equal(t, firstID, note.ID)
}

func TestWithTx_CommitAndRollback(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// Committed transaction persists
	err := st.WithTx(ctx, func(tx store.Tx) error {
		return tx.Accounts().CreateAccount(ctx, domain.Account{
			ID:           idx.New().String(),
			Username:     "committed",
			PasswordHash: "hash",
		})
	})
	require.NoError(t, err)

	_, err = st.Accounts().GetAccountByUsername(ctx, "committed")
	require.NoError(t, err)

	// Failed transaction rolls back
	boom := fmt.Errorf("boom")
	err = st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().CreateAccount(ctx, domain.Account{
			ID:           idx.New().String(),
			Username:     "rolled-back",
			PasswordHash: "hash",
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Accounts().GetAccountByUsername(ctx, "rolled-back")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPing(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Ping(context.Background()))
}
