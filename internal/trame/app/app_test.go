package app

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/trame/internal/trame/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func TestShutdown_FlushesPendingEditAfterDrainDeadline(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		DatabaseFile:   filepath.Join(dir, "trame.db"),
		PepperFile:     filepath.Join(dir, "pepper"),
		SessionTTL:     time.Hour,
		DebounceWindow: time.Hour, // nothing flushes on its own
		Env:            "test",
		LogLevel:       "error",
		LogFormat:      "text",
		// Stand in for a drain that consumed the entire budget: the context
		// handed to the HTTP shutdown is expired before the flush runs.
		ShutdownGracePeriod:  time.Nanosecond,
		HousekeepingInterval: time.Hour,
	}

	application, err := New(cfg)
	require.NoError(t, err)
	application.housekeepingService.Start()

	ctx := context.Background()
	account, err := application.credentialService.CreateAccount(ctx, "alice", "correct-horse-battery")
	require.NoError(t, err)
	require.NoError(t, application.noteService.SubmitEdit(ctx, account.ID, "unsaved work"))

	require.NoError(t, application.Shutdown())

	// The edit must be durable even though the drain deadline had passed
	// before the flush started.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", cfg.DatabaseFile)
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	defer st.Close()

	note, err := st.Notes().Get(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "unsaved work", note.Content)
}
