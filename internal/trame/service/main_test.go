package service

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/trame/internal/trame/store"
	"github.com/aussiebroadwan/trame/internal/trame/store/drivers/sqlite"
	"github.com/aussiebroadwan/trame/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Set up a temporary pepper file for password hashing
	pepperPath := filepath.Join(os.TempDir(), "trame-service-test-pepper")
	cryptox.SetPepperPath(pepperPath)

	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

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
