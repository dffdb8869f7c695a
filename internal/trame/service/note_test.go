package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/trame/internal/trame/domain"
	"github.com/aussiebroadwan/trame/internal/trame/store"
	"github.com/stretchr/testify/require"
)

// recordingStore is a store.Store stub whose Notes repo counts writes and can
// be told to fail, so tests can observe exactly when flushes hit the database.
type recordingStore struct {
	notes *recordingNotes
}

func newRecordingStore() *recordingStore {
	return &recordingStore{notes: &recordingNotes{
		rows: make(map[string]domain.Note),
	}}
}

func (s *recordingStore) Accounts() store.Accounts { return nil }
func (s *recordingStore) Sessions() store.Sessions { return nil }
func (s *recordingStore) Notes() store.Notes       { return s.notes }
func (s *recordingStore) ApplyMigrations() error   { return nil }
func (s *recordingStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, errors.New("not supported")
}
func (s *recordingStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return errors.New("not supported")
}
func (s *recordingStore) Close() error                   { return nil }
func (s *recordingStore) Ping(ctx context.Context) error { return nil }

type recordingNotes struct {
	mu        sync.Mutex
	rows      map[string]domain.Note
	upserts   int
	failNext  int
	lastWrite string
}

func (n *recordingNotes) Upsert(ctx context.Context, ownerID, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.failNext > 0 {
		n.failNext--
		return errors.New("disk full")
	}

	n.upserts++
	n.lastWrite = content
	n.rows[ownerID] = domain.Note{
		OwnerID:   ownerID,
		Content:   content,
		UpdatedAt: time.Now(),
	}
	return nil
}

func (n *recordingNotes) Get(ctx context.Context, ownerID string) (domain.Note, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	note, ok := n.rows[ownerID]
	if !ok {
		return domain.Note{}, store.ErrNotFound
	}
	return note, nil
}

func (n *recordingNotes) upsertCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.upserts
}

func (n *recordingNotes) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastWrite
}

func newTestNoteService(st store.Store, window time.Duration) *NoteService {
	return NewNoteService(st, slog.New(slog.DiscardHandler), window)
}

func TestNoteService_ReadSeesPendingImmediately(t *testing.T) {
	st := newRecordingStore()
	svc := newTestNoteService(st, time.Hour) // window never fires during test
	ctx := context.Background()

	require.NoError(t, svc.SubmitEdit(ctx, "owner", "draft one"))

	note, err := svc.Read(ctx, "owner")
	require.NoError(t, err)
	require.Equal(t, "draft one", note.Content)
	require.False(t, note.UpdatedAt.IsZero())

	// Nothing durable yet
	require.Equal(t, 0, st.notes.upsertCount())
}

func TestNoteService_ReadFallsBackToDurable(t *testing.T) {
	st := newRecordingStore()
	st.notes.rows["owner"] = domain.Note{OwnerID: "owner", Content: "durable"}
	svc := newTestNoteService(st, time.Hour)

	note, err := svc.Read(context.Background(), "owner")
	require.NoError(t, err)
	require.Equal(t, "durable", note.Content)
}

func TestNoteService_ReadNeverWrittenIsEmpty(t *testing.T) {
	st := newRecordingStore()
	svc := newTestNoteService(st, time.Hour)

	note, err := svc.Read(context.Background(), "owner")
	require.NoError(t, err)
	require.Equal(t, "", note.Content)
	require.Equal(t, "owner", note.OwnerID)
}

func TestNoteService_FlushAfterQuietWindow(t *testing.T) {
	st := newRecordingStore()
	svc := newTestNoteService(st, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, svc.SubmitEdit(ctx, "owner", "final"))

	require.Eventually(t, func() bool {
		return st.notes.upsertCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "final", st.notes.last())

	// Once flushed, reads come from the durable row
	note, err := svc.Read(ctx, "owner")
	require.NoError(t, err)
	require.Equal(t, "final", note.Content)
}

func TestNoteService_RapidEditsCoalesceToOneWrite(t *testing.T) {
	st := newRecordingStore()
	svc := newTestNoteService(st, 150*time.Millisecond)
	ctx := context.Background()

	// Each edit lands well inside the previous window, so the countdown keeps
	// resetting and nothing is written until the last one goes quiet.
	require.NoError(t, svc.SubmitEdit(ctx, "owner", "v1"))
	time.Sleep(40 * time.Millisecond)
	require.NoError(t, svc.SubmitEdit(ctx, "owner", "v2"))
	time.Sleep(40 * time.Millisecond)
	require.NoError(t, svc.SubmitEdit(ctx, "owner", "v3"))

	require.Equal(t, 0, st.notes.upsertCount(), "no write while edits keep arriving")

	require.Eventually(t, func() bool {
		return st.notes.upsertCount() > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, 1, st.notes.upsertCount(), "rapid edits should coalesce into a single write")
	require.Equal(t, "v3", st.notes.last(), "only the latest content should be persisted")
}

func TestNoteService_ForceFlush(t *testing.T) {
	st := newRecordingStore()
	svc := newTestNoteService(st, time.Hour)
	ctx := context.Background()

	require.NoError(t, svc.SubmitEdit(ctx, "owner", "pending"))
	require.NoError(t, svc.ForceFlush(ctx, "owner"))

	require.Equal(t, 1, st.notes.upsertCount())
	require.Equal(t, "pending", st.notes.last())

	// A second force flush with nothing pending is a no-op
	require.NoError(t, svc.ForceFlush(ctx, "owner"))
	require.Equal(t, 1, st.notes.upsertCount())
}

func TestNoteService_ForceFlushUnknownOwner(t *testing.T) {
	st := newRecordingStore()
	svc := newTestNoteService(st, time.Hour)

	require.NoError(t, svc.ForceFlush(context.Background(), "nobody"))
	require.Equal(t, 0, st.notes.upsertCount())
}

func TestNoteService_FlushAll(t *testing.T) {
	st := newRecordingStore()
	svc := newTestNoteService(st, time.Hour)
	ctx := context.Background()

	require.NoError(t, svc.SubmitEdit(ctx, "owner-a", "alpha"))
	require.NoError(t, svc.SubmitEdit(ctx, "owner-b", "beta"))

	require.NoError(t, svc.FlushAll(ctx))
	require.Equal(t, 2, st.notes.upsertCount())

	// After shutdown no further edits are accepted
	err := svc.SubmitEdit(ctx, "owner-a", "too late")
	require.ErrorIs(t, err, ErrShuttingDown)
}

func TestNoteService_FailedFlushRetries(t *testing.T) {
	st := newRecordingStore()
	st.notes.failNext = 1
	svc := newTestNoteService(st, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, svc.SubmitEdit(ctx, "owner", "survives"))

	// First flush attempt fails, the edit stays pending and is retried
	require.Eventually(t, func() bool {
		return st.notes.upsertCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "survives", st.notes.last())

	// While the retry was pending, reads still saw the edit
	note, err := svc.Read(ctx, "owner")
	require.NoError(t, err)
	require.Equal(t, "survives", note.Content)
}

func TestNoteService_ConcurrentEditsNeverMix(t *testing.T) {
	st := newRecordingStore()
	svc := newTestNoteService(st, 50*time.Millisecond)
	ctx := context.Background()

	const writers = 16
	contents := make([]string, writers)
	valid := map[string]bool{"": true} // readers may race ahead of the first edit
	for i := range contents {
		contents[i] = fmt.Sprintf("draft-%02d", i)
		valid[contents[i]] = true
	}

	// Readers hammer the owner throughout and record anything that is not an
	// intact submitted value.
	stopReaders := make(chan struct{})
	var torn []string
	var tornMu sync.Mutex
	var readers sync.WaitGroup
	for range 4 {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stopReaders:
					return
				default:
				}
				note, err := svc.Read(ctx, "owner")
				if err == nil && !valid[note.Content] {
					tornMu.Lock()
					torn = append(torn, note.Content)
					tornMu.Unlock()
				}
			}
		}()
	}

	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.SubmitEdit(ctx, "owner", contents[i])
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Wait for the coordinator to drain, then stop the readers.
	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return len(svc.pending) == 0
	}, 2*time.Second, 10*time.Millisecond)
	close(stopReaders)
	readers.Wait()

	// Exactly one of the submitted edits survives, intact. Overlapping
	// submissions coalesce rather than writing once each.
	require.Empty(t, torn, "readers observed content no writer submitted")
	require.Contains(t, contents, st.notes.last())
	require.LessOrEqual(t, st.notes.upsertCount(), 2, "concurrent edits should coalesce")

	note, err := svc.Read(ctx, "owner")
	require.NoError(t, err)
	require.Equal(t, st.notes.last(), note.Content)
}

func TestNoteService_ForceFlushFailureKeepsRetrying(t *testing.T) {
	st := newRecordingStore()
	st.notes.failNext = 1
	svc := newTestNoteService(st, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, svc.SubmitEdit(ctx, "owner", "keep me"))

	// The forced write fails; the edit must stay pending with a live
	// debounce deadline rather than waiting for another forced flush.
	require.Error(t, svc.ForceFlush(ctx, "owner"))

	note, err := svc.Read(ctx, "owner")
	require.NoError(t, err)
	require.Equal(t, "keep me", note.Content)

	require.Eventually(t, func() bool {
		return st.notes.upsertCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "keep me", st.notes.last())
}

func TestNoteService_EditDuringFlushWins(t *testing.T) {
	st := newRecordingStore()
	svc := newTestNoteService(st, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, svc.SubmitEdit(ctx, "owner", "old"))

	// Wait for the first flush, then submit again and make sure the newer
	// edit also reaches the store.
	require.Eventually(t, func() bool {
		return st.notes.upsertCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, svc.SubmitEdit(ctx, "owner", "new"))
	require.Eventually(t, func() bool {
		return st.notes.upsertCount() == 2
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "new", st.notes.last())
}
