package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/trame/internal/trame/domain"
	"github.com/aussiebroadwan/trame/internal/trame/store"
)

// DefaultDebounceWindow is how long the note service waits after the last
// accepted edit before persisting. Every new edit resets the countdown.
const DefaultDebounceWindow = 500 * time.Millisecond

var ErrShuttingDown = errors.New("note service shutting down")

// pendingNote is the in-memory state for one owner's unflushed edit.
// seq increases with every accepted edit so a flush can tell whether the
// content it wrote is still the latest.
type pendingNote struct {
	content   string
	updatedAt time.Time
	seq       uint64
	timer     *time.Timer
}

// NoteService coalesces rapid note edits into a single durable write.
//
// Edits are accepted immediately into memory and a per-owner timer is armed
// for the debounce window; each subsequent edit replaces the pending content
// and resets the timer. Only when the owner goes quiet for a full window does
// the latest content reach the database. Reads always observe the latest
// accepted edit, pending or durable.
type NoteService struct {
	Store  store.Store
	Logger *slog.Logger
	Window time.Duration

	mu      sync.Mutex
	pending map[string]*pendingNote
	closed  bool
}

func NewNoteService(st store.Store, logger *slog.Logger, window time.Duration) *NoteService {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &NoteService{
		Store:   st,
		Logger:  logger,
		Window:  window,
		pending: make(map[string]*pendingNote),
	}
}

// SubmitEdit accepts new note content for the owner. The edit is visible to
// readers immediately but only becomes durable after the owner stops editing
// for a full debounce window. Later edits overwrite earlier pending ones.
func (s *NoteService) SubmitEdit(ctx context.Context, ownerID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrShuttingDown
	}

	p, ok := s.pending[ownerID]
	if !ok {
		p = &pendingNote{}
		s.pending[ownerID] = p
	}

	p.content = content
	p.updatedAt = time.Now()
	p.seq++

	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(s.Window, func() {
		s.flush(ownerID)
	})

	return nil
}

// Read returns the owner's note as last accepted: the pending in-memory edit
// when one exists, otherwise the durable row. An owner who has never written
// gets an empty note rather than an error.
func (s *NoteService) Read(ctx context.Context, ownerID string) (domain.Note, error) {
	s.mu.Lock()
	if p, ok := s.pending[ownerID]; ok {
		note := domain.Note{
			OwnerID:   ownerID,
			Content:   p.content,
			UpdatedAt: p.updatedAt,
		}
		s.mu.Unlock()
		return note, nil
	}
	s.mu.Unlock()

	note, err := s.Store.Notes().Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Note{OwnerID: ownerID, Content: ""}, nil
		}
		return domain.Note{}, err
	}
	return note, nil
}

// ForceFlush persists the owner's pending edit right away, bypassing the
// remainder of the debounce window. Used on logout so a revoked session
// never strands an unflushed edit. No pending edit is a no-op.
func (s *NoteService) ForceFlush(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	p, ok := s.pending[ownerID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	content, seq := p.content, p.seq
	s.mu.Unlock()

	if err := s.Store.Notes().Upsert(ctx, ownerID, content); err != nil {
		// The timer was stopped above; give the edit a fresh deadline so it
		// still persists after a quiet window instead of waiting for another
		// forced flush.
		s.mu.Lock()
		if cur, ok := s.pending[ownerID]; ok && cur.seq == seq && !s.closed {
			cur.timer = time.AfterFunc(s.Window, func() {
				s.flush(ownerID)
			})
		}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	if cur, ok := s.pending[ownerID]; ok && cur.seq == seq {
		delete(s.pending, ownerID)
	}
	s.mu.Unlock()
	return nil
}

// FlushAll persists every pending edit and stops accepting new ones. Called
// once during shutdown, after the HTTP server has drained.
func (s *NoteService) FlushAll(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	owners := make([]string, 0, len(s.pending))
	for owner, p := range s.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
		owners = append(owners, owner)
	}
	s.mu.Unlock()

	var firstErr error
	for _, owner := range owners {
		if err := s.ForceFlush(ctx, owner); err != nil {
			s.Logger.Error("failed to flush note on shutdown", "owner_id", owner, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// flush runs when an owner's debounce timer fires. It writes the pending
// content durably and clears the entry, unless a newer edit arrived while
// the write was in flight. The mutex is never held across the database call.
func (s *NoteService) flush(ownerID string) {
	ctx := context.Background()

	s.mu.Lock()
	p, ok := s.pending[ownerID]
	if !ok {
		s.mu.Unlock()
		return
	}
	content, seq := p.content, p.seq
	s.mu.Unlock()

	if err := s.Store.Notes().Upsert(ctx, ownerID, content); err != nil {
		s.Logger.Error("debounced note flush failed, retrying", "owner_id", ownerID, "error", err)

		// Keep the edit pending and try again after another window.
		s.mu.Lock()
		if cur, ok := s.pending[ownerID]; ok && cur.seq == seq && !s.closed {
			cur.timer = time.AfterFunc(s.Window, func() {
				s.flush(ownerID)
			})
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	if cur, ok := s.pending[ownerID]; ok && cur.seq == seq {
		delete(s.pending, ownerID)
	}
	s.mu.Unlock()
}
