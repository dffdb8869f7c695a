package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/trame/internal/trame/service"
	"github.com/aussiebroadwan/trame/pkg/httpx"
	"github.com/aussiebroadwan/trame/pkg/slogx"
)

type NoteResponse struct {
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UpdateNoteRequest struct {
	Content string `json:"content"`
}

type NoteHandler struct {
	NoteService *service.NoteService
}

// HandleGet returns the note as last accepted.
//
//	@Summary		Read the note
//	@Description	Returns the latest accepted content, whether or not it has been
//	@Description	persisted yet. An account that has never written gets an empty note.
//	@Tags			Note
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	NoteResponse	"Note content and last update time"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or missing session token"
//	@Failure		500	{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/api/note [get].
func (h *NoteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	accountID, ok := httpx.AccountIDFromContext(ctx)
	if !ok || accountID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	note, err := h.NoteService.Read(ctx, accountID)
	if err != nil {
		log.Error("failed to read note", "account_id", accountID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, NoteResponse{
		Content:   note.Content,
		UpdatedAt: note.UpdatedAt,
	})
}

// HandlePut accepts a note edit into the debounce buffer.
//
//	@Summary		Update the note
//	@Description	Accepts the full replacement content. The edit is visible to reads
//	@Description	immediately but only persisted once the account stops editing for
//	@Description	the debounce window; rapid edits coalesce into one write.
//	@Tags			Note
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	UpdateNoteRequest	true	"Replacement note content"
//	@Success		202		"Edit accepted"
//	@Failure		400		{object}	httpx.ErrorResponse	"Malformed body"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid or missing session token"
//	@Failure		503		{object}	httpx.ErrorResponse	"Server shutting down"
//	@Router			/api/note [put].
func (h *NoteHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, ok := httpx.AccountIDFromContext(ctx)
	if !ok || accountID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateNoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.NoteService.SubmitEdit(ctx, accountID, req.Content); err != nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, "shutting down")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
