package http

import (
	"net/http"

	"github.com/aussiebroadwan/trame/internal/trame/domain"
	"github.com/aussiebroadwan/trame/internal/trame/service"
	"github.com/aussiebroadwan/trame/pkg/httpx"
	"github.com/aussiebroadwan/trame/pkg/slogx"
)

type ChunksResponse struct {
	Chunks []domain.Chunk `json:"chunks"`
}

type ChunksHandler struct {
	NoteService *service.NoteService
}

// ServeHTTP returns the chunked view of the note.
//
//	@Summary		Read the note as chunks
//	@Description	Splits the latest accepted content into logical Markdown blocks
//	@Description	(headings, paragraphs, code blocks, lists, rules), each with a
//	@Description	content-derived hash so clients can diff block-by-block.
//	@Tags			Note
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	ChunksResponse	"Chunked note content"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or missing session token"
//	@Failure		500	{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/api/note/chunks [get].
func (h *ChunksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	accountID, ok := httpx.AccountIDFromContext(ctx)
	if !ok || accountID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	note, err := h.NoteService.Read(ctx, accountID)
	if err != nil {
		log.Error("failed to read note for chunking", "account_id", accountID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	chunks := service.ChunkNote(note.Content)
	if chunks == nil {
		chunks = []domain.Chunk{}
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, ChunksResponse{Chunks: chunks})
}
