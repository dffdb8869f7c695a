package http

import (
	"net/http"

	"github.com/aussiebroadwan/trame/internal/trame/service"
	"github.com/aussiebroadwan/trame/pkg/httpx"
	"github.com/aussiebroadwan/trame/pkg/slogx"
)

type LogoutHandler struct {
	SessionService *service.SessionService
	NoteService    *service.NoteService
}

// ServeHTTP handles session revocation.
//
//	@Summary		Log out
//	@Description	Revokes the presented session token. Any pending note edit is
//	@Description	persisted before the session dies, so logout never loses work.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	map[string]string	"Empty object"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or missing session token"
//	@Failure		500	{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/api/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	accountID, ok := httpx.AccountIDFromContext(ctx)
	if !ok || accountID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	token, ok := httpx.TokenFromContext(ctx)
	if !ok || token == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	// Flush before revoking so the pending edit outlives the session.
	if err := h.NoteService.ForceFlush(ctx, accountID); err != nil {
		log.Error("failed to flush note on logout", "account_id", accountID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.SessionService.Revoke(ctx, token); err != nil {
		log.Error("failed to revoke session", "account_id", accountID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{})
}
