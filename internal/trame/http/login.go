package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/trame/internal/trame/service"
	"github.com/aussiebroadwan/trame/pkg/httpx"
	"github.com/aussiebroadwan/trame/pkg/slogx"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginHandler struct {
	CredentialService *service.CredentialService
	SessionService    *service.SessionService
}

// ServeHTTP handles password login.
//
//	@Summary		Log in
//	@Description	Verifies the username/password pair and returns a fresh opaque session
//	@Description	token. Unknown usernames and wrong passwords are indistinguishable.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	AuthResponse	"Session token"
//	@Failure		400		{object}	httpx.ErrorResponse	"Malformed body"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid credentials"
//	@Failure		500		{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/api/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.CredentialService.Verify(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		log.Error("failed to verify credentials", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := h.SessionService.Issue(ctx, account.ID)
	if err != nil {
		log.Error("failed to issue session", "account_id", account.ID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, AuthResponse{Token: token})
}
