package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/trame/internal/trame/service"
	"github.com/aussiebroadwan/trame/pkg/httpx"
	"github.com/aussiebroadwan/trame/pkg/slogx"
)

type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
}

type SignupHandler struct {
	CredentialService *service.CredentialService
	SessionService    *service.SessionService
}

// ServeHTTP handles account registration.
//
//	@Summary		Register the account
//	@Description	Creates the single account for this instance and returns an initial
//	@Description	session token. Registration closes once an account exists.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SignupRequest	true	"Desired username and password"
//	@Success		201		{object}	AuthResponse	"Session token for the new account"
//	@Failure		400		{object}	httpx.ErrorResponse	"Malformed body or weak credentials"
//	@Failure		403		{object}	httpx.ErrorResponse	"Registration already closed"
//	@Failure		409		{object}	httpx.ErrorResponse	"Username already taken"
//	@Failure		500		{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/api/signup [post].
func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req SignupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Single-tenant: the first signup claims the instance, later ones are
	// rejected outright.
	taken, err := h.CredentialService.HasAccounts(ctx)
	if err != nil {
		log.Error("failed to check existing accounts", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if taken {
		httpx.WriteError(w, http.StatusForbidden, "registration closed")
		return
	}

	account, err := h.CredentialService.CreateAccount(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWeakCredential):
			httpx.WriteError(w, http.StatusBadRequest, "username or password does not meet requirements")
		case errors.Is(err, service.ErrDuplicateUsername):
			httpx.WriteError(w, http.StatusConflict, "username already registered")
		default:
			log.Error("failed to create account", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	token, err := h.SessionService.Issue(ctx, account.ID)
	if err != nil {
		log.Error("failed to issue initial session", "account_id", account.ID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, AuthResponse{Token: token})
}
