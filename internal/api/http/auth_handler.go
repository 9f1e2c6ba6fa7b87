package http

import (
	"net/http"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/service"
)

type AuthHandler struct {
	authSvc service.AuthService
}

func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body RegistrationRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := body.toService()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.authSvc.Register(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *AuthHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var body AuthenticationRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	token, err := h.authSvc.Authenticate(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthenticationResponse{Token: token})
}

func (h *AuthHandler) ActivateAccount(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, r, domain.InvalidArgument("token is required"))
		return
	}
	if err := h.authSvc.ActivateAccount(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
