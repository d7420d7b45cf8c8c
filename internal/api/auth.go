package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/auth"
	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
)

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var c auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	sess, err := h.accounts.SignUp(r.Context(), c.Email, c.Password)
	if err != nil {
		h.authError(w, err)
		return
	}
	jsonStatus(w, http.StatusCreated, sess)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var c auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	sess, err := h.accounts.SignIn(r.Context(), c.Email, c.Password)
	if err != nil {
		h.authError(w, err)
		return
	}
	jsonOK(w, sess)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.BearerToken(r)
	if !ok {
		h.authError(w, auth.ErrInvalidToken)
		return
	}
	sess, err := h.accounts.Refresh(r.Context(), &model.Session{AccessToken: token})
	if err != nil {
		h.authError(w, err)
		return
	}
	jsonOK(w, sess)
}

// authError writes account failures with their code so clients can show the
// message as is.
func (h *Handler) authError(w http.ResponseWriter, err error) {
	var ae *auth.Error
	if !errors.As(err, &ae) {
		h.logger.Error("auth request failed", zap.Error(err))
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	code := http.StatusBadRequest
	switch {
	case errors.Is(ae, auth.ErrInvalidCredentials), errors.Is(ae, auth.ErrInvalidToken):
		code = http.StatusUnauthorized
	case errors.Is(ae, auth.ErrEmailTaken):
		code = http.StatusConflict
	}
	jsonStatus(w, code, map[string]string{"error": ae.Msg, "code": ae.Code})
}
