package httpapi

import (
	"net/http"
)

type emailRequest struct {
	Email string `json:"email"`
}

type confirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resetRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (h *Handlers) RequestEmailVerification(w http.ResponseWriter, r *http.Request) {
	var in emailRequest
	if err := decodeStrict(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.svc.RequestEmailVerification(r.Context(), in.Email); err != nil {
		WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ConfirmEmailVerification(w http.ResponseWriter, r *http.Request) {
	var in confirmRequest
	if err := decodeStrict(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.svc.ConfirmEmailVerification(r.Context(), in.Email, in.Code); err != nil {
		WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var in emailRequest
	if err := decodeStrict(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.svc.RequestPasswordReset(r.Context(), in.Email); err != nil {
		WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetRequest
	if err := decodeStrict(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), in.Email, in.Code, in.NewPassword); err != nil {
		WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
