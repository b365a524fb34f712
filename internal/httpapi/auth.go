package httpapi

import (
	"net/http"
	"time"

	"github.com/avdonina/clinic-backend/internal/models"
	"github.com/avdonina/clinic-backend/internal/service"
)

type registerRequest struct {
	Role     string `json:"role"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type tokenPairResponse struct {
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

type registerResponse struct {
	IdentityID string             `json:"identity_id"`
	Pending    bool               `json:"pending"`
	Tokens     *tokenPairResponse `json:"tokens,omitempty"`
}

func tokensToResponse(tp *models.TokenPair) *tokenPairResponse {
	if tp == nil {
		return nil
	}
	return &tokenPairResponse{
		AccessToken:     tp.AccessToken,
		RefreshToken:    tp.RefreshToken,
		AccessExpiresAt: tp.AccessExpiresAt,
	}
}

func (h *Handlers) RegisterIdentity(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}

	res, err := h.svc.Register(r.Context(), service.RegisterInput{
		Role:     models.Role(in.Role),
		Email:    in.Email,
		Password: in.Password,
		FullName: in.FullName,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		IdentityID: res.IdentityID.String(),
		Pending:    res.Pending,
		Tokens:     tokensToResponse(res.Tokens),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	IdentityID string             `json:"identity_id"`
	Tokens     *tokenPairResponse `json:"tokens"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}

	tokens, id, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		IdentityID: id.String(),
		Tokens:     tokensToResponse(tokens),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken     string    `json:"access_token"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

// Refresh обменивает refresh-токен на новый access-токен.
// Refresh-токен при обмене не перевыпускается.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}

	access, expiresAt, err := h.svc.RotateAccessToken(r.Context(), in.RefreshToken)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken:     access,
		AccessExpiresAt: expiresAt,
	})
}

// Logout отзывает действующий refresh-токен вызывающего.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	c, ok := callerFrom(r.Context())
	if !ok {
		WriteError(w, r, service.ErrInvalidToken)
		return
	}

	if err := h.svc.RevokeTokens(r.Context(), c.ID); err != nil {
		WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
