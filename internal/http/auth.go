package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/medsyncsaude/api/internal/service"
)

// refreshCookie carrega o refresh token do painel; HttpOnly, o front nunca lê.
const refreshCookie = "medsync_refresh"

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

// refreshFromRequest busca o refresh token no corpo e, na ausência, no cookie.
func refreshFromRequest(r *http.Request) string {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)
	if token := strings.TrimSpace(payload.RefreshToken); token != "" {
		return token
	}
	if c, err := r.Cookie(refreshCookie); err == nil {
		return c.Value
	}
	return ""
}

// Login autentica por e-mail e senha e devolve tokens + perfil. O refresh
// token também sai num cookie HttpOnly para clientes de navegador.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Senha    string `json:"senha"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	senha := payload.Senha
	if senha == "" {
		senha = payload.Password
	}

	result, err := h.authService.Login(r.Context(), payload.Email, senha)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	h.setRefreshCookie(w, result.RefreshToken, result.RefreshExpiry)
	WriteJSON(w, http.StatusOK, loginResponse(result))
}

// Register cria a conta e já autentica.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome     string `json:"nome"`
		Email    string `json:"email"`
		Senha    string `json:"senha"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	senha := payload.Senha
	if senha == "" {
		senha = payload.Password
	}

	result, err := h.authService.Registrar(r.Context(), payload.Nome, payload.Email, senha)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			WriteError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
			return
		}
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	h.setRefreshCookie(w, result.RefreshToken, result.RefreshExpiry)
	WriteJSON(w, http.StatusCreated, loginResponse(result))
}

// Refresh troca o refresh token (do corpo ou do cookie) por uma sessão nova.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.authService.Refresh(r.Context(), refreshFromRequest(r))
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	h.setRefreshCookie(w, result.RefreshToken, result.RefreshExpiry)
	WriteJSON(w, http.StatusOK, loginResponse(result))
}

// Logout revoga a sessão atual e limpa o cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), refreshFromRequest(r)); err != nil {
		writeDomainError(w, err)
		return
	}

	h.clearRefreshCookie(w)
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me devolve o perfil do usuário autenticado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	profile, roles, err := h.authService.GetMe(r.Context(), subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"user": profile, "roles": roles})
}

// UpdateMe altera nome e e-mail do próprio usuário.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload struct {
		Nome  string `json:"nome"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.authService.AtualizarPerfil(r.Context(), subject, payload.Nome, payload.Email); err != nil {
		writeMutationError(w, err)
		return
	}

	profile, roles, err := h.authService.GetMe(r.Context(), subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"user": profile, "roles": roles})
}

func (h *Handler) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrRefreshInvalid):
		WriteError(w, http.StatusUnauthorized, "AUTH", err.Error(), nil)
	case errors.Is(err, service.ErrAccountDisabled):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	default:
		writeDomainError(w, err)
	}
}

func loginResponse(result *service.LoginResult) map[string]any {
	return map[string]any{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"expires_at":    result.RefreshExpiry,
		"user":          result.Profile,
		"roles":         result.Roles,
	}
}
