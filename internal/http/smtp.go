package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/medsyncsaude/api/internal/smtp"
)

// bodyOrgID resolve o organization_id vindo do corpo da requisição, caindo
// para a query string quando o campo não foi enviado.
func bodyOrgID(raw string, r *http.Request) (uuid.UUID, bool) {
	if s := strings.TrimSpace(raw); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return uuid.Nil, false
		}
		return id, true
	}
	return queryOrgID(r)
}

// GetSMTPSettings devolve a configuração sanitizada (sem senha).
func (h *Handler) GetSMTPSettings(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	settings, err := h.smtp.Get(r.Context(), orgID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, settings)
}

// CreateSMTPSettings grava a configuração inicial da organização.
func (h *Handler) CreateSMTPSettings(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		OrganizacaoID string  `json:"organization_id"`
		Host          string  `json:"smtp_host"`
		Porta         int     `json:"smtp_port"`
		Usuario       string  `json:"smtp_user"`
		Senha         string  `json:"smtp_password"`
		FromEmail     string  `json:"smtp_from_email"`
		FromNome      *string `json:"smtp_from_name"`
		UseTLS        bool    `json:"use_tls"`
		IsEnabled     bool    `json:"is_enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	orgID, ok := bodyOrgID(payload.OrganizacaoID, r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	settings, err := h.smtp.Create(r.Context(), orgID, smtp.CreateSettingsInput{
		Host:      payload.Host,
		Porta:     payload.Porta,
		Usuario:   payload.Usuario,
		Senha:     payload.Senha,
		FromEmail: payload.FromEmail,
		FromNome:  payload.FromNome,
		UseTLS:    payload.UseTLS,
		IsEnabled: payload.IsEnabled,
	})
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, settings)
}

// UpdateSMTPSettings aplica merge parcial; senha omitida preserva a atual.
func (h *Handler) UpdateSMTPSettings(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		OrganizacaoID string  `json:"organization_id"`
		Host          *string `json:"smtp_host"`
		Porta         *int    `json:"smtp_port"`
		Usuario       *string `json:"smtp_user"`
		Senha         *string `json:"smtp_password"`
		FromEmail     *string `json:"smtp_from_email"`
		FromNome      *string `json:"smtp_from_name"`
		UseTLS        *bool   `json:"use_tls"`
		IsEnabled     *bool   `json:"is_enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	orgID, ok := bodyOrgID(payload.OrganizacaoID, r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	settings, err := h.smtp.Update(r.Context(), orgID, smtp.UpdateSettingsInput{
		Host:      payload.Host,
		Porta:     payload.Porta,
		Usuario:   payload.Usuario,
		Senha:     payload.Senha,
		FromEmail: payload.FromEmail,
		FromNome:  payload.FromNome,
		UseTLS:    payload.UseTLS,
		IsEnabled: payload.IsEnabled,
	})
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, settings)
}

// TestSMTPConnection envia e-mail de teste com a configuração do payload.
// Falha de envio volta como {success:false, message} com mensagem amigável.
func (h *Handler) TestSMTPConnection(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		OrganizacaoID string  `json:"organization_id"`
		Host          string  `json:"smtp_host"`
		Porta         int     `json:"smtp_port"`
		Usuario       string  `json:"smtp_user"`
		Senha         string  `json:"smtp_password"`
		FromEmail     string  `json:"smtp_from_email"`
		FromNome      *string `json:"smtp_from_name"`
		UseTLS        bool    `json:"use_tls"`
		Para          string  `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	orgID, ok := bodyOrgID(payload.OrganizacaoID, r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	result, err := h.smtp.TestarConexao(r.Context(), orgID, smtp.TestInput{
		Host:      payload.Host,
		Porta:     payload.Porta,
		Usuario:   payload.Usuario,
		Senha:     payload.Senha,
		FromEmail: payload.FromEmail,
		FromNome:  payload.FromNome,
		UseTLS:    payload.UseTLS,
		Para:      payload.Para,
	})
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
