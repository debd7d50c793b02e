package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/medsyncsaude/api/internal/organizacao"
)

// ListOrganizacoes lista organizações do usuário autenticado.
func (h *Handler) ListOrganizacoes(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	membros, err := h.orgs.ListMinhas(r.Context(), subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"organizations": membros})
}

// CreateOrganizacao registra organização com o criador como Dono.
func (h *Handler) CreateOrganizacao(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload struct {
		Nome string  `json:"nome"`
		CNPJ *string `json:"cnpj"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	org, err := h.orgs.Create(r.Context(), subject, organizacao.CreateInput{Nome: payload.Nome, CNPJ: payload.CNPJ})
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, org)
}

// GetOrganizacao devolve a organização se o usuário for membro.
func (h *Handler) GetOrganizacao(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	orgID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	org, err := h.orgs.Get(r.Context(), subject, orgID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, org)
}

// UpdateOrganizacao altera dados (somente Administrador/Dono).
func (h *Handler) UpdateOrganizacao(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	orgID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Nome *string `json:"nome"`
		CNPJ *string `json:"cnpj"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	org, err := h.orgs.Update(r.Context(), subject, orgID, organizacao.UpdateInput{Nome: payload.Nome, CNPJ: payload.CNPJ})
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, org)
}

// AddMembro vincula usuário existente à organização com papel.
func (h *Handler) AddMembro(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	orgID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		UsuarioID string `json:"usuario_id"`
		Papel     string `json:"papel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	usuarioID, err := uuid.Parse(strings.TrimSpace(payload.UsuarioID))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "usuario_id inválido", nil)
		return
	}

	if err := h.orgs.AdicionarMembro(r.Context(), subject, orgID, usuarioID, payload.Papel); err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

// RemoveMembro desativa o vínculo do usuário com a organização.
func (h *Handler) RemoveMembro(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	orgID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	usuarioID, ok := pathUUID(r, "userID")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "userID inválido", nil)
		return
	}

	if err := h.orgs.RemoverMembro(r.Context(), subject, orgID, usuarioID); err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
