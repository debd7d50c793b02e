package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/medsyncsaude/api/internal/equipe"
)

// ListProfissionais lista a equipe da organização.
func (h *Handler) ListProfissionais(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	if _, ok := h.requireMember(w, r, orgID); !ok {
		return
	}

	somenteAtivos := r.URL.Query().Get("inactive") != "true"
	profissionais, err := h.equipes.List(r.Context(), orgID, somenteAtivos)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"staff": profissionais})
}

// CreateProfissional cadastra profissional já vinculado à organização.
func (h *Handler) CreateProfissional(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	var payload struct {
		Nome            string  `json:"nome"`
		Email           *string `json:"email"`
		Telefone        *string `json:"telefone"`
		Profissao       string  `json:"profissao"`
		EspecialidadeID *string `json:"especialidade_id"`
		Cor             string  `json:"cor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	var especialidadeID *uuid.UUID
	if payload.EspecialidadeID != nil && strings.TrimSpace(*payload.EspecialidadeID) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(*payload.EspecialidadeID))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "especialidade_id inválido", nil)
			return
		}
		especialidadeID = &parsed
	}

	criado, err := h.equipes.Create(r.Context(), orgID, equipe.CreateInput{
		Nome:            payload.Nome,
		Email:           payload.Email,
		Telefone:        payload.Telefone,
		Profissao:       payload.Profissao,
		EspecialidadeID: especialidadeID,
		Cor:             payload.Cor,
	})
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, criado)
}

// GetProfissional devolve um profissional vinculado à organização.
func (h *Handler) GetProfissional(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	profissionalID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	if _, ok := h.requireMember(w, r, orgID); !ok {
		return
	}

	p, err := h.equipes.Get(r.Context(), orgID, profissionalID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, p)
}

// UpdateProfissional aplica alterações parciais no cadastro.
func (h *Handler) UpdateProfissional(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	profissionalID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	var payload struct {
		Nome            *string `json:"nome"`
		Email           *string `json:"email"`
		Telefone        *string `json:"telefone"`
		Profissao       *string `json:"profissao"`
		EspecialidadeID *string `json:"especialidade_id"`
		Cor             *string `json:"cor"`
		Ativo           *bool   `json:"ativo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	var especialidadeID *uuid.UUID
	if payload.EspecialidadeID != nil && strings.TrimSpace(*payload.EspecialidadeID) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(*payload.EspecialidadeID))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "especialidade_id inválido", nil)
			return
		}
		especialidadeID = &parsed
	}

	atualizado, err := h.equipes.Update(r.Context(), orgID, profissionalID, equipe.UpdateInput{
		Nome:            payload.Nome,
		Email:           payload.Email,
		Telefone:        payload.Telefone,
		Profissao:       payload.Profissao,
		EspecialidadeID: especialidadeID,
		Cor:             payload.Cor,
		Ativo:           payload.Ativo,
	})
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, atualizado)
}

// VincularProfissional (re)ativa o vínculo com a organização.
func (h *Handler) VincularProfissional(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	profissionalID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	if err := h.equipes.Vincular(r.Context(), orgID, profissionalID); err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DesvincularProfissional desativa o vínculo com a organização.
func (h *Handler) DesvincularProfissional(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	profissionalID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	if err := h.equipes.Desvincular(r.Context(), orgID, profissionalID); err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListEspecialidades lista o catálogo global de especialidades.
func (h *Handler) ListEspecialidades(w http.ResponseWriter, r *http.Request) {
	especialidades, err := h.equipes.ListEspecialidades(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"specialties": especialidades})
}
