package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/medsyncsaude/api/internal/clinica"
)

// requireMember resolve subject e garante vínculo ativo na organização.
func (h *Handler) requireMember(w http.ResponseWriter, r *http.Request, orgID uuid.UUID) (uuid.UUID, bool) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return uuid.Nil, false
	}
	if err := h.orgs.EnsureMember(r.Context(), subject, orgID); err != nil {
		writeDomainError(w, err)
		return uuid.Nil, false
	}
	return subject, true
}

// requireAdmin resolve subject e garante papel Administrador/Dono.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request, orgID uuid.UUID) (uuid.UUID, bool) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return uuid.Nil, false
	}
	if err := h.orgs.EnsureAdmin(r.Context(), subject, orgID); err != nil {
		writeDomainError(w, err)
		return uuid.Nil, false
	}
	return subject, true
}

// ListClinicas lista unidades da organização.
func (h *Handler) ListClinicas(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	if _, ok := h.requireMember(w, r, orgID); !ok {
		return
	}

	clinicas, err := h.clinicas.List(r.Context(), orgID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"clinics": clinicas})
}

// CreateClinica registra unidade nova.
func (h *Handler) CreateClinica(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	var payload struct {
		Nome     string  `json:"nome"`
		Tipo     string  `json:"tipo"`
		CNPJ     *string `json:"cnpj"`
		Telefone *string `json:"telefone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	criada, err := h.clinicas.Create(r.Context(), orgID, clinica.CreateInput{
		Nome:     payload.Nome,
		Tipo:     payload.Tipo,
		CNPJ:     payload.CNPJ,
		Telefone: payload.Telefone,
	})
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, criada)
}

// GetClinica devolve uma unidade da organização.
func (h *Handler) GetClinica(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	clinicaID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	if _, ok := h.requireMember(w, r, orgID); !ok {
		return
	}

	c, err := h.clinicas.Get(r.Context(), orgID, clinicaID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, c)
}

// UpdateClinica aplica alterações parciais.
func (h *Handler) UpdateClinica(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	clinicaID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	var payload struct {
		Nome     *string `json:"nome"`
		Tipo     *string `json:"tipo"`
		CNPJ     *string `json:"cnpj"`
		Telefone *string `json:"telefone"`
		Ativo    *bool   `json:"ativo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	atualizada, err := h.clinicas.Update(r.Context(), orgID, clinicaID, clinica.UpdateInput{
		Nome:     payload.Nome,
		Tipo:     payload.Tipo,
		CNPJ:     payload.CNPJ,
		Telefone: payload.Telefone,
		Ativo:    payload.Ativo,
	})
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, atualizada)
}

// DeleteClinica desativa a unidade.
func (h *Handler) DeleteClinica(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	clinicaID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	if err := h.clinicas.Desativar(r.Context(), orgID, clinicaID); err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListSetores lista setores da unidade.
func (h *Handler) ListSetores(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	clinicaID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	if _, ok := h.requireMember(w, r, orgID); !ok {
		return
	}

	setores, err := h.clinicas.ListSetores(r.Context(), orgID, clinicaID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"sectors": setores})
}

// CreateSetor registra setor novo na unidade.
func (h *Handler) CreateSetor(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	clinicaID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	var payload struct {
		Nome string `json:"nome"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	setor, err := h.clinicas.CreateSetor(r.Context(), orgID, clinicaID, payload.Nome)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, setor)
}

// DeleteSetor desativa o setor.
func (h *Handler) DeleteSetor(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	clinicaID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	setorID, ok := pathUUID(r, "sectorID")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "sectorID inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	if err := h.clinicas.DesativarSetor(r.Context(), orgID, clinicaID, setorID); err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
