package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medsyncsaude/api/internal/escala"
)

func parseListFilter(r *http.Request, orgID uuid.UUID) (escala.ListFilter, string) {
	filter := escala.ListFilter{OrganizacaoID: orgID}
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("clinic_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, "clinic_id inválido"
		}
		filter.ClinicaID = &id
	}
	if raw := strings.TrimSpace(q.Get("staff_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, "staff_id inválido"
		}
		filter.ProfissionalID = &id
	}
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, "from deve estar em RFC3339"
		}
		filter.De = &t
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, "to deve estar em RFC3339"
		}
		filter.Ate = &t
	}

	return filter, ""
}

// ListPlantoes lista plantões com filtros opcionais.
func (h *Handler) ListPlantoes(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	if _, ok := h.requireMember(w, r, orgID); !ok {
		return
	}

	filter, msg := parseListFilter(r, orgID)
	if msg != "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", msg, nil)
		return
	}

	plantoes, err := h.escalas.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"shifts": plantoes})
}

// ListPlantoesAgrupados devolve a visão em tabela, um grupo por profissional.
func (h *Handler) ListPlantoesAgrupados(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	if _, ok := h.requireMember(w, r, orgID); !ok {
		return
	}

	filter, msg := parseListFilter(r, orgID)
	if msg != "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", msg, nil)
		return
	}

	grupos, err := h.escalas.ListAgrupado(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"groups": grupos})
}

type plantaoPayload struct {
	ClinicaID      string  `json:"clinica_id"`
	SetorID        *string `json:"setor_id"`
	ProfissionalID *string `json:"profissional_id"`
	Inicio         string  `json:"inicio"`
	Fim            string  `json:"fim"`
	Observacoes    *string `json:"observacoes"`
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, string) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, ""
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, field + " inválido"
	}
	return &id, ""
}

// CreatePlantao registra plantão novo com status pendente.
func (h *Handler) CreatePlantao(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	var payload plantaoPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	clinicaID, err := uuid.Parse(strings.TrimSpace(payload.ClinicaID))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "clinica_id inválido", nil)
		return
	}
	setorID, msg := parseOptionalUUID(payload.SetorID, "setor_id")
	if msg != "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", msg, nil)
		return
	}
	profissionalID, msg := parseOptionalUUID(payload.ProfissionalID, "profissional_id")
	if msg != "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", msg, nil)
		return
	}

	inicio, err := time.Parse(time.RFC3339, payload.Inicio)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "inicio deve estar em RFC3339", nil)
		return
	}
	fim, err := time.Parse(time.RFC3339, payload.Fim)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "fim deve estar em RFC3339", nil)
		return
	}

	criado, err := h.escalas.Create(r.Context(), orgID, escala.CreateInput{
		ClinicaID:      clinicaID,
		SetorID:        setorID,
		ProfissionalID: profissionalID,
		Inicio:         inicio,
		Fim:            fim,
		Observacoes:    payload.Observacoes,
	})
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, criado)
}

// UpdatePlantao altera o plantão; trocar o profissional reinicia o status,
// e "profissional_id": null devolve o plantão ao quadro de abertos.
func (h *Handler) UpdatePlantao(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	plantaoID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	var payload struct {
		ClinicaID      *string         `json:"clinica_id"`
		SetorID        *string         `json:"setor_id"`
		ProfissionalID json.RawMessage `json:"profissional_id"`
		Inicio         *string         `json:"inicio"`
		Fim            *string         `json:"fim"`
		Observacoes    *string         `json:"observacoes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	input := escala.UpdateInput{Observacoes: payload.Observacoes}

	clinicaID, msg := parseOptionalUUID(payload.ClinicaID, "clinica_id")
	if msg != "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", msg, nil)
		return
	}
	input.ClinicaID = clinicaID

	setorID, msg := parseOptionalUUID(payload.SetorID, "setor_id")
	if msg != "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", msg, nil)
		return
	}
	input.SetorID = setorID

	// campo ausente preserva o responsável; null explícito remove
	if len(payload.ProfissionalID) > 0 {
		if string(payload.ProfissionalID) == "null" {
			input.LimparProfissional = true
		} else {
			var raw string
			if err := json.Unmarshal(payload.ProfissionalID, &raw); err != nil {
				WriteError(w, http.StatusBadRequest, "VALIDATION", "profissional_id inválido", nil)
				return
			}
			profissionalID, msg := parseOptionalUUID(&raw, "profissional_id")
			if msg != "" {
				WriteError(w, http.StatusBadRequest, "VALIDATION", msg, nil)
				return
			}
			input.ProfissionalID = profissionalID
		}
	}

	if payload.Inicio != nil {
		t, err := time.Parse(time.RFC3339, *payload.Inicio)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "inicio deve estar em RFC3339", nil)
			return
		}
		input.Inicio = &t
	}
	if payload.Fim != nil {
		t, err := time.Parse(time.RFC3339, *payload.Fim)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "fim deve estar em RFC3339", nil)
			return
		}
		input.Fim = &t
	}

	atualizado, err := h.escalas.Update(r.Context(), orgID, plantaoID, input)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, atualizado)
}

// UpdatePlantaoStatus aplica transição de status validada.
func (h *Handler) UpdatePlantaoStatus(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	plantaoID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	atualizado, err := h.escalas.UpdateStatus(r.Context(), orgID, plantaoID, strings.TrimSpace(payload.Status))
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, atualizado)
}

// DeletePlantao remove o plantão.
func (h *Handler) DeletePlantao(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	plantaoID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	if err := h.escalas.Delete(r.Context(), orgID, plantaoID); err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListEscalasFixas lista modelos recorrentes da organização.
func (h *Handler) ListEscalasFixas(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	if _, ok := h.requireMember(w, r, orgID); !ok {
		return
	}

	fixas, err := h.escalas.ListFixas(r.Context(), orgID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"schedules": fixas})
}

// CreateEscalaFixa registra modelo recorrente.
func (h *Handler) CreateEscalaFixa(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	var payload struct {
		ClinicaID      string  `json:"clinica_id"`
		SetorID        *string `json:"setor_id"`
		ProfissionalID *string `json:"profissional_id"`
		DiaSemana      int     `json:"dia_semana"`
		HoraInicio     string  `json:"hora_inicio"`
		HoraFim        string  `json:"hora_fim"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	clinicaID, err := uuid.Parse(strings.TrimSpace(payload.ClinicaID))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "clinica_id inválido", nil)
		return
	}
	setorID, msg := parseOptionalUUID(payload.SetorID, "setor_id")
	if msg != "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", msg, nil)
		return
	}
	profissionalID, msg := parseOptionalUUID(payload.ProfissionalID, "profissional_id")
	if msg != "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", msg, nil)
		return
	}

	fixa, err := h.escalas.CreateFixa(r.Context(), orgID, escala.CreateFixaInput{
		ClinicaID:      clinicaID,
		SetorID:        setorID,
		ProfissionalID: profissionalID,
		DiaSemana:      payload.DiaSemana,
		HoraInicio:     payload.HoraInicio,
		HoraFim:        payload.HoraFim,
	})
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, fixa)
}

// DeleteEscalaFixa desativa o modelo recorrente.
func (h *Handler) DeleteEscalaFixa(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	fixaID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	if err := h.escalas.DesativarFixa(r.Context(), orgID, fixaID); err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// GerarPlantoes materializa plantões do modelo recorrente num período.
func (h *Handler) GerarPlantoes(w http.ResponseWriter, r *http.Request) {
	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	fixaID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}
	if _, ok := h.requireAdmin(w, r, orgID); !ok {
		return
	}

	var payload struct {
		De  string `json:"de"`
		Ate string `json:"ate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	de, err := time.Parse("2006-01-02", payload.De)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "de deve estar em YYYY-MM-DD", nil)
		return
	}
	ate, err := time.Parse("2006-01-02", payload.Ate)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "ate deve estar em YYYY-MM-DD", nil)
		return
	}

	gerados, err := h.escalas.GerarPlantoes(r.Context(), orgID, fixaID, de, ate)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"shifts": gerados, "generated": len(gerados)})
}
