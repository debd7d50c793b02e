package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/medsyncsaude/api/internal/http/middleware"
)

// Health responde prova de vida do processo.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready verifica dependências externas (Postgres e Redis).
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.pool.Ping(ctx); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "banco de dados indisponível", nil)
		return
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "redis indisponível", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// subjectUUID devolve o usuário autenticado do contexto.
func (h *Handler) subjectUUID(r *http.Request) (uuid.UUID, error) {
	id := httpmiddleware.GetSubjectUUID(r.Context())
	if id == uuid.Nil {
		return uuid.Nil, errors.New("subject ausente")
	}
	return id, nil
}

// pathUUID extrai um UUID de um parâmetro de rota do chi.
func pathUUID(r *http.Request, param string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// queryOrgID extrai organization_id da query string.
func queryOrgID(r *http.Request) (uuid.UUID, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("organization_id"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
