package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/medsyncsaude/api/internal/chat"
)

// uploadMaxMemory limita o buffer em memória do multipart (resto vai a disco).
const uploadMaxMemory = 8 << 20

func (h *Handler) formOrgID(r *http.Request) (uuid.UUID, bool) {
	raw := strings.TrimSpace(r.FormValue("organization_id"))
	if raw == "" {
		return queryOrgID(r)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// UploadAnexo recebe multipart (file, conversation_id, organization_id) e
// grava o anexo como pendente de revisão.
func (h *Handler) UploadAnexo(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	if err := r.ParseMultipartForm(uploadMaxMemory); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "multipart inválido", nil)
		return
	}

	orgID, ok := h.formOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	conversaID, err := uuid.Parse(strings.TrimSpace(r.FormValue("conversation_id")))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "conversation_id inválido", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "arquivo ausente", nil)
		return
	}
	defer file.Close()

	conteudo, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "falha ao ler arquivo", nil)
		return
	}

	anexo, err := h.chat.Upload(r.Context(), subject, chat.UploadAnexoInput{
		ConversaID:    conversaID,
		OrganizacaoID: orgID,
		NomeArquivo:   header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		Conteudo:      conteudo,
	})
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, anexo)
}

// ListAnexos lista anexos de uma conversa respeitando a visibilidade
// (pendentes/rejeitados só para uploader e administradores).
func (h *Handler) ListAnexos(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}
	conversaID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("conversation_id")))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "conversation_id inválido", nil)
		return
	}

	anexos, err := h.chat.ListByConversa(r.Context(), subject, orgID, conversaID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"attachments": anexos})
}

// ListAnexosPendentes lista a fila de revisão da organização.
func (h *Handler) ListAnexosPendentes(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	orgID, ok := queryOrgID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "organization_id inválido", nil)
		return
	}

	pendentes, err := h.chat.ListPendentes(r.Context(), subject, orgID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"attachments": pendentes})
}

// AprovarAnexo aceita o anexo pendente.
func (h *Handler) AprovarAnexo(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	anexoID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	anexo, err := h.chat.Aprovar(r.Context(), subject, anexoID)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, anexo)
}

// RejeitarAnexo rejeita o anexo pendente com motivo obrigatório.
func (h *Handler) RejeitarAnexo(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	anexoID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Motivo string `json:"motivo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	anexo, err := h.chat.Rejeitar(r.Context(), subject, anexoID, payload.Motivo)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, anexo)
}

// DownloadAnexo devolve URL temporária de download do anexo.
func (h *Handler) DownloadAnexo(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	anexoID, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	url, err := h.chat.DownloadURL(r.Context(), subject, anexoID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}
