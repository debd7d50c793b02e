package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status de revisão do anexo.
const (
	StatusPendente  = "pending"
	StatusAceito    = "accepted"
	StatusRejeitado = "rejected"
)

// MotivoMaxRunas limita o motivo de rejeição persistido.
const MotivoMaxRunas = 500

var (
	ErrNotFound  = errors.New("anexo não encontrado")
	ErrForbidden = errors.New("acesso negado ao anexo")
)

// Anexo é um arquivo enviado numa conversa, sujeito a revisão administrativa
// antes de ficar visível aos demais membros.
type Anexo struct {
	ID             uuid.UUID `json:"id"`
	ConversaID     uuid.UUID `json:"conversation_id"`
	OrganizacaoID  uuid.UUID `json:"organization_id"`
	UploaderID     uuid.UUID `json:"uploader_id"`
	NomeArquivo    string    `json:"nome_arquivo"`
	ContentType    string    `json:"content_type"`
	Tamanho        int64     `json:"tamanho"`
	Chave          string    `json:"-"`
	Status         string    `json:"status"`
	MotivoRejeicao *string   `json:"motivo_rejeicao,omitempty"`
	CriadoEm       time.Time `json:"criado_em"`
	AtualizadoEm   time.Time `json:"atualizado_em"`
}

// UploadAnexoInput descreve o arquivo recebido via multipart.
type UploadAnexoInput struct {
	ConversaID    uuid.UUID
	OrganizacaoID uuid.UUID
	NomeArquivo   string
	ContentType   string
	Conteudo      []byte
}

// StatusAnexoValido informa se o valor é um status conhecido.
func StatusAnexoValido(status string) bool {
	switch status {
	case StatusPendente, StatusAceito, StatusRejeitado:
		return true
	}
	return false
}
