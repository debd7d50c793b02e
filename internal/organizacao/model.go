package organizacao

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("organização não encontrada")
	ErrForbidden = errors.New("acesso negado à organização")
)

const (
	PapelDono          = "Dono"
	PapelAdministrador = "Administrador"
	PapelGestor        = "Gestor"
	PapelMedico        = "Medico"
)

var validPapeis = map[string]struct{}{
	PapelDono:          {},
	PapelAdministrador: {},
	PapelGestor:        {},
	PapelMedico:        {},
}

// Organizacao representa uma rede/grupo de clínicas no painel.
type Organizacao struct {
	ID           uuid.UUID `json:"id"`
	Nome         string    `json:"nome"`
	CNPJ         *string   `json:"cnpj,omitempty"`
	CriadoEm     time.Time `json:"criado_em"`
	AtualizadoEm time.Time `json:"atualizado_em"`
}

// Membro vincula um usuário a uma organização com papel.
type Membro struct {
	UsuarioID     uuid.UUID `json:"usuario_id"`
	OrganizacaoID uuid.UUID `json:"organizacao_id"`
	Papel         string    `json:"papel"`
	Ativo         bool      `json:"ativo"`
	CriadoEm      time.Time `json:"criado_em"`
}

// MembroComOrganizacao agrega vínculo e dados da organização.
type MembroComOrganizacao struct {
	Organizacao Organizacao `json:"organizacao"`
	Papel       string      `json:"papel"`
	Ativo       bool        `json:"ativo"`
}

// CreateInput contém os campos para registrar uma organização.
type CreateInput struct {
	Nome string
	CNPJ *string
}

// UpdateInput aplica alterações parciais.
type UpdateInput struct {
	Nome *string
	CNPJ *string
}

// PapelValido informa se o papel é reconhecido.
func PapelValido(papel string) bool {
	_, ok := validPapeis[papel]
	return ok
}

// PapelAdministrativo informa se o papel autoriza mutações na organização.
func PapelAdministrativo(papel string) bool {
	return papel == PapelDono || papel == PapelAdministrador
}
