package equipe

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("profissional não encontrado")
	ErrVinculoNotFound = errors.New("vínculo não encontrado")
	ErrCorInvalida     = errors.New("cor deve estar no formato #RRGGBB")
)

// Profissional representa uma pessoa da equipe médica.
// O cadastro é compartilhável: a mesma pessoa pode atuar em mais de uma
// organização, cada vínculo com seu próprio status.
type Profissional struct {
	ID              uuid.UUID  `json:"id"`
	Nome            string     `json:"nome"`
	Email           *string    `json:"email,omitempty"`
	Telefone        *string    `json:"telefone,omitempty"`
	Profissao       string     `json:"profissao"`
	EspecialidadeID *uuid.UUID `json:"especialidade_id,omitempty"`
	Cor             string     `json:"cor"`
	Ativo           bool       `json:"ativo"`
	CriadoEm        time.Time  `json:"criado_em"`
}

// ProfissionalComVinculo agrega o cadastro ao vínculo na organização consultada.
type ProfissionalComVinculo struct {
	Profissional
	VinculoAtivo      bool `json:"vinculo_ativo"`
	OrganizationCount int  `json:"organization_count"`
}

// Especialidade é a tabela de consulta de especialidades médicas.
type Especialidade struct {
	ID   uuid.UUID `json:"id"`
	Nome string    `json:"nome"`
}

// CreateInput contém os campos para cadastrar um profissional.
type CreateInput struct {
	Nome            string
	Email           *string
	Telefone        *string
	Profissao       string
	EspecialidadeID *uuid.UUID
	Cor             string
}

// UpdateInput aplica alterações parciais no cadastro.
type UpdateInput struct {
	Nome            *string
	Email           *string
	Telefone        *string
	Profissao       *string
	EspecialidadeID *uuid.UUID
	Cor             *string
	Ativo           *bool
}
