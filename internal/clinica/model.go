package clinica

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("clínica não encontrada")
	ErrSetorNotFound = errors.New("setor não encontrado")
	ErrCNPJDuplicado = errors.New("já existe clínica com este CNPJ na organização")
	ErrTipoInvalido  = errors.New("tipo deve ser clinica ou hospital")
)

const (
	TipoClinica  = "clinica"
	TipoHospital = "hospital"
)

// Clinica representa uma unidade de atendimento da organização.
type Clinica struct {
	ID            uuid.UUID `json:"id"`
	OrganizacaoID uuid.UUID `json:"organizacao_id"`
	Nome          string    `json:"nome"`
	Tipo          string    `json:"tipo"`
	CNPJ          *string   `json:"cnpj,omitempty"`
	Telefone      *string   `json:"telefone,omitempty"`
	Ativo         bool      `json:"ativo"`
	CriadoEm      time.Time `json:"criado_em"`
	AtualizadoEm  time.Time `json:"atualizado_em"`
}

// Setor é uma subdivisão da clínica usada nas escalas (UTI, emergência etc).
type Setor struct {
	ID        uuid.UUID `json:"id"`
	ClinicaID uuid.UUID `json:"clinica_id"`
	Nome      string    `json:"nome"`
	Ativo     bool      `json:"ativo"`
	CriadoEm  time.Time `json:"criado_em"`
}

// CreateInput contém os campos para cadastrar uma clínica.
type CreateInput struct {
	Nome     string
	Tipo     string
	CNPJ     *string
	Telefone *string
}

// UpdateInput aplica alterações parciais.
type UpdateInput struct {
	Nome     *string
	Tipo     *string
	CNPJ     *string
	Telefone *string
	Ativo    *bool
}

// TipoValido informa se o tipo de unidade é reconhecido.
func TipoValido(tipo string) bool {
	return tipo == TipoClinica || tipo == TipoHospital
}
