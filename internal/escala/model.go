package escala

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("plantão não encontrado")
	ErrFixaNotFound      = errors.New("escala fixa não encontrada")
	ErrPeriodoInvalido   = errors.New("fim deve ser posterior ao início")
	ErrStatusInvalido    = errors.New("status inválido")
	ErrTransicaoInvalida = errors.New("transição de status não permitida")
)

const (
	StatusPending       = "pending"
	StatusAccepted      = "accepted"
	StatusDeclined      = "declined"
	StatusSwapRequested = "swap_requested"
)

var validStatuses = map[string]struct{}{
	StatusPending:       {},
	StatusAccepted:      {},
	StatusDeclined:      {},
	StatusSwapRequested: {},
}

// transicoes define o grafo de mudanças de status permitidas.
var transicoes = map[string][]string{
	StatusPending:       {StatusAccepted, StatusDeclined},
	StatusAccepted:      {StatusSwapRequested},
	StatusSwapRequested: {StatusAccepted, StatusDeclined},
}

// Plantao representa um turno de trabalho. ProfissionalID nulo indica
// plantão em aberto, ainda sem responsável.
type Plantao struct {
	ID             uuid.UUID  `json:"id"`
	OrganizacaoID  uuid.UUID  `json:"organizacao_id"`
	ClinicaID      uuid.UUID  `json:"clinica_id"`
	SetorID        *uuid.UUID `json:"setor_id,omitempty"`
	ProfissionalID *uuid.UUID `json:"profissional_id,omitempty"`
	Inicio         time.Time  `json:"inicio"`
	Fim            time.Time  `json:"fim"`
	Status         string     `json:"status"`
	Observacoes    *string    `json:"observacoes,omitempty"`
	EscalaFixaID   *uuid.UUID `json:"escala_fixa_id,omitempty"`
	CriadoEm       time.Time  `json:"criado_em"`
	AtualizadoEm   time.Time  `json:"atualizado_em"`
}

// PlantaoDetalhado agrega o plantão a nomes usados na listagem.
type PlantaoDetalhado struct {
	Plantao
	ProfissionalNome *string `json:"profissional_nome,omitempty"`
	ClinicaNome      string  `json:"clinica_nome"`
	SetorNome        *string `json:"setor_nome,omitempty"`
}

// ContagemStatus tabula plantões por status dentro de um grupo.
type ContagemStatus struct {
	Pending       int `json:"pending"`
	Accepted      int `json:"accepted"`
	Declined      int `json:"declined"`
	SwapRequested int `json:"swap_requested"`
}

// Total soma todas as contagens.
func (c ContagemStatus) Total() int {
	return c.Pending + c.Accepted + c.Declined + c.SwapRequested
}

// Grupo agrega plantões de um mesmo profissional para a visão em tabela.
// ProfissionalID nulo representa o grupo "sem profissional".
type Grupo struct {
	ProfissionalID   *uuid.UUID         `json:"profissional_id,omitempty"`
	ProfissionalNome string             `json:"profissional_nome"`
	TotalPlantoes    int                `json:"total_plantoes"`
	Contagem         ContagemStatus     `json:"contagem"`
	PeriodoInicio    time.Time          `json:"periodo_inicio"`
	PeriodoFim       time.Time          `json:"periodo_fim"`
	Plantoes         []PlantaoDetalhado `json:"plantoes"`
}

// EscalaFixa é o modelo semanal que origina plantões recorrentes.
type EscalaFixa struct {
	ID             uuid.UUID  `json:"id"`
	OrganizacaoID  uuid.UUID  `json:"organizacao_id"`
	ClinicaID      uuid.UUID  `json:"clinica_id"`
	SetorID        *uuid.UUID `json:"setor_id,omitempty"`
	ProfissionalID *uuid.UUID `json:"profissional_id,omitempty"`
	DiaSemana      int        `json:"dia_semana"` // 0 = domingo ... 6 = sábado
	HoraInicio     string     `json:"hora_inicio"`
	HoraFim        string     `json:"hora_fim"`
	Ativo          bool       `json:"ativo"`
	CriadoEm       time.Time  `json:"criado_em"`
}

// CreateInput contém os campos para registrar um plantão.
type CreateInput struct {
	ClinicaID      uuid.UUID
	SetorID        *uuid.UUID
	ProfissionalID *uuid.UUID
	Inicio         time.Time
	Fim            time.Time
	Observacoes    *string
}

// UpdateInput aplica alterações parciais no plantão. LimparProfissional
// remove o responsável atual, devolvendo o plantão ao quadro de abertos;
// quando verdadeiro, ProfissionalID é ignorado.
type UpdateInput struct {
	ClinicaID          *uuid.UUID
	SetorID            *uuid.UUID
	ProfissionalID     *uuid.UUID
	LimparProfissional bool
	Inicio             *time.Time
	Fim                *time.Time
	Observacoes        *string
}

// ListFilter restringe a listagem de plantões.
type ListFilter struct {
	OrganizacaoID  uuid.UUID
	ClinicaID      *uuid.UUID
	ProfissionalID *uuid.UUID
	De             *time.Time
	Ate            *time.Time
}

// CreateFixaInput contém os campos para registrar uma escala fixa.
type CreateFixaInput struct {
	ClinicaID      uuid.UUID
	SetorID        *uuid.UUID
	ProfissionalID *uuid.UUID
	DiaSemana      int
	HoraInicio     string
	HoraFim        string
}

// StatusValido informa se o status é reconhecido.
func StatusValido(status string) bool {
	_, ok := validStatuses[status]
	return ok
}

// TransicaoPermitida verifica o grafo de transições.
func TransicaoPermitida(de, para string) bool {
	for _, destino := range transicoes[de] {
		if destino == para {
			return true
		}
	}
	return false
}
