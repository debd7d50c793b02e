package escala

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medsyncsaude/api/internal/util"
)

// semProfissionalNome identifica o grupo de plantões em aberto na visão agrupada.
const semProfissionalNome = "Sem profissional"

type repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*PlantaoDetalhado, error)
	List(ctx context.Context, filter ListFilter) ([]PlantaoDetalhado, error)
	Create(ctx context.Context, organizacaoID uuid.UUID, input CreateInput, escalaFixaID *uuid.UUID) (*PlantaoDetalhado, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput, resetStatus bool) (*PlantaoDetalhado, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetFixaByID(ctx context.Context, id uuid.UUID) (*EscalaFixa, error)
	ListFixas(ctx context.Context, organizacaoID uuid.UUID) ([]EscalaFixa, error)
	CreateFixa(ctx context.Context, organizacaoID uuid.UUID, input CreateFixaInput) (*EscalaFixa, error)
	DesativarFixa(ctx context.Context, id uuid.UUID) error
	DatasGeradas(ctx context.Context, fixaID uuid.UUID, de, ate time.Time) (map[string]struct{}, error)
}

// Service concentra regras de escalas e plantões.
type Service struct {
	repo repository
}

// NewService cria o serviço de escalas.
func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// List devolve plantões detalhados conforme o filtro.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]PlantaoDetalhado, error) {
	return s.repo.List(ctx, filter)
}

// ListAgrupado devolve a visão agrupada por profissional.
func (s *Service) ListAgrupado(ctx context.Context, filter ListFilter) ([]Grupo, error) {
	plantoes, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return AgruparPorProfissional(plantoes), nil
}

// Get devolve o plantão validando que pertence à organização.
func (s *Service) Get(ctx context.Context, organizacaoID, plantaoID uuid.UUID) (*PlantaoDetalhado, error) {
	p, err := s.repo.GetByID(ctx, plantaoID)
	if err != nil {
		return nil, err
	}
	if p.OrganizacaoID != organizacaoID {
		return nil, ErrNotFound
	}
	return p, nil
}

// Create valida e registra um plantão avulso.
func (s *Service) Create(ctx context.Context, organizacaoID uuid.UUID, input CreateInput) (*PlantaoDetalhado, error) {
	if !input.Fim.After(input.Inicio) {
		return nil, ErrPeriodoInvalido
	}
	if input.Observacoes != nil {
		trimmed := strings.TrimSpace(*input.Observacoes)
		input.Observacoes = &trimmed
	}
	return s.repo.Create(ctx, organizacaoID, input, nil)
}

// Update aplica alterações no plantão. Trocar ou remover o responsável
// devolve o plantão ao status pending: trocado, aguarda aceite do novo
// profissional; removido, volta ao quadro de plantões em aberto.
func (s *Service) Update(ctx context.Context, organizacaoID, plantaoID uuid.UUID, input UpdateInput) (*PlantaoDetalhado, error) {
	atual, err := s.Get(ctx, organizacaoID, plantaoID)
	if err != nil {
		return nil, err
	}

	inicio := atual.Inicio
	if input.Inicio != nil {
		inicio = *input.Inicio
	}
	fim := atual.Fim
	if input.Fim != nil {
		fim = *input.Fim
	}
	if !fim.After(inicio) {
		return nil, ErrPeriodoInvalido
	}

	resetStatus := false
	switch {
	case input.LimparProfissional:
		input.ProfissionalID = nil
		resetStatus = atual.ProfissionalID != nil
	case input.ProfissionalID != nil:
		atualID := atual.ProfissionalID
		if atualID == nil || *atualID != *input.ProfissionalID {
			resetStatus = true
		}
	}

	return s.repo.Update(ctx, plantaoID, input, resetStatus)
}

// UpdateStatus valida a transição e grava o novo status.
func (s *Service) UpdateStatus(ctx context.Context, organizacaoID, plantaoID uuid.UUID, status string) (*PlantaoDetalhado, error) {
	if !StatusValido(status) {
		return nil, ErrStatusInvalido
	}

	atual, err := s.Get(ctx, organizacaoID, plantaoID)
	if err != nil {
		return nil, err
	}
	if !TransicaoPermitida(atual.Status, status) {
		return nil, ErrTransicaoInvalida
	}

	if err := s.repo.UpdateStatus(ctx, plantaoID, status); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, plantaoID)
}

// Delete remove o plantão.
func (s *Service) Delete(ctx context.Context, organizacaoID, plantaoID uuid.UUID) error {
	if _, err := s.Get(ctx, organizacaoID, plantaoID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, plantaoID)
}

// ListFixas devolve as escalas fixas ativas.
func (s *Service) ListFixas(ctx context.Context, organizacaoID uuid.UUID) ([]EscalaFixa, error) {
	return s.repo.ListFixas(ctx, organizacaoID)
}

// CreateFixa valida e registra uma escala fixa semanal.
func (s *Service) CreateFixa(ctx context.Context, organizacaoID uuid.UUID, input CreateFixaInput) (*EscalaFixa, error) {
	if input.DiaSemana < 0 || input.DiaSemana > 6 {
		return nil, errors.New("dia_semana deve estar entre 0 (domingo) e 6 (sábado)")
	}
	if err := util.RequireString(input.HoraInicio, "hora_inicio"); err != nil {
		return nil, err
	}
	if err := util.RequireString(input.HoraFim, "hora_fim"); err != nil {
		return nil, err
	}
	if _, err := time.Parse("15:04", input.HoraInicio); err != nil {
		return nil, errors.New("hora_inicio inválida (use HH:MM)")
	}
	if _, err := time.Parse("15:04", input.HoraFim); err != nil {
		return nil, errors.New("hora_fim inválida (use HH:MM)")
	}
	return s.repo.CreateFixa(ctx, organizacaoID, input)
}

// DesativarFixa interrompe a geração de novos plantões.
func (s *Service) DesativarFixa(ctx context.Context, organizacaoID, fixaID uuid.UUID) error {
	fixa, err := s.repo.GetFixaByID(ctx, fixaID)
	if err != nil {
		return err
	}
	if fixa.OrganizacaoID != organizacaoID {
		return ErrFixaNotFound
	}
	return s.repo.DesativarFixa(ctx, fixaID)
}

// GerarPlantoes materializa plantões da escala fixa no período informado,
// pulando dias que já possuem plantão originado do mesmo modelo.
func (s *Service) GerarPlantoes(ctx context.Context, organizacaoID, fixaID uuid.UUID, de, ate time.Time) ([]PlantaoDetalhado, error) {
	fixa, err := s.repo.GetFixaByID(ctx, fixaID)
	if err != nil {
		return nil, err
	}
	if fixa.OrganizacaoID != organizacaoID {
		return nil, ErrFixaNotFound
	}
	if !ate.After(de) {
		return nil, ErrPeriodoInvalido
	}

	horaInicio, err := time.Parse("15:04", fixa.HoraInicio)
	if err != nil {
		return nil, err
	}
	horaFim, err := time.Parse("15:04", fixa.HoraFim)
	if err != nil {
		return nil, err
	}

	geradas, err := s.repo.DatasGeradas(ctx, fixaID, de, ate.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	var criados []PlantaoDetalhado
	for dia := de; !dia.After(ate); dia = dia.AddDate(0, 0, 1) {
		if int(dia.Weekday()) != fixa.DiaSemana {
			continue
		}
		if _, ok := geradas[dia.Format("2006-01-02")]; ok {
			continue
		}

		inicio := time.Date(dia.Year(), dia.Month(), dia.Day(),
			horaInicio.Hour(), horaInicio.Minute(), 0, 0, dia.Location())
		fim := time.Date(dia.Year(), dia.Month(), dia.Day(),
			horaFim.Hour(), horaFim.Minute(), 0, 0, dia.Location())
		if !fim.After(inicio) {
			// turno atravessa a meia-noite
			fim = fim.AddDate(0, 0, 1)
		}

		input := CreateInput{
			ClinicaID:      fixa.ClinicaID,
			SetorID:        fixa.SetorID,
			ProfissionalID: fixa.ProfissionalID,
			Inicio:         inicio,
			Fim:            fim,
		}
		criado, err := s.repo.Create(ctx, organizacaoID, input, &fixa.ID)
		if err != nil {
			return nil, err
		}
		criados = append(criados, *criado)
	}

	return criados, nil
}

// AgruparPorProfissional agrega a lista plana em um grupo por profissional,
// mais um grupo único para plantões em aberto. Grupos com responsável são
// ordenados alfabeticamente; o grupo em aberto vai por último. Dentro de
// cada grupo os plantões ficam do mais recente para o mais antigo.
func AgruparPorProfissional(plantoes []PlantaoDetalhado) []Grupo {
	type chave struct {
		id     uuid.UUID
		aberto bool
	}

	grupos := make(map[chave]*Grupo)
	ordem := make([]chave, 0)

	for _, p := range plantoes {
		k := chave{aberto: true}
		if p.ProfissionalID != nil {
			k = chave{id: *p.ProfissionalID}
		}

		g, ok := grupos[k]
		if !ok {
			g = &Grupo{ProfissionalNome: semProfissionalNome}
			if p.ProfissionalID != nil {
				id := *p.ProfissionalID
				g.ProfissionalID = &id
				if p.ProfissionalNome != nil {
					g.ProfissionalNome = *p.ProfissionalNome
				}
			}
			g.PeriodoInicio = p.Inicio
			g.PeriodoFim = p.Inicio
			grupos[k] = g
			ordem = append(ordem, k)
		}

		switch p.Status {
		case StatusPending:
			g.Contagem.Pending++
		case StatusAccepted:
			g.Contagem.Accepted++
		case StatusDeclined:
			g.Contagem.Declined++
		case StatusSwapRequested:
			g.Contagem.SwapRequested++
		}

		if p.Inicio.Before(g.PeriodoInicio) {
			g.PeriodoInicio = p.Inicio
		}
		if p.Inicio.After(g.PeriodoFim) {
			g.PeriodoFim = p.Inicio
		}

		g.Plantoes = append(g.Plantoes, p)
	}

	resultado := make([]Grupo, 0, len(ordem))
	for _, k := range ordem {
		g := grupos[k]
		g.TotalPlantoes = g.Contagem.Total()
		sort.SliceStable(g.Plantoes, func(i, j int) bool {
			return g.Plantoes[i].Inicio.After(g.Plantoes[j].Inicio)
		})
		resultado = append(resultado, *g)
	}

	sort.SliceStable(resultado, func(i, j int) bool {
		a, b := resultado[i], resultado[j]
		if (a.ProfissionalID == nil) != (b.ProfissionalID == nil) {
			return b.ProfissionalID == nil
		}
		return strings.ToLower(a.ProfissionalNome) < strings.ToLower(b.ProfissionalNome)
	})

	return resultado
}
