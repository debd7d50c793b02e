package equipe

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/medsyncsaude/api/internal/util"
)

var corHex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// corPadrao é usada quando o cadastro não define cor para o calendário.
const corPadrao = "#4F46E5"

type repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Profissional, error)
	ListByOrganizacao(ctx context.Context, organizacaoID uuid.UUID, somenteAtivos bool) ([]ProfissionalComVinculo, error)
	HasVinculo(ctx context.Context, profissionalID, organizacaoID uuid.UUID) (bool, error)
	Create(ctx context.Context, organizacaoID uuid.UUID, input CreateInput) (*Profissional, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Profissional, error)
	Vincular(ctx context.Context, profissionalID, organizacaoID uuid.UUID) error
	Desvincular(ctx context.Context, profissionalID, organizacaoID uuid.UUID) error
	ListEspecialidades(ctx context.Context) ([]Especialidade, error)
}

// Service concentra regras da equipe médica.
type Service struct {
	repo repository
}

// NewService cria o serviço da equipe.
func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// List devolve os profissionais vinculados à organização.
func (s *Service) List(ctx context.Context, organizacaoID uuid.UUID, somenteAtivos bool) ([]ProfissionalComVinculo, error) {
	return s.repo.ListByOrganizacao(ctx, organizacaoID, somenteAtivos)
}

// Get devolve o profissional se houver vínculo com a organização.
func (s *Service) Get(ctx context.Context, organizacaoID, profissionalID uuid.UUID) (*Profissional, error) {
	ok, err := s.repo.HasVinculo(ctx, profissionalID, organizacaoID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, profissionalID)
}

// Create valida e cadastra profissional já vinculado à organização.
func (s *Service) Create(ctx context.Context, organizacaoID uuid.UUID, input CreateInput) (*Profissional, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, err
	}
	if err := util.RequireString(input.Profissao, "profissao"); err != nil {
		return nil, err
	}
	if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
		if err := util.ValidateEmail(*input.Email); err != nil {
			return nil, err
		}
	}
	if input.Telefone != nil {
		digits := util.OnlyDigits(*input.Telefone)
		input.Telefone = &digits
	}
	if strings.TrimSpace(input.Cor) == "" {
		input.Cor = corPadrao
	} else if !corHex.MatchString(input.Cor) {
		return nil, ErrCorInvalida
	}
	return s.repo.Create(ctx, organizacaoID, input)
}

// Update aplica alterações parciais validadas.
func (s *Service) Update(ctx context.Context, organizacaoID, profissionalID uuid.UUID, input UpdateInput) (*Profissional, error) {
	if _, err := s.Get(ctx, organizacaoID, profissionalID); err != nil {
		return nil, err
	}
	if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
		if err := util.ValidateEmail(*input.Email); err != nil {
			return nil, err
		}
	}
	if input.Telefone != nil {
		digits := util.OnlyDigits(*input.Telefone)
		input.Telefone = &digits
	}
	if input.Cor != nil && !corHex.MatchString(*input.Cor) {
		return nil, ErrCorInvalida
	}
	return s.repo.Update(ctx, profissionalID, input)
}

// Vincular adiciona profissional já cadastrado à organização.
func (s *Service) Vincular(ctx context.Context, organizacaoID, profissionalID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, profissionalID); err != nil {
		return err
	}
	return s.repo.Vincular(ctx, profissionalID, organizacaoID)
}

// Desvincular remove o profissional da organização sem apagar o cadastro.
func (s *Service) Desvincular(ctx context.Context, organizacaoID, profissionalID uuid.UUID) error {
	return s.repo.Desvincular(ctx, profissionalID, organizacaoID)
}

// ListEspecialidades devolve a tabela de consulta global.
func (s *Service) ListEspecialidades(ctx context.Context) ([]Especialidade, error) {
	return s.repo.ListEspecialidades(ctx)
}
