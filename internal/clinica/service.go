package clinica

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/medsyncsaude/api/internal/util"
)

type repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Clinica, error)
	ListByOrganizacao(ctx context.Context, organizacaoID uuid.UUID) ([]Clinica, error)
	Create(ctx context.Context, organizacaoID uuid.UUID, input CreateInput) (*Clinica, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Clinica, error)
	Desativar(ctx context.Context, id uuid.UUID) error
	ListSetores(ctx context.Context, clinicaID uuid.UUID) ([]Setor, error)
	CreateSetor(ctx context.Context, clinicaID uuid.UUID, nome string) (*Setor, error)
	DesativarSetor(ctx context.Context, setorID uuid.UUID) error
}

// Service concentra regras de cadastro de clínicas.
type Service struct {
	repo repository
}

// NewService cria o serviço de clínicas.
func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// List devolve clínicas da organização.
func (s *Service) List(ctx context.Context, organizacaoID uuid.UUID) ([]Clinica, error) {
	return s.repo.ListByOrganizacao(ctx, organizacaoID)
}

// Get devolve a clínica validando que pertence à organização.
func (s *Service) Get(ctx context.Context, organizacaoID, clinicaID uuid.UUID) (*Clinica, error) {
	c, err := s.repo.GetByID(ctx, clinicaID)
	if err != nil {
		return nil, err
	}
	if c.OrganizacaoID != organizacaoID {
		return nil, ErrNotFound
	}
	return c, nil
}

// Create valida e cadastra uma nova clínica.
func (s *Service) Create(ctx context.Context, organizacaoID uuid.UUID, input CreateInput) (*Clinica, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, err
	}
	if !TipoValido(input.Tipo) {
		return nil, ErrTipoInvalido
	}
	if input.CNPJ != nil {
		digits := util.OnlyDigits(*input.CNPJ)
		if len(digits) != 14 {
			return nil, errors.New("cnpj deve ter 14 dígitos")
		}
		input.CNPJ = &digits
	}
	if input.Telefone != nil {
		digits := util.OnlyDigits(*input.Telefone)
		input.Telefone = &digits
	}
	return s.repo.Create(ctx, organizacaoID, input)
}

// Update aplica alterações parciais validadas.
func (s *Service) Update(ctx context.Context, organizacaoID, clinicaID uuid.UUID, input UpdateInput) (*Clinica, error) {
	if _, err := s.Get(ctx, organizacaoID, clinicaID); err != nil {
		return nil, err
	}
	if input.Tipo != nil && !TipoValido(*input.Tipo) {
		return nil, ErrTipoInvalido
	}
	if input.CNPJ != nil {
		digits := util.OnlyDigits(*input.CNPJ)
		if len(digits) != 14 {
			return nil, errors.New("cnpj deve ter 14 dígitos")
		}
		input.CNPJ = &digits
	}
	if input.Telefone != nil {
		digits := util.OnlyDigits(*input.Telefone)
		input.Telefone = &digits
	}
	return s.repo.Update(ctx, clinicaID, input)
}

// Desativar faz soft delete, preservando escalas históricas.
func (s *Service) Desativar(ctx context.Context, organizacaoID, clinicaID uuid.UUID) error {
	if _, err := s.Get(ctx, organizacaoID, clinicaID); err != nil {
		return err
	}
	return s.repo.Desativar(ctx, clinicaID)
}

// ListSetores devolve setores da clínica da organização.
func (s *Service) ListSetores(ctx context.Context, organizacaoID, clinicaID uuid.UUID) ([]Setor, error) {
	if _, err := s.Get(ctx, organizacaoID, clinicaID); err != nil {
		return nil, err
	}
	return s.repo.ListSetores(ctx, clinicaID)
}

// CreateSetor cadastra setor da clínica.
func (s *Service) CreateSetor(ctx context.Context, organizacaoID, clinicaID uuid.UUID, nome string) (*Setor, error) {
	if _, err := s.Get(ctx, organizacaoID, clinicaID); err != nil {
		return nil, err
	}
	if err := util.RequireString(nome, "nome"); err != nil {
		return nil, err
	}
	return s.repo.CreateSetor(ctx, clinicaID, nome)
}

// DesativarSetor faz soft delete do setor.
func (s *Service) DesativarSetor(ctx context.Context, organizacaoID, clinicaID, setorID uuid.UUID) error {
	if _, err := s.Get(ctx, organizacaoID, clinicaID); err != nil {
		return err
	}
	return s.repo.DesativarSetor(ctx, setorID)
}
