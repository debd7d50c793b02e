package organizacao

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/medsyncsaude/api/internal/util"
)

type repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Organizacao, error)
	ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]MembroComOrganizacao, error)
	Create(ctx context.Context, input CreateInput, criadorID uuid.UUID) (*Organizacao, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Organizacao, error)
	GetMembro(ctx context.Context, usuarioID, organizacaoID uuid.UUID) (*Membro, error)
	UpsertMembro(ctx context.Context, usuarioID, organizacaoID uuid.UUID, papel string) error
	DesativarMembro(ctx context.Context, usuarioID, organizacaoID uuid.UUID) error
}

// Service concentra regras de organização e autorização por papel.
type Service struct {
	repo repository
}

// NewService cria o serviço de organizações.
func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// ListMinhas devolve organizações do usuário autenticado.
func (s *Service) ListMinhas(ctx context.Context, usuarioID uuid.UUID) ([]MembroComOrganizacao, error) {
	return s.repo.ListByUsuario(ctx, usuarioID)
}

// Get devolve a organização se o usuário for membro.
func (s *Service) Get(ctx context.Context, usuarioID, organizacaoID uuid.UUID) (*Organizacao, error) {
	if err := s.EnsureMember(ctx, usuarioID, organizacaoID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, organizacaoID)
}

// Create registra organização com o criador como Dono.
func (s *Service) Create(ctx context.Context, criadorID uuid.UUID, input CreateInput) (*Organizacao, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, err
	}
	if input.CNPJ != nil {
		digits := util.OnlyDigits(*input.CNPJ)
		if len(digits) != 14 {
			return nil, errors.New("cnpj deve ter 14 dígitos")
		}
		input.CNPJ = &digits
	}
	return s.repo.Create(ctx, input, criadorID)
}

// Update altera dados da organização (somente Administrador/Dono).
func (s *Service) Update(ctx context.Context, usuarioID, organizacaoID uuid.UUID, input UpdateInput) (*Organizacao, error) {
	if err := s.EnsureAdmin(ctx, usuarioID, organizacaoID); err != nil {
		return nil, err
	}
	if input.Nome != nil && strings.TrimSpace(*input.Nome) == "" {
		return nil, errors.New("nome não pode ser vazio")
	}
	if input.CNPJ != nil {
		digits := util.OnlyDigits(*input.CNPJ)
		if len(digits) != 14 {
			return nil, errors.New("cnpj deve ter 14 dígitos")
		}
		input.CNPJ = &digits
	}
	return s.repo.Update(ctx, organizacaoID, input)
}

// EnsureMember garante vínculo ativo; nega sem revelar se a organização existe.
func (s *Service) EnsureMember(ctx context.Context, usuarioID, organizacaoID uuid.UUID) error {
	membro, err := s.repo.GetMembro(ctx, usuarioID, organizacaoID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrForbidden
		}
		return err
	}
	if !membro.Ativo {
		return ErrForbidden
	}
	return nil
}

// EnsureAdmin garante papel Administrador ou Dono com vínculo ativo.
func (s *Service) EnsureAdmin(ctx context.Context, usuarioID, organizacaoID uuid.UUID) error {
	membro, err := s.repo.GetMembro(ctx, usuarioID, organizacaoID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrForbidden
		}
		return err
	}
	if !membro.Ativo || !PapelAdministrativo(membro.Papel) {
		return ErrForbidden
	}
	return nil
}

// Papel devolve o papel ativo do usuário na organização.
func (s *Service) Papel(ctx context.Context, usuarioID, organizacaoID uuid.UUID) (string, error) {
	membro, err := s.repo.GetMembro(ctx, usuarioID, organizacaoID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrForbidden
		}
		return "", err
	}
	if !membro.Ativo {
		return "", ErrForbidden
	}
	return membro.Papel, nil
}

// AdicionarMembro vincula usuário com papel, validando o papel informado.
func (s *Service) AdicionarMembro(ctx context.Context, adminID, organizacaoID, usuarioID uuid.UUID, papel string) error {
	if err := s.EnsureAdmin(ctx, adminID, organizacaoID); err != nil {
		return err
	}
	if !PapelValido(papel) {
		return errors.New("papel inválido")
	}
	return s.repo.UpsertMembro(ctx, usuarioID, organizacaoID, papel)
}

// RemoverMembro desativa o vínculo do usuário com a organização.
func (s *Service) RemoverMembro(ctx context.Context, adminID, organizacaoID, usuarioID uuid.UUID) error {
	if err := s.EnsureAdmin(ctx, adminID, organizacaoID); err != nil {
		return err
	}
	return s.repo.DesativarMembro(ctx, usuarioID, organizacaoID)
}
