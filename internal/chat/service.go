package chat

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medsyncsaude/api/internal/organizacao"
	"github.com/medsyncsaude/api/internal/storage"
	"github.com/medsyncsaude/api/internal/util"
)

// tamanhoMaxAnexo limita uploads a 25 MiB.
const tamanhoMaxAnexo = 25 << 20

// downloadTTL é a validade da URL temporária de download.
const downloadTTL = time.Hour

type repository interface {
	Create(ctx context.Context, a Anexo) (*Anexo, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Anexo, error)
	ListByConversa(ctx context.Context, conversaID uuid.UUID) ([]Anexo, error)
	ListPendentes(ctx context.Context, organizacaoID uuid.UUID) ([]Anexo, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, motivo *string) (*Anexo, error)
}

// autorizador responde vínculo e papel do usuário na organização.
type autorizador interface {
	EnsureMember(ctx context.Context, usuarioID, organizacaoID uuid.UUID) error
	EnsureAdmin(ctx context.Context, usuarioID, organizacaoID uuid.UUID) error
	Papel(ctx context.Context, usuarioID, organizacaoID uuid.UUID) (string, error)
}

// Service implementa o fluxo de anexos: upload pendente, revisão
// administrativa e download por URL temporária.
type Service struct {
	repo    repository
	orgs    autorizador
	storage storage.Storage
}

// NewService cria o serviço de anexos de chat.
func NewService(repo repository, orgs autorizador, st storage.Storage) *Service {
	return &Service{repo: repo, orgs: orgs, storage: st}
}

// Upload envia o arquivo ao bucket e grava o anexo como pendente.
func (s *Service) Upload(ctx context.Context, usuarioID uuid.UUID, input UploadAnexoInput) (*Anexo, error) {
	if err := s.orgs.EnsureMember(ctx, usuarioID, input.OrganizacaoID); err != nil {
		return nil, err
	}
	if err := util.RequireString(input.NomeArquivo, "nome do arquivo"); err != nil {
		return nil, err
	}
	if len(input.Conteudo) == 0 {
		return nil, errors.New("arquivo vazio")
	}
	if len(input.Conteudo) > tamanhoMaxAnexo {
		return nil, errors.New("arquivo excede o limite de 25 MB")
	}

	contentType := strings.TrimSpace(input.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	id := uuid.New()
	chave := fmt.Sprintf("%s/chat/%s/%s%s",
		input.OrganizacaoID, input.ConversaID, id, strings.ToLower(path.Ext(input.NomeArquivo)))

	if _, err := s.storage.Upload(ctx, storage.UploadInput{
		Key:         chave,
		Body:        input.Conteudo,
		ContentType: contentType,
	}); err != nil {
		return nil, fmt.Errorf("enviar anexo ao storage: %w", err)
	}

	return s.repo.Create(ctx, Anexo{
		ID:            id,
		ConversaID:    input.ConversaID,
		OrganizacaoID: input.OrganizacaoID,
		UploaderID:    usuarioID,
		NomeArquivo:   path.Base(input.NomeArquivo),
		ContentType:   contentType,
		Tamanho:       int64(len(input.Conteudo)),
		Chave:         chave,
		Status:        StatusPendente,
	})
}

// ListByConversa lista anexos da conversa para um membro da organização.
// Anexos pendentes ou rejeitados só aparecem para o uploader e para
// administradores.
func (s *Service) ListByConversa(ctx context.Context, usuarioID, organizacaoID, conversaID uuid.UUID) ([]Anexo, error) {
	if err := s.orgs.EnsureMember(ctx, usuarioID, organizacaoID); err != nil {
		return nil, err
	}

	anexos, err := s.repo.ListByConversa(ctx, conversaID)
	if err != nil {
		return nil, err
	}

	admin := s.orgs.EnsureAdmin(ctx, usuarioID, organizacaoID) == nil

	visiveis := make([]Anexo, 0, len(anexos))
	for _, a := range anexos {
		if a.OrganizacaoID != organizacaoID {
			continue
		}
		if a.Status == StatusAceito || a.UploaderID == usuarioID || admin {
			visiveis = append(visiveis, a)
		}
	}
	return visiveis, nil
}

// ListPendentes lista a fila de revisão, restrita a administradores.
func (s *Service) ListPendentes(ctx context.Context, usuarioID, organizacaoID uuid.UUID) ([]Anexo, error) {
	if err := s.orgs.EnsureAdmin(ctx, usuarioID, organizacaoID); err != nil {
		return nil, err
	}
	return s.repo.ListPendentes(ctx, organizacaoID)
}

// Aprovar marca o anexo como aceito. Somente administradores da organização.
func (s *Service) Aprovar(ctx context.Context, usuarioID, anexoID uuid.UUID) (*Anexo, error) {
	anexo, err := s.repo.GetByID(ctx, anexoID)
	if err != nil {
		return nil, err
	}
	if err := s.orgs.EnsureAdmin(ctx, usuarioID, anexo.OrganizacaoID); err != nil {
		return nil, err
	}
	return s.repo.UpdateStatus(ctx, anexoID, StatusAceito, nil)
}

// Rejeitar marca o anexo como rejeitado com motivo truncado em 500 runas.
func (s *Service) Rejeitar(ctx context.Context, usuarioID, anexoID uuid.UUID, motivo string) (*Anexo, error) {
	anexo, err := s.repo.GetByID(ctx, anexoID)
	if err != nil {
		return nil, err
	}
	if err := s.orgs.EnsureAdmin(ctx, usuarioID, anexo.OrganizacaoID); err != nil {
		return nil, err
	}

	motivo = strings.TrimSpace(motivo)
	if motivo == "" {
		return nil, errors.New("motivo da rejeição é obrigatório")
	}
	motivo = util.TruncateRunes(motivo, MotivoMaxRunas)

	return s.repo.UpdateStatus(ctx, anexoID, StatusRejeitado, &motivo)
}

// DownloadURL gera a URL temporária de download. O chamador precisa ser membro
// da organização do anexo e, se o anexo não foi aceito, ser o uploader ou
// administrador.
func (s *Service) DownloadURL(ctx context.Context, usuarioID, anexoID uuid.UUID) (string, error) {
	anexo, err := s.repo.GetByID(ctx, anexoID)
	if err != nil {
		return "", err
	}

	if err := s.orgs.EnsureMember(ctx, usuarioID, anexo.OrganizacaoID); err != nil {
		return "", err
	}

	if anexo.Status != StatusAceito && anexo.UploaderID != usuarioID {
		papel, err := s.orgs.Papel(ctx, usuarioID, anexo.OrganizacaoID)
		if err != nil {
			return "", err
		}
		if !organizacao.PapelAdministrativo(papel) {
			return "", ErrForbidden
		}
	}

	url, err := s.storage.SignedURL(anexo.Chave, downloadTTL)
	if err != nil {
		return "", fmt.Errorf("assinar URL de download: %w", err)
	}
	return url, nil
}
