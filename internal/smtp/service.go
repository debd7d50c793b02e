package smtp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/medsyncsaude/api/internal/secret"
	"github.com/medsyncsaude/api/internal/util"
)

// repository abstrai a persistência da configuração por organização.
type repository interface {
	GetByOrganizacao(ctx context.Context, organizacaoID uuid.UUID) (*Settings, error)
	Insert(ctx context.Context, s Settings) (*Settings, error)
	Save(ctx context.Context, s Settings) (*Settings, error)
}

// Service orquestra leitura e escrita da configuração SMTP. A senha entra
// em claro no payload e sai criptografada para o banco; nenhuma resposta
// devolve senha (nem criptografada).
type Service struct {
	repo   repository
	cipher *secret.Cipher
	mailer Mailer
}

// NewService cria o serviço de configuração SMTP.
func NewService(repo repository, cipher *secret.Cipher, mailer Mailer) *Service {
	return &Service{repo: repo, cipher: cipher, mailer: mailer}
}

// Get devolve a visão sanitizada da configuração da organização.
func (s *Service) Get(ctx context.Context, organizacaoID uuid.UUID) (*SettingsSanitized, error) {
	settings, err := s.repo.GetByOrganizacao(ctx, organizacaoID)
	if err != nil {
		return nil, err
	}
	return settings.Sanitize(), nil
}

// Create grava a configuração inicial da organização.
func (s *Service) Create(ctx context.Context, organizacaoID uuid.UUID, input CreateSettingsInput) (*SettingsSanitized, error) {
	if err := validarCampos(input.Host, input.Porta, input.FromEmail); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Senha) == "" {
		return nil, errors.New("senha do SMTP é obrigatória")
	}

	senhaCifrada, err := s.cipher.Encrypt(input.Senha)
	if err != nil {
		return nil, fmt.Errorf("criptografar senha: %w", err)
	}

	saved, err := s.repo.Insert(ctx, Settings{
		OrganizacaoID:      organizacaoID,
		Host:               strings.TrimSpace(input.Host),
		Porta:              input.Porta,
		Usuario:            strings.TrimSpace(input.Usuario),
		SenhaCriptografada: senhaCifrada,
		FromEmail:          strings.TrimSpace(input.FromEmail),
		FromNome:           input.FromNome,
		UseTLS:             input.UseTLS,
		IsEnabled:          input.IsEnabled,
	})
	if err != nil {
		return nil, err
	}
	return saved.Sanitize(), nil
}

// Update aplica merge parcial sobre a configuração existente. Senha ausente
// ou vazia no payload preserva a senha atual.
func (s *Service) Update(ctx context.Context, organizacaoID uuid.UUID, input UpdateSettingsInput) (*SettingsSanitized, error) {
	atual, err := s.repo.GetByOrganizacao(ctx, organizacaoID)
	if err != nil {
		return nil, err
	}

	if input.Host != nil {
		atual.Host = strings.TrimSpace(*input.Host)
	}
	if input.Porta != nil {
		atual.Porta = *input.Porta
	}
	if input.Usuario != nil {
		atual.Usuario = strings.TrimSpace(*input.Usuario)
	}
	if input.FromEmail != nil {
		atual.FromEmail = strings.TrimSpace(*input.FromEmail)
	}
	if input.FromNome != nil {
		atual.FromNome = input.FromNome
	}
	if input.UseTLS != nil {
		atual.UseTLS = *input.UseTLS
	}
	if input.IsEnabled != nil {
		atual.IsEnabled = *input.IsEnabled
	}
	if input.Senha != nil && strings.TrimSpace(*input.Senha) != "" {
		cifrada, err := s.cipher.Encrypt(*input.Senha)
		if err != nil {
			return nil, fmt.Errorf("criptografar senha: %w", err)
		}
		atual.SenhaCriptografada = cifrada
	}

	if err := validarCampos(atual.Host, atual.Porta, atual.FromEmail); err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, *atual)
	if err != nil {
		return nil, err
	}
	return saved.Sanitize(), nil
}

// TestResult é o retorno da verificação de conexão.
type TestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TestInput carrega a configuração usada no teste de conexão. A senha é
// opcional quando a organização já tem uma senha armazenada.
type TestInput struct {
	Host      string
	Porta     int
	Usuario   string
	Senha     string
	FromEmail string
	FromNome  *string
	UseTLS    bool
	Para      string
}

// TestarConexao envia um e-mail de teste com a configuração do payload,
// recorrendo à senha armazenada quando o payload a omite, e traduz qualquer
// falha em mensagem amigável.
func (s *Service) TestarConexao(ctx context.Context, organizacaoID uuid.UUID, input TestInput) (*TestResult, error) {
	if err := validarCampos(input.Host, input.Porta, input.FromEmail); err != nil {
		return nil, err
	}
	if err := util.ValidateEmail(input.Para); err != nil {
		return nil, errors.New("destinatário de teste inválido")
	}

	senha := input.Senha
	if strings.TrimSpace(senha) == "" {
		settings, err := s.repo.GetByOrganizacao(ctx, organizacaoID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, errors.New("senha do SMTP é obrigatória quando não há configuração salva")
			}
			return nil, err
		}
		senha, err = s.cipher.Decrypt(settings.SenhaCriptografada)
		if err != nil {
			return nil, fmt.Errorf("descriptografar senha: %w", err)
		}
	}

	if err := s.mailer.SendTest(ctx, TestMessage{
		Host:      input.Host,
		Porta:     input.Porta,
		Usuario:   input.Usuario,
		Senha:     senha,
		FromEmail: input.FromEmail,
		FromNome:  input.FromNome,
		UseTLS:    input.UseTLS,
		Para:      input.Para,
	}); err != nil {
		return &TestResult{Success: false, Message: ClassificarErro(err)}, nil
	}

	return &TestResult{
		Success: true,
		Message: "Conexão SMTP verificada com sucesso. E-mail de teste enviado.",
	}, nil
}

func validarCampos(host string, porta int, fromEmail string) error {
	if strings.TrimSpace(host) == "" {
		return errors.New("host do SMTP é obrigatório")
	}
	if porta < 1 || porta > 65535 {
		return errors.New("porta do SMTP deve estar entre 1 e 65535")
	}
	if err := util.ValidateEmail(fromEmail); err != nil {
		return errors.New("e-mail de remetente inválido")
	}
	return nil
}
