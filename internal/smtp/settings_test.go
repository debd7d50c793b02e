package smtp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/medsyncsaude/api/internal/secret"
)

type stubRepo struct {
	settings map[uuid.UUID]*Settings
}

func newStubRepo() *stubRepo {
	return &stubRepo{settings: make(map[uuid.UUID]*Settings)}
}

func (r *stubRepo) GetByOrganizacao(_ context.Context, organizacaoID uuid.UUID) (*Settings, error) {
	s, ok := r.settings[organizacaoID]
	if !ok {
		return nil, ErrNotFound
	}
	copia := *s
	return &copia, nil
}

func (r *stubRepo) Insert(_ context.Context, s Settings) (*Settings, error) {
	if _, ok := r.settings[s.OrganizacaoID]; ok {
		return nil, ErrConflict
	}
	r.settings[s.OrganizacaoID] = &s
	copia := s
	return &copia, nil
}

func (r *stubRepo) Save(_ context.Context, s Settings) (*Settings, error) {
	if _, ok := r.settings[s.OrganizacaoID]; !ok {
		return nil, ErrNotFound
	}
	r.settings[s.OrganizacaoID] = &s
	copia := s
	return &copia, nil
}

type stubMailer struct {
	err  error
	last *TestMessage
}

func (m *stubMailer) SendTest(_ context.Context, msg TestMessage) error {
	m.last = &msg
	return m.err
}

func testService(t *testing.T) (*Service, *stubRepo, *stubMailer) {
	t.Helper()
	cipher, err := secret.NewCipher(bytes.Repeat([]byte{0x42}, 32))
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	repo := newStubRepo()
	mailer := &stubMailer{}
	return NewService(repo, cipher, mailer), repo, mailer
}

func criarPadrao(t *testing.T, svc *Service, orgID uuid.UUID) *SettingsSanitized {
	t.Helper()
	saved, err := svc.Create(context.Background(), orgID, CreateSettingsInput{
		Host:      "smtp.exemplo.com.br",
		Porta:     587,
		Usuario:   "noreply@exemplo.com.br",
		Senha:     "senha-super-secreta",
		FromEmail: "noreply@exemplo.com.br",
		UseTLS:    true,
		IsEnabled: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return saved
}

func TestCreateNuncaExpoeSenha(t *testing.T) {
	svc, repo, _ := testService(t)
	orgID := uuid.New()

	saved := criarPadrao(t, svc, orgID)

	if !saved.HasPassword {
		t.Error("has_password deveria ser true")
	}

	payload, err := json.Marshal(saved)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(payload), "senha-super-secreta") {
		t.Error("senha em claro vazou na resposta")
	}
	if strings.Contains(strings.ToLower(string(payload)), "senha_criptografada") {
		t.Error("senha criptografada vazou na resposta")
	}

	guardado := repo.settings[orgID]
	if guardado.SenhaCriptografada == "senha-super-secreta" {
		t.Error("senha deveria estar criptografada no repositório")
	}
}

func TestCreateDuplicadoConflita(t *testing.T) {
	svc, _, _ := testService(t)
	orgID := uuid.New()

	criarPadrao(t, svc, orgID)

	_, err := svc.Create(context.Background(), orgID, CreateSettingsInput{
		Host:      "smtp.outro.com.br",
		Porta:     465,
		Usuario:   "x",
		Senha:     "y",
		FromEmail: "x@outro.com.br",
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("esperava ErrConflict, veio %v", err)
	}
}

func TestCreateExigeSenha(t *testing.T) {
	svc, _, _ := testService(t)

	_, err := svc.Create(context.Background(), uuid.New(), CreateSettingsInput{
		Host:      "smtp.exemplo.com.br",
		Porta:     587,
		FromEmail: "noreply@exemplo.com.br",
	})
	if err == nil {
		t.Error("criação sem senha deveria falhar")
	}
}

func TestUpdatePreservaSenhaQuandoOmitida(t *testing.T) {
	svc, repo, _ := testService(t)
	orgID := uuid.New()

	criarPadrao(t, svc, orgID)
	cifradaAntes := repo.settings[orgID].SenhaCriptografada

	novoHost := "smtp2.exemplo.com.br"
	saved, err := svc.Update(context.Background(), orgID, UpdateSettingsInput{Host: &novoHost})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if saved.Host != novoHost {
		t.Errorf("host não atualizado: %s", saved.Host)
	}
	if repo.settings[orgID].SenhaCriptografada != cifradaAntes {
		t.Error("senha deveria ser preservada quando omitida do payload")
	}

	vazia := ""
	if _, err := svc.Update(context.Background(), orgID, UpdateSettingsInput{Senha: &vazia}); err != nil {
		t.Fatalf("Update com senha vazia: %v", err)
	}
	if repo.settings[orgID].SenhaCriptografada != cifradaAntes {
		t.Error("senha vazia no payload não deveria sobrescrever a atual")
	}
}

func TestUpdateTrocaSenha(t *testing.T) {
	svc, repo, _ := testService(t)
	orgID := uuid.New()

	criarPadrao(t, svc, orgID)
	cifradaAntes := repo.settings[orgID].SenhaCriptografada

	nova := "outra-senha"
	if _, err := svc.Update(context.Background(), orgID, UpdateSettingsInput{Senha: &nova}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if repo.settings[orgID].SenhaCriptografada == cifradaAntes {
		t.Error("senha nova deveria substituir a cifrada anterior")
	}
}

func TestUpdateInexistente(t *testing.T) {
	svc, _, _ := testService(t)

	host := "smtp.exemplo.com.br"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateSettingsInput{Host: &host})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("esperava ErrNotFound, veio %v", err)
	}
}

func testInputPadrao() TestInput {
	return TestInput{
		Host:      "smtp.exemplo.com.br",
		Porta:     587,
		Usuario:   "noreply@exemplo.com.br",
		FromEmail: "noreply@exemplo.com.br",
		UseTLS:    true,
		Para:      "medico@exemplo.com.br",
	}
}

func TestTestarConexaoUsaSenhaArmazenada(t *testing.T) {
	svc, _, mailer := testService(t)
	orgID := uuid.New()

	criarPadrao(t, svc, orgID)

	res, err := svc.TestarConexao(context.Background(), orgID, testInputPadrao())
	if err != nil {
		t.Fatalf("TestarConexao: %v", err)
	}
	if !res.Success {
		t.Errorf("teste deveria ter sucesso: %s", res.Message)
	}
	if mailer.last == nil {
		t.Fatal("mailer não foi chamado")
	}
	if mailer.last.Senha != "senha-super-secreta" {
		t.Errorf("senha omitida deveria cair na armazenada, veio %q", mailer.last.Senha)
	}
	if mailer.last.Para != "medico@exemplo.com.br" {
		t.Errorf("destinatário errado: %s", mailer.last.Para)
	}
}

func TestTestarConexaoSenhaDoPayloadTemPrioridade(t *testing.T) {
	svc, _, mailer := testService(t)
	orgID := uuid.New()

	criarPadrao(t, svc, orgID)

	input := testInputPadrao()
	input.Senha = "senha-do-payload"
	if _, err := svc.TestarConexao(context.Background(), orgID, input); err != nil {
		t.Fatalf("TestarConexao: %v", err)
	}
	if mailer.last.Senha != "senha-do-payload" {
		t.Errorf("senha do payload deveria prevalecer, veio %q", mailer.last.Senha)
	}
}

func TestTestarConexaoSemSenhaESemConfiguracao(t *testing.T) {
	svc, _, _ := testService(t)

	if _, err := svc.TestarConexao(context.Background(), uuid.New(), testInputPadrao()); err == nil {
		t.Error("teste sem senha e sem configuração salva deveria falhar")
	}
}

func TestTestarConexaoClassificaFalha(t *testing.T) {
	svc, _, mailer := testService(t)
	orgID := uuid.New()

	criarPadrao(t, svc, orgID)
	mailer.err = errors.New("535 5.7.8 authentication failed")

	res, err := svc.TestarConexao(context.Background(), orgID, testInputPadrao())
	if err != nil {
		t.Fatalf("falha de envio não deveria virar erro de transporte: %v", err)
	}
	if res.Success {
		t.Error("teste deveria falhar")
	}
	if !strings.Contains(res.Message, "autenticação") {
		t.Errorf("mensagem deveria citar autenticação: %s", res.Message)
	}
}

func TestTestarConexaoDestinatarioInvalido(t *testing.T) {
	svc, _, _ := testService(t)

	input := testInputPadrao()
	input.Para = "nao-e-email"
	input.Senha = "qualquer"
	if _, err := svc.TestarConexao(context.Background(), uuid.New(), input); err == nil {
		t.Error("destinatário inválido aceito")
	}
}
