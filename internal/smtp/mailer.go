package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	gomail "gopkg.in/gomail.v2"
)

// testTimeout limita o teste de conexão inteiro (DNS, handshake, AUTH, envio).
const testTimeout = 10 * time.Second

// TestMessage carrega as credenciais já descriptografadas para um envio de teste.
type TestMessage struct {
	Host      string
	Porta     int
	Usuario   string
	Senha     string
	FromEmail string
	FromNome  *string
	UseTLS    bool
	Para      string
}

// Mailer envia o e-mail de verificação de configuração.
type Mailer interface {
	SendTest(ctx context.Context, msg TestMessage) error
}

var errTesteTimeout = errors.New("smtp: tempo esgotado no teste de conexão")

// GomailSender envia via gomail com limite rígido de tempo. O DialAndSend não
// aceita context, então o envio roda em goroutine e o chamador desiste ao
// estourar o prazo.
type GomailSender struct{}

// NewGomailSender cria o sender padrão.
func NewGomailSender() *GomailSender {
	return &GomailSender{}
}

// SendTest conecta, autentica e envia um e-mail de teste real.
func (GomailSender) SendTest(ctx context.Context, msg TestMessage) error {
	dialer := gomail.NewDialer(msg.Host, msg.Porta, msg.Usuario, msg.Senha)
	dialer.SSL = msg.UseTLS && msg.Porta == 465
	dialer.TLSConfig = &tls.Config{ServerName: msg.Host}

	m := gomail.NewMessage()
	from := msg.FromEmail
	if msg.FromNome != nil && strings.TrimSpace(*msg.FromNome) != "" {
		from = m.FormatAddress(msg.FromEmail, *msg.FromNome)
	}
	m.SetHeader("From", from)
	m.SetHeader("To", msg.Para)
	m.SetHeader("Subject", "Teste de configuração SMTP — MedSync")
	m.SetBody("text/plain", fmt.Sprintf(
		"Este é um e-mail de teste enviado em %s para verificar a configuração SMTP da sua organização.",
		time.Now().Format("02/01/2006 15:04"),
	))

	ctx, cancel := context.WithTimeout(ctx, testTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errTesteTimeout
		}
		return ctx.Err()
	}
}

// ClassificarErro traduz falhas de SMTP em mensagens amigáveis em português.
// A inspeção é por substring porque as bibliotecas não expõem erros tipados
// para cada cenário.
func ClassificarErro(err error) string {
	if err == nil {
		return ""
	}

	msg := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, errTesteTimeout),
		errors.Is(err, context.DeadlineExceeded),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "i/o timeout"),
		strings.Contains(msg, "deadline exceeded"):
		return "Tempo esgotado ao conectar ao servidor SMTP. Verifique host, porta e firewall."

	case strings.Contains(msg, "535"),
		strings.Contains(msg, "authentication failed"),
		strings.Contains(msg, "username and password not accepted"),
		strings.Contains(msg, "invalid credentials"),
		strings.Contains(msg, "auth"):
		return "Falha de autenticação. Verifique o usuário e a senha do SMTP."

	case strings.Contains(msg, "no such host"):
		return "Servidor SMTP não encontrado. Verifique o host informado."

	case strings.Contains(msg, "connection refused"):
		return "Conexão recusada pelo servidor. Verifique o host e a porta."

	case strings.Contains(msg, "tls"),
		strings.Contains(msg, "certificate"),
		strings.Contains(msg, "x509"),
		strings.Contains(msg, "ssl"):
		return "Erro de TLS/SSL. Verifique a porta e a opção de conexão segura."

	default:
		return "Não foi possível enviar o e-mail de teste. Revise a configuração e tente novamente."
	}
}
