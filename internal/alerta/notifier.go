package alerta

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	gomail "gopkg.in/gomail.v2"

	"github.com/medsyncsaude/api/internal/secret"
	"github.com/medsyncsaude/api/internal/smtp"
)

// Mensagem descreve um aviso de cobertura para uma organização.
type Mensagem struct {
	OrganizacaoID uuid.UUID
	Titulo        string
	Texto         string
}

// Notifier envia avisos de cobertura para canais externos.
type Notifier interface {
	Notify(ctx context.Context, msg Mensagem) error
}

// WebhookNotifier posta o aviso num webhook genérico (Slack-compatível).
type WebhookNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookNotifier devolve nil quando não há URL configurada.
func NewWebhookNotifier(webhookURL string) *WebhookNotifier {
	if webhookURL == "" {
		return nil
	}
	return &WebhookNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// Notify envia o payload JSON ao webhook.
func (w *WebhookNotifier) Notify(ctx context.Context, msg Mensagem) error {
	if w == nil || w.webhookURL == "" {
		return errors.New("webhook de alerta não configurado")
	}

	payload := map[string]any{
		"text": ":warning: *" + msg.Titulo + "*\n" + msg.Texto,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook de alerta respondeu %d", resp.StatusCode)
	}
	return nil
}

// settingsReader lê a configuração SMTP da organização alvo.
type settingsReader interface {
	GetByOrganizacao(ctx context.Context, organizacaoID uuid.UUID) (*smtp.Settings, error)
}

// EmailNotifier envia o aviso via SMTP da própria organização, quando
// habilitado. Organização sem SMTP configurado é silenciosamente pulada.
type EmailNotifier struct {
	settings settingsReader
	cipher   *secret.Cipher
}

// NewEmailNotifier cria o notificador por e-mail.
func NewEmailNotifier(settings settingsReader, cipher *secret.Cipher) *EmailNotifier {
	return &EmailNotifier{settings: settings, cipher: cipher}
}

// Notify envia o aviso para o próprio remetente configurado da organização.
func (e *EmailNotifier) Notify(ctx context.Context, msg Mensagem) error {
	cfg, err := e.settings.GetByOrganizacao(ctx, msg.OrganizacaoID)
	if err != nil {
		if errors.Is(err, smtp.ErrNotFound) {
			return nil
		}
		return err
	}
	if !cfg.IsEnabled {
		return nil
	}

	senha, err := e.cipher.Decrypt(cfg.SenhaCriptografada)
	if err != nil {
		return fmt.Errorf("descriptografar senha SMTP: %w", err)
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Porta, cfg.Usuario, senha)
	dialer.SSL = cfg.UseTLS && cfg.Porta == 465
	dialer.TLSConfig = &tls.Config{ServerName: cfg.Host}

	m := gomail.NewMessage()
	from := cfg.FromEmail
	if cfg.FromNome != nil && strings.TrimSpace(*cfg.FromNome) != "" {
		from = m.FormatAddress(cfg.FromEmail, *cfg.FromNome)
	}
	m.SetHeader("From", from)
	m.SetHeader("To", cfg.FromEmail)
	m.SetHeader("Subject", msg.Titulo)
	m.SetBody("text/plain", msg.Texto)

	done := make(chan error, 1)
	go func() {
		done <- dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MultiNotifier encadeia notificadores; a primeira falha é devolvida ao final,
// sem impedir os demais envios.
type MultiNotifier []Notifier

// Notify entrega a mensagem a todos os notificadores.
func (m MultiNotifier) Notify(ctx context.Context, msg Mensagem) error {
	var first error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, msg); err != nil && first == nil {
			first = err
		}
	}
	return first
}
