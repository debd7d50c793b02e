package smtp

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestClassificarErro(t *testing.T) {
	casos := []struct {
		nome   string
		err    error
		contem string
	}{
		{"autenticacao 535", errors.New("535 5.7.8 Username and Password not accepted"), "autenticação"},
		{"autenticacao generica", errors.New("smtp: authentication failed"), "autenticação"},
		{"host inexistente", errors.New("dial tcp: lookup smtp.naoexiste.com.br: no such host"), "não encontrado"},
		{"conexao recusada", errors.New("dial tcp 10.0.0.1:587: connect: connection refused"), "recusada"},
		{"tls", errors.New("tls: first record does not look like a TLS handshake"), "TLS/SSL"},
		{"certificado", errors.New("x509: certificate signed by unknown authority"), "TLS/SSL"},
		{"timeout io", errors.New("dial tcp 10.0.0.1:587: i/o timeout"), "Tempo esgotado"},
		{"timeout contexto", context.DeadlineExceeded, "Tempo esgotado"},
		{"timeout interno", errTesteTimeout, "Tempo esgotado"},
		{"generico", errors.New("short write"), "Não foi possível"},
	}

	for _, c := range casos {
		t.Run(c.nome, func(t *testing.T) {
			got := ClassificarErro(c.err)
			if !strings.Contains(got, c.contem) {
				t.Errorf("ClassificarErro(%v) = %q, esperava conter %q", c.err, got, c.contem)
			}
		})
	}
}

func TestClassificarErroNil(t *testing.T) {
	if got := ClassificarErro(nil); got != "" {
		t.Errorf("erro nil deveria classificar como vazio, veio %q", got)
	}
}
