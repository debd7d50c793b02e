package alerta

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medsyncsaude/api/internal/config"
	"github.com/medsyncsaude/api/internal/escala"
)

type stubLister struct {
	abertos []escala.PlantaoDetalhado
	err     error
	ate     time.Time
}

func (l *stubLister) ListAbertos(_ context.Context, ate time.Time) ([]escala.PlantaoDetalhado, error) {
	l.ate = ate
	return l.abertos, l.err
}

type stubNotifier struct {
	mensagens []Mensagem
	err       error
}

func (n *stubNotifier) Notify(_ context.Context, msg Mensagem) error {
	n.mensagens = append(n.mensagens, msg)
	return n.err
}

func plantaoAberto(organizacaoID uuid.UUID, clinica string, inicio time.Time) escala.PlantaoDetalhado {
	return escala.PlantaoDetalhado{
		Plantao: escala.Plantao{
			ID:            uuid.New(),
			OrganizacaoID: organizacaoID,
			ClinicaID:     uuid.New(),
			Inicio:        inicio,
			Fim:           inicio.Add(12 * time.Hour),
			Status:        escala.StatusPending,
		},
		ClinicaNome: clinica,
	}
}

func TestRunOnceAgrupaPorOrganizacao(t *testing.T) {
	orgA := uuid.New()
	orgB := uuid.New()
	inicio := time.Now().Add(6 * time.Hour)

	lister := &stubLister{abertos: []escala.PlantaoDetalhado{
		plantaoAberto(orgA, "UPA Centro", inicio),
		plantaoAberto(orgA, "Hospital Municipal", inicio.Add(time.Hour)),
		plantaoAberto(orgB, "Clínica Norte", inicio),
	}}
	notifier := &stubNotifier{}

	svc := NewService(lister, config.AlertaConfig{Enabled: true, Horizon: 48 * time.Hour}, zerolog.Nop(), notifier)

	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if len(notifier.mensagens) != 2 {
		t.Fatalf("esperava 1 aviso por organização, veio %d", len(notifier.mensagens))
	}

	porOrg := make(map[uuid.UUID]Mensagem)
	for _, m := range notifier.mensagens {
		porOrg[m.OrganizacaoID] = m
	}
	if !strings.Contains(porOrg[orgA].Titulo, "2 plantão(ões)") {
		t.Errorf("título da orgA: %s", porOrg[orgA].Titulo)
	}
	if !strings.Contains(porOrg[orgA].Texto, "UPA Centro") {
		t.Errorf("texto deveria listar a clínica: %s", porOrg[orgA].Texto)
	}
	if !strings.Contains(porOrg[orgB].Titulo, "1 plantão(ões)") {
		t.Errorf("título da orgB: %s", porOrg[orgB].Titulo)
	}
}

func TestRunOnceSemAbertosNaoNotifica(t *testing.T) {
	notifier := &stubNotifier{}
	svc := NewService(&stubLister{}, config.AlertaConfig{Enabled: true}, zerolog.Nop(), notifier)

	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(notifier.mensagens) != 0 {
		t.Errorf("não deveria notificar sem plantões abertos, veio %d", len(notifier.mensagens))
	}
}

func TestRunOnceUsaHorizonteConfigurado(t *testing.T) {
	lister := &stubLister{}
	svc := NewService(lister, config.AlertaConfig{Enabled: true, Horizon: 24 * time.Hour}, zerolog.Nop(), &stubNotifier{})

	antes := time.Now()
	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	esperado := antes.Add(24 * time.Hour)
	if lister.ate.Before(esperado.Add(-time.Minute)) || lister.ate.After(esperado.Add(time.Minute)) {
		t.Errorf("horizonte fora do esperado: %s", lister.ate)
	}
}

func TestRunOncePropagaErroDeListagem(t *testing.T) {
	lister := &stubLister{err: errors.New("banco indisponível")}
	svc := NewService(lister, config.AlertaConfig{Enabled: true}, zerolog.Nop(), &stubNotifier{})

	if err := svc.RunOnce(context.Background()); err == nil {
		t.Error("erro de listagem deveria propagar")
	}
}

func TestStartDesabilitadoNaoInicia(t *testing.T) {
	svc := NewService(&stubLister{}, config.AlertaConfig{Enabled: false}, zerolog.Nop(), &stubNotifier{})

	svc.Start(context.Background())
	if svc.cancel != nil {
		t.Error("monitor desabilitado não deveria iniciar o loop")
	}
	svc.Stop()
}

func TestMultiNotifierEntregaATodos(t *testing.T) {
	a := &stubNotifier{}
	b := &stubNotifier{err: errors.New("falhou")}
	c := &stubNotifier{}

	multi := MultiNotifier{a, b, c}
	err := multi.Notify(context.Background(), Mensagem{Titulo: "x"})

	if err == nil {
		t.Error("primeira falha deveria ser devolvida")
	}
	for i, n := range []*stubNotifier{a, b, c} {
		if len(n.mensagens) != 1 {
			t.Errorf("notificador %d não recebeu a mensagem", i)
		}
	}
}
