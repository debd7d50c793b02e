package escala

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type stubRepo struct {
	plantoes map[uuid.UUID]*PlantaoDetalhado
	fixas    map[uuid.UUID]*EscalaFixa

	ultimoReset bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		plantoes: make(map[uuid.UUID]*PlantaoDetalhado),
		fixas:    make(map[uuid.UUID]*EscalaFixa),
	}
}

func (r *stubRepo) GetByID(_ context.Context, id uuid.UUID) (*PlantaoDetalhado, error) {
	p, ok := r.plantoes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (r *stubRepo) List(_ context.Context, filter ListFilter) ([]PlantaoDetalhado, error) {
	var out []PlantaoDetalhado
	for _, p := range r.plantoes {
		if p.OrganizacaoID == filter.OrganizacaoID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubRepo) Create(_ context.Context, organizacaoID uuid.UUID, input CreateInput, escalaFixaID *uuid.UUID) (*PlantaoDetalhado, error) {
	p := &PlantaoDetalhado{
		Plantao: Plantao{
			ID:             uuid.New(),
			OrganizacaoID:  organizacaoID,
			ClinicaID:      input.ClinicaID,
			SetorID:        input.SetorID,
			ProfissionalID: input.ProfissionalID,
			Inicio:         input.Inicio,
			Fim:            input.Fim,
			Status:         StatusPending,
			Observacoes:    input.Observacoes,
			EscalaFixaID:   escalaFixaID,
		},
	}
	r.plantoes[p.ID] = p
	return p, nil
}

func (r *stubRepo) Update(_ context.Context, id uuid.UUID, input UpdateInput, resetStatus bool) (*PlantaoDetalhado, error) {
	p, ok := r.plantoes[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.ultimoReset = resetStatus
	if input.LimparProfissional {
		p.ProfissionalID = nil
	} else if input.ProfissionalID != nil {
		p.ProfissionalID = input.ProfissionalID
	}
	if input.Inicio != nil {
		p.Inicio = *input.Inicio
	}
	if input.Fim != nil {
		p.Fim = *input.Fim
	}
	if resetStatus {
		p.Status = StatusPending
	}
	return p, nil
}

func (r *stubRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	p, ok := r.plantoes[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	return nil
}

func (r *stubRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.plantoes[id]; !ok {
		return ErrNotFound
	}
	delete(r.plantoes, id)
	return nil
}

func (r *stubRepo) GetFixaByID(_ context.Context, id uuid.UUID) (*EscalaFixa, error) {
	f, ok := r.fixas[id]
	if !ok {
		return nil, ErrFixaNotFound
	}
	return f, nil
}

func (r *stubRepo) ListFixas(_ context.Context, organizacaoID uuid.UUID) ([]EscalaFixa, error) {
	var out []EscalaFixa
	for _, f := range r.fixas {
		if f.OrganizacaoID == organizacaoID && f.Ativo {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *stubRepo) CreateFixa(_ context.Context, organizacaoID uuid.UUID, input CreateFixaInput) (*EscalaFixa, error) {
	f := &EscalaFixa{
		ID:             uuid.New(),
		OrganizacaoID:  organizacaoID,
		ClinicaID:      input.ClinicaID,
		SetorID:        input.SetorID,
		ProfissionalID: input.ProfissionalID,
		DiaSemana:      input.DiaSemana,
		HoraInicio:     input.HoraInicio,
		HoraFim:        input.HoraFim,
		Ativo:          true,
	}
	r.fixas[f.ID] = f
	return f, nil
}

func (r *stubRepo) DesativarFixa(_ context.Context, id uuid.UUID) error {
	f, ok := r.fixas[id]
	if !ok {
		return ErrFixaNotFound
	}
	f.Ativo = false
	return nil
}

func (r *stubRepo) DatasGeradas(_ context.Context, fixaID uuid.UUID, de, ate time.Time) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, p := range r.plantoes {
		if p.EscalaFixaID != nil && *p.EscalaFixaID == fixaID &&
			!p.Inicio.Before(de) && p.Inicio.Before(ate) {
			out[p.Inicio.Format("2006-01-02")] = struct{}{}
		}
	}
	return out, nil
}

func seedPlantao(t *testing.T, svc *Service, orgID uuid.UUID) *PlantaoDetalhado {
	t.Helper()
	inicio := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
	p, err := svc.Create(context.Background(), orgID, CreateInput{
		ClinicaID: uuid.New(),
		Inicio:    inicio,
		Fim:       inicio.Add(12 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return p
}

func TestCreatePeriodoInvalido(t *testing.T) {
	svc := NewService(newStubRepo())
	inicio := time.Now()

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		ClinicaID: uuid.New(),
		Inicio:    inicio,
		Fim:       inicio,
	})
	if !errors.Is(err, ErrPeriodoInvalido) {
		t.Fatalf("fim igual ao início deveria falhar, veio %v", err)
	}
}

func TestUpdateStatusValidaTransicao(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	orgID := uuid.New()
	p := seedPlantao(t, svc, orgID)

	if _, err := svc.UpdateStatus(context.Background(), orgID, p.ID, "feito"); !errors.Is(err, ErrStatusInvalido) {
		t.Fatalf("status desconhecido deveria falhar, veio %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), orgID, p.ID, StatusSwapRequested); !errors.Is(err, ErrTransicaoInvalida) {
		t.Fatalf("pending → swap_requested é transição inválida, veio %v", err)
	}

	atualizado, err := svc.UpdateStatus(context.Background(), orgID, p.ID, StatusAccepted)
	if err != nil {
		t.Fatalf("pending → accepted deveria passar: %v", err)
	}
	if atualizado.Status != StatusAccepted {
		t.Fatalf("status: %s", atualizado.Status)
	}

	// plantão de outra organização não é alcançável
	if _, err := svc.UpdateStatus(context.Background(), uuid.New(), p.ID, StatusAccepted); !errors.Is(err, ErrNotFound) {
		t.Fatalf("outra organização deveria ver ErrNotFound, veio %v", err)
	}
}

func TestUpdateTrocaDeProfissionalReiniciaStatus(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	orgID := uuid.New()
	p := seedPlantao(t, svc, orgID)

	if _, err := svc.UpdateStatus(context.Background(), orgID, p.ID, StatusAccepted); err != nil {
		t.Fatalf("aceitar: %v", err)
	}

	novo := uuid.New()
	atualizado, err := svc.Update(context.Background(), orgID, p.ID, UpdateInput{ProfissionalID: &novo})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !repo.ultimoReset {
		t.Fatal("trocar o responsável deveria pedir reset de status")
	}
	if atualizado.Status != StatusPending {
		t.Fatalf("status deveria voltar a pending, veio %s", atualizado.Status)
	}

	// mesma pessoa de novo não reinicia
	if _, err := svc.Update(context.Background(), orgID, p.ID, UpdateInput{ProfissionalID: &novo}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if repo.ultimoReset {
		t.Fatal("manter o mesmo responsável não deveria reiniciar o status")
	}
}

func TestUpdateRemoverProfissionalReabrePlantao(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	orgID := uuid.New()
	p := seedPlantao(t, svc, orgID)

	medica := uuid.New()
	if _, err := svc.Update(context.Background(), orgID, p.ID, UpdateInput{ProfissionalID: &medica}); err != nil {
		t.Fatalf("atribuir: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), orgID, p.ID, StatusAccepted); err != nil {
		t.Fatalf("aceitar: %v", err)
	}

	aberto, err := svc.Update(context.Background(), orgID, p.ID, UpdateInput{LimparProfissional: true})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if aberto.ProfissionalID != nil {
		t.Fatalf("plantão deveria ficar sem responsável, veio %v", aberto.ProfissionalID)
	}
	if aberto.Status != StatusPending {
		t.Fatalf("plantão reaberto deveria voltar a pending, veio %s", aberto.Status)
	}
	if !repo.ultimoReset {
		t.Fatal("remover o responsável deveria pedir reset de status")
	}

	// remover de um plantão já em aberto não reinicia nada
	if _, err := svc.Update(context.Background(), orgID, p.ID, UpdateInput{LimparProfissional: true}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if repo.ultimoReset {
		t.Fatal("plantão já aberto não deveria sofrer reset")
	}
}

func TestGerarPlantoesSemanal(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	orgID := uuid.New()

	fixa, err := svc.CreateFixa(context.Background(), orgID, CreateFixaInput{
		ClinicaID:  uuid.New(),
		DiaSemana:  2, // terça
		HoraInicio: "19:00",
		HoraFim:    "07:00",
	})
	if err != nil {
		t.Fatalf("CreateFixa: %v", err)
	}

	// 1..30 de setembro de 2026 tem cinco terças (1, 8, 15, 22, 29)
	de := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	ate := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	gerados, err := svc.GerarPlantoes(context.Background(), orgID, fixa.ID, de, ate)
	if err != nil {
		t.Fatalf("GerarPlantoes: %v", err)
	}
	if len(gerados) != 5 {
		t.Fatalf("esperava 5 plantões, veio %d", len(gerados))
	}

	for _, p := range gerados {
		if p.Inicio.Weekday() != time.Tuesday {
			t.Errorf("plantão gerado fora da terça: %v", p.Inicio)
		}
		// turno noturno atravessa a meia-noite
		if !p.Fim.After(p.Inicio) {
			t.Errorf("fim deveria cair no dia seguinte: %v → %v", p.Inicio, p.Fim)
		}
		if p.Fim.Sub(p.Inicio) != 12*time.Hour {
			t.Errorf("duração do turno 19:00→07:00 deveria ser 12h, veio %v", p.Fim.Sub(p.Inicio))
		}
		if p.Status != StatusPending {
			t.Errorf("plantão gerado deveria nascer pendente, veio %s", p.Status)
		}
	}

	// gerar de novo no mesmo período não duplica
	denovo, err := svc.GerarPlantoes(context.Background(), orgID, fixa.ID, de, ate)
	if err != nil {
		t.Fatalf("GerarPlantoes segunda vez: %v", err)
	}
	if len(denovo) != 0 {
		t.Fatalf("dias já gerados deveriam ser pulados, veio %d", len(denovo))
	}
}

func TestGerarPlantoesValidacoes(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	orgID := uuid.New()

	fixa, _ := svc.CreateFixa(context.Background(), orgID, CreateFixaInput{
		ClinicaID:  uuid.New(),
		DiaSemana:  1,
		HoraInicio: "07:00",
		HoraFim:    "19:00",
	})

	dia := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	if _, err := svc.GerarPlantoes(context.Background(), orgID, fixa.ID, dia, dia); !errors.Is(err, ErrPeriodoInvalido) {
		t.Fatalf("período vazio deveria falhar, veio %v", err)
	}

	if _, err := svc.GerarPlantoes(context.Background(), uuid.New(), fixa.ID, dia, dia.AddDate(0, 0, 7)); !errors.Is(err, ErrFixaNotFound) {
		t.Fatalf("fixa de outra organização deveria sumir, veio %v", err)
	}
}

func TestCreateFixaValidaHorarios(t *testing.T) {
	svc := NewService(newStubRepo())
	orgID := uuid.New()

	if _, err := svc.CreateFixa(context.Background(), orgID, CreateFixaInput{
		ClinicaID:  uuid.New(),
		DiaSemana:  7,
		HoraInicio: "07:00",
		HoraFim:    "19:00",
	}); err == nil {
		t.Fatal("dia_semana 7 deveria falhar")
	}

	if _, err := svc.CreateFixa(context.Background(), orgID, CreateFixaInput{
		ClinicaID:  uuid.New(),
		DiaSemana:  1,
		HoraInicio: "7h",
		HoraFim:    "19:00",
	}); err == nil {
		t.Fatal("hora fora de HH:MM deveria falhar")
	}
}
