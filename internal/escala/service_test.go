package escala

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func plantao(profID *uuid.UUID, nome *string, status string, inicio time.Time) PlantaoDetalhado {
	return PlantaoDetalhado{
		Plantao: Plantao{
			ID:             uuid.New(),
			OrganizacaoID:  uuid.New(),
			ClinicaID:      uuid.New(),
			ProfissionalID: profID,
			Inicio:         inicio,
			Fim:            inicio.Add(12 * time.Hour),
			Status:         status,
		},
		ProfissionalNome: nome,
		ClinicaNome:      "Hospital Central",
	}
}

func strPtr(s string) *string { return &s }

func TestAgruparPorProfissional(t *testing.T) {
	base := time.Date(2026, 8, 1, 7, 0, 0, 0, time.UTC)
	ana := uuid.New()
	bruno := uuid.New()

	plantoes := []PlantaoDetalhado{
		plantao(&bruno, strPtr("Bruno Lima"), StatusAccepted, base.AddDate(0, 0, 2)),
		plantao(nil, nil, StatusPending, base.AddDate(0, 0, 1)),
		plantao(&ana, strPtr("Ana Souza"), StatusPending, base),
		plantao(&ana, strPtr("Ana Souza"), StatusAccepted, base.AddDate(0, 0, 5)),
		plantao(&ana, strPtr("Ana Souza"), StatusDeclined, base.AddDate(0, 0, 3)),
		plantao(nil, nil, StatusSwapRequested, base.AddDate(0, 0, 4)),
	}

	grupos := AgruparPorProfissional(plantoes)

	if len(grupos) != 3 {
		t.Fatalf("esperado 3 grupos, obtido %d", len(grupos))
	}

	// ordenação: Ana, Bruno, sem profissional por último
	if grupos[0].ProfissionalNome != "Ana Souza" {
		t.Errorf("primeiro grupo deveria ser Ana Souza, obtido %q", grupos[0].ProfissionalNome)
	}
	if grupos[1].ProfissionalNome != "Bruno Lima" {
		t.Errorf("segundo grupo deveria ser Bruno Lima, obtido %q", grupos[1].ProfissionalNome)
	}
	if grupos[2].ProfissionalID != nil {
		t.Error("último grupo deveria ser o de plantões em aberto")
	}
	if grupos[2].ProfissionalNome != "Sem profissional" {
		t.Errorf("nome do grupo em aberto: %q", grupos[2].ProfissionalNome)
	}

	// total deve bater com a soma das contagens por status
	for _, g := range grupos {
		soma := g.Contagem.Pending + g.Contagem.Accepted + g.Contagem.Declined + g.Contagem.SwapRequested
		if g.TotalPlantoes != soma {
			t.Errorf("grupo %q: total %d difere da soma %d", g.ProfissionalNome, g.TotalPlantoes, soma)
		}
		if g.TotalPlantoes != len(g.Plantoes) {
			t.Errorf("grupo %q: total %d difere dos plantões %d", g.ProfissionalNome, g.TotalPlantoes, len(g.Plantoes))
		}
	}

	anaGrupo := grupos[0]
	if anaGrupo.Contagem.Pending != 1 || anaGrupo.Contagem.Accepted != 1 || anaGrupo.Contagem.Declined != 1 {
		t.Errorf("contagem da Ana incorreta: %+v", anaGrupo.Contagem)
	}
	if !anaGrupo.PeriodoInicio.Equal(base) {
		t.Errorf("período início da Ana: %v", anaGrupo.PeriodoInicio)
	}
	if !anaGrupo.PeriodoFim.Equal(base.AddDate(0, 0, 5)) {
		t.Errorf("período fim da Ana: %v", anaGrupo.PeriodoFim)
	}

	// plantões do mais recente para o mais antigo
	for i := 1; i < len(anaGrupo.Plantoes); i++ {
		if anaGrupo.Plantoes[i].Inicio.After(anaGrupo.Plantoes[i-1].Inicio) {
			t.Error("plantões do grupo não estão em ordem decrescente")
		}
	}
}

func TestAgruparPorProfissionalVazio(t *testing.T) {
	if grupos := AgruparPorProfissional(nil); len(grupos) != 0 {
		t.Errorf("lista vazia deveria produzir zero grupos, obtido %d", len(grupos))
	}
}

func TestAgruparUmGrupoPorProfissional(t *testing.T) {
	base := time.Now()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	var plantoes []PlantaoDetalhado
	for i, id := range ids {
		profID := id
		nome := strPtr("Profissional " + string(rune('A'+i)))
		plantoes = append(plantoes,
			plantao(&profID, nome, StatusPending, base),
			plantao(&profID, nome, StatusAccepted, base.Add(time.Hour)),
		)
	}

	grupos := AgruparPorProfissional(plantoes)
	if len(grupos) != len(ids) {
		t.Fatalf("esperado um grupo por profissional (%d), obtido %d", len(ids), len(grupos))
	}

	vistos := make(map[uuid.UUID]bool)
	for _, g := range grupos {
		if g.ProfissionalID == nil {
			t.Fatal("não deveria haver grupo em aberto")
		}
		if vistos[*g.ProfissionalID] {
			t.Errorf("profissional %s apareceu em mais de um grupo", g.ProfissionalID)
		}
		vistos[*g.ProfissionalID] = true
	}
}

func TestTransicaoPermitida(t *testing.T) {
	casos := []struct {
		de, para string
		ok       bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusDeclined, true},
		{StatusPending, StatusSwapRequested, false},
		{StatusAccepted, StatusSwapRequested, true},
		{StatusAccepted, StatusDeclined, false},
		{StatusSwapRequested, StatusAccepted, true},
		{StatusSwapRequested, StatusDeclined, true},
		{StatusDeclined, StatusAccepted, false},
		{StatusDeclined, StatusPending, false},
	}

	for _, c := range casos {
		if got := TransicaoPermitida(c.de, c.para); got != c.ok {
			t.Errorf("TransicaoPermitida(%s, %s) = %v, esperado %v", c.de, c.para, got, c.ok)
		}
	}
}
