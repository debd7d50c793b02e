package escala

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provê acesso ao armazenamento de plantões e escalas fixas.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria um novo repositório de escalas.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const plantaoColunas = `
    p.id, p.organizacao_id, p.clinica_id, p.setor_id, p.profissional_id,
    p.inicio, p.fim, p.status, p.observacoes, p.escala_fixa_id,
    p.criado_em, p.atualizado_em,
    pr.nome, c.nome, s.nome
`

const plantaoJoins = `
    FROM plantoes p
    LEFT JOIN profissionais pr ON pr.id = p.profissional_id
    JOIN clinicas c ON c.id = p.clinica_id
    LEFT JOIN setores s ON s.id = p.setor_id
`

// GetByID busca plantão detalhado pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*PlantaoDetalhado, error) {
	query := `SELECT ` + plantaoColunas + plantaoJoins + ` WHERE p.id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	return scanPlantaoDetalhado(row)
}

// List devolve plantões da organização aplicando filtros opcionais,
// ordenados do mais recente para o mais antigo.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]PlantaoDetalhado, error) {
	query := `SELECT ` + plantaoColunas + plantaoJoins + `
        WHERE p.organizacao_id = $1
          AND ($2::uuid IS NULL OR p.clinica_id = $2)
          AND ($3::uuid IS NULL OR p.profissional_id = $3)
          AND ($4::timestamptz IS NULL OR p.inicio >= $4)
          AND ($5::timestamptz IS NULL OR p.inicio < $5)
        ORDER BY p.inicio DESC
    `

	rows, err := r.pool.Query(ctx, query, filter.OrganizacaoID, filter.ClinicaID,
		filter.ProfissionalID, filter.De, filter.Ate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plantoes []PlantaoDetalhado
	for rows.Next() {
		p, err := scanPlantaoDetalhado(rows)
		if err != nil {
			return nil, err
		}
		plantoes = append(plantoes, *p)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return plantoes, nil
}

// Create insere um novo plantão com status pending.
func (r *Repository) Create(ctx context.Context, organizacaoID uuid.UUID, input CreateInput, escalaFixaID *uuid.UUID) (*PlantaoDetalhado, error) {
	const query = `
        INSERT INTO plantoes (organizacao_id, clinica_id, setor_id, profissional_id, inicio, fim, status, observacoes, escala_fixa_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `

	var id uuid.UUID
	if err := r.pool.QueryRow(ctx, query, organizacaoID, input.ClinicaID, input.SetorID,
		input.ProfissionalID, input.Inicio, input.Fim, StatusPending, input.Observacoes, escalaFixaID).Scan(&id); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// Update aplica alterações parciais no plantão. Quando resetStatus é
// verdadeiro o plantão volta para pending (troca ou remoção de responsável).
// LimparProfissional anula profissional_id em vez de preservá-lo.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, input UpdateInput, resetStatus bool) (*PlantaoDetalhado, error) {
	const query = `
        UPDATE plantoes
        SET clinica_id = COALESCE($2, clinica_id),
            setor_id = COALESCE($3, setor_id),
            profissional_id = CASE WHEN $9 THEN NULL ELSE COALESCE($4, profissional_id) END,
            inicio = COALESCE($5, inicio),
            fim = COALESCE($6, fim),
            observacoes = COALESCE($7, observacoes),
            status = CASE WHEN $8 THEN 'pending' ELSE status END,
            atualizado_em = now()
        WHERE id = $1
    `

	tag, err := r.pool.Exec(ctx, query, id, input.ClinicaID, input.SetorID, input.ProfissionalID,
		input.Inicio, input.Fim, input.Observacoes, resetStatus, input.LimparProfissional)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// UpdateStatus grava o novo status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	const query = `
        UPDATE plantoes
        SET status = $2, atualizado_em = now()
        WHERE id = $1
    `

	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete remove o plantão definitivamente.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM plantoes WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetFixaByID busca escala fixa pelo identificador.
func (r *Repository) GetFixaByID(ctx context.Context, id uuid.UUID) (*EscalaFixa, error) {
	const query = `
        SELECT id, organizacao_id, clinica_id, setor_id, profissional_id, dia_semana, hora_inicio, hora_fim, ativo, criado_em
        FROM escalas_fixas
        WHERE id = $1
    `

	row := r.pool.QueryRow(ctx, query, id)
	return scanFixa(row)
}

// ListFixas devolve escalas fixas ativas da organização.
func (r *Repository) ListFixas(ctx context.Context, organizacaoID uuid.UUID) ([]EscalaFixa, error) {
	const query = `
        SELECT id, organizacao_id, clinica_id, setor_id, profissional_id, dia_semana, hora_inicio, hora_fim, ativo, criado_em
        FROM escalas_fixas
        WHERE organizacao_id = $1 AND ativo = TRUE
        ORDER BY dia_semana, hora_inicio
    `

	rows, err := r.pool.Query(ctx, query, organizacaoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fixas []EscalaFixa
	for rows.Next() {
		f, err := scanFixa(rows)
		if err != nil {
			return nil, err
		}
		fixas = append(fixas, *f)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return fixas, nil
}

// CreateFixa insere uma escala fixa.
func (r *Repository) CreateFixa(ctx context.Context, organizacaoID uuid.UUID, input CreateFixaInput) (*EscalaFixa, error) {
	const query = `
        INSERT INTO escalas_fixas (organizacao_id, clinica_id, setor_id, profissional_id, dia_semana, hora_inicio, hora_fim, ativo)
        VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
        RETURNING id, organizacao_id, clinica_id, setor_id, profissional_id, dia_semana, hora_inicio, hora_fim, ativo, criado_em
    `

	row := r.pool.QueryRow(ctx, query, organizacaoID, input.ClinicaID, input.SetorID,
		input.ProfissionalID, input.DiaSemana, input.HoraInicio, input.HoraFim)
	return scanFixa(row)
}

// DesativarFixa interrompe a geração de novos plantões do modelo.
func (r *Repository) DesativarFixa(ctx context.Context, id uuid.UUID) error {
	const query = `
        UPDATE escalas_fixas
        SET ativo = FALSE
        WHERE id = $1
    `

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFixaNotFound
	}
	return nil
}

// DatasGeradas devolve as datas (dia truncado) que já possuem plantão
// originado da escala fixa dentro do período.
func (r *Repository) DatasGeradas(ctx context.Context, fixaID uuid.UUID, de, ate time.Time) (map[string]struct{}, error) {
	const query = `
        SELECT date_trunc('day', inicio)
        FROM plantoes
        WHERE escala_fixa_id = $1 AND inicio >= $2 AND inicio < $3
    `

	rows, err := r.pool.Query(ctx, query, fixaID, de, ate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	datas := make(map[string]struct{})
	for rows.Next() {
		var dia time.Time
		if err := rows.Scan(&dia); err != nil {
			return nil, err
		}
		datas[dia.Format("2006-01-02")] = struct{}{}
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return datas, nil
}

// ListAbertos devolve plantões sem responsável iniciando dentro do horizonte.
// Usado pelo monitor de cobertura.
func (r *Repository) ListAbertos(ctx context.Context, ate time.Time) ([]PlantaoDetalhado, error) {
	query := `SELECT ` + plantaoColunas + plantaoJoins + `
        WHERE p.profissional_id IS NULL AND p.inicio >= now() AND p.inicio < $1
        ORDER BY p.inicio
    `

	rows, err := r.pool.Query(ctx, query, ate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plantoes []PlantaoDetalhado
	for rows.Next() {
		p, err := scanPlantaoDetalhado(rows)
		if err != nil {
			return nil, err
		}
		plantoes = append(plantoes, *p)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return plantoes, nil
}

func scanPlantaoDetalhado(row pgx.Row) (*PlantaoDetalhado, error) {
	var p PlantaoDetalhado
	if err := row.Scan(&p.ID, &p.OrganizacaoID, &p.ClinicaID, &p.SetorID, &p.ProfissionalID,
		&p.Inicio, &p.Fim, &p.Status, &p.Observacoes, &p.EscalaFixaID,
		&p.CriadoEm, &p.AtualizadoEm,
		&p.ProfissionalNome, &p.ClinicaNome, &p.SetorNome); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanFixa(row pgx.Row) (*EscalaFixa, error) {
	var f EscalaFixa
	if err := row.Scan(&f.ID, &f.OrganizacaoID, &f.ClinicaID, &f.SetorID, &f.ProfissionalID,
		&f.DiaSemana, &f.HoraInicio, &f.HoraFim, &f.Ativo, &f.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFixaNotFound
		}
		return nil, err
	}
	return &f, nil
}
