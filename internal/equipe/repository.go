package equipe

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medsyncsaude/api/internal/db"
)

// Repository provê acesso ao armazenamento da equipe médica.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria um novo repositório da equipe.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID busca profissional pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Profissional, error) {
	const query = `
        SELECT id, nome, email, telefone, profissao, especialidade_id, cor, ativo, criado_em
        FROM profissionais
        WHERE id = $1
    `

	row := r.pool.QueryRow(ctx, query, id)
	return scanProfissional(row)
}

// ListByOrganizacao devolve profissionais vinculados à organização, com a
// contagem de organizações em que cada um atua.
func (r *Repository) ListByOrganizacao(ctx context.Context, organizacaoID uuid.UUID, somenteAtivos bool) ([]ProfissionalComVinculo, error) {
	const query = `
        SELECT p.id, p.nome, p.email, p.telefone, p.profissao, p.especialidade_id, p.cor, p.ativo, p.criado_em,
               v.ativo,
               (SELECT count(*) FROM profissional_organizacoes po WHERE po.profissional_id = p.id AND po.ativo = TRUE)
        FROM profissionais p
        JOIN profissional_organizacoes v ON v.profissional_id = p.id
        WHERE v.organizacao_id = $1 AND ($2 = FALSE OR v.ativo = TRUE)
        ORDER BY p.nome
    `

	rows, err := r.pool.Query(ctx, query, organizacaoID, somenteAtivos)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lista []ProfissionalComVinculo
	for rows.Next() {
		var pv ProfissionalComVinculo
		if err := rows.Scan(&pv.ID, &pv.Nome, &pv.Email, &pv.Telefone, &pv.Profissao,
			&pv.EspecialidadeID, &pv.Cor, &pv.Ativo, &pv.CriadoEm,
			&pv.VinculoAtivo, &pv.OrganizationCount); err != nil {
			return nil, err
		}
		lista = append(lista, pv)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return lista, nil
}

// HasVinculo informa se o profissional possui vínculo ativo com a organização.
func (r *Repository) HasVinculo(ctx context.Context, profissionalID, organizacaoID uuid.UUID) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM profissional_organizacoes
            WHERE profissional_id = $1 AND organizacao_id = $2 AND ativo = TRUE
        )
    `

	var ok bool
	if err := r.pool.QueryRow(ctx, query, profissionalID, organizacaoID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Create insere profissional e vínculo com a organização na mesma transação.
func (r *Repository) Create(ctx context.Context, organizacaoID uuid.UUID, input CreateInput) (*Profissional, error) {
	var created *Profissional

	err := db.WithTx(ctx, r.pool, func(tctx context.Context, tx pgx.Tx) error {
		const insertProf = `
            INSERT INTO profissionais (nome, email, telefone, profissao, especialidade_id, cor, ativo)
            VALUES ($1, $2, $3, $4, $5, $6, TRUE)
            RETURNING id, nome, email, telefone, profissao, especialidade_id, cor, ativo, criado_em
        `

		row := tx.QueryRow(tctx, insertProf,
			strings.TrimSpace(input.Nome),
			input.Email,
			input.Telefone,
			strings.TrimSpace(input.Profissao),
			input.EspecialidadeID,
			input.Cor,
		)
		p, err := scanProfissional(row)
		if err != nil {
			return err
		}

		const insertVinculo = `
            INSERT INTO profissional_organizacoes (profissional_id, organizacao_id, ativo)
            VALUES ($1, $2, TRUE)
        `

		if _, err := tx.Exec(tctx, insertVinculo, p.ID, organizacaoID); err != nil {
			return err
		}

		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update aplica alterações parciais no cadastro.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Profissional, error) {
	const query = `
        UPDATE profissionais
        SET nome = COALESCE($2, nome),
            email = COALESCE($3, email),
            telefone = COALESCE($4, telefone),
            profissao = COALESCE($5, profissao),
            especialidade_id = COALESCE($6, especialidade_id),
            cor = COALESCE($7, cor),
            ativo = COALESCE($8, ativo)
        WHERE id = $1
        RETURNING id, nome, email, telefone, profissao, especialidade_id, cor, ativo, criado_em
    `

	row := r.pool.QueryRow(ctx, query, id, input.Nome, input.Email, input.Telefone,
		input.Profissao, input.EspecialidadeID, input.Cor, input.Ativo)
	return scanProfissional(row)
}

// Vincular cria ou reativa o vínculo do profissional com a organização.
func (r *Repository) Vincular(ctx context.Context, profissionalID, organizacaoID uuid.UUID) error {
	const query = `
        INSERT INTO profissional_organizacoes (profissional_id, organizacao_id, ativo)
        VALUES ($1, $2, TRUE)
        ON CONFLICT (profissional_id, organizacao_id)
        DO UPDATE SET ativo = TRUE
    `

	_, err := r.pool.Exec(ctx, query, profissionalID, organizacaoID)
	return err
}

// Desvincular desativa o vínculo; o cadastro segue válido nas demais organizações.
func (r *Repository) Desvincular(ctx context.Context, profissionalID, organizacaoID uuid.UUID) error {
	const query = `
        UPDATE profissional_organizacoes
        SET ativo = FALSE
        WHERE profissional_id = $1 AND organizacao_id = $2
    `

	tag, err := r.pool.Exec(ctx, query, profissionalID, organizacaoID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVinculoNotFound
	}
	return nil
}

// ListEspecialidades devolve a tabela de consulta global.
func (r *Repository) ListEspecialidades(ctx context.Context) ([]Especialidade, error) {
	const query = `
        SELECT id, nome
        FROM especialidades
        ORDER BY nome
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var especialidades []Especialidade
	for rows.Next() {
		var e Especialidade
		if err := rows.Scan(&e.ID, &e.Nome); err != nil {
			return nil, err
		}
		especialidades = append(especialidades, e)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return especialidades, nil
}

func scanProfissional(row pgx.Row) (*Profissional, error) {
	var p Profissional
	if err := row.Scan(&p.ID, &p.Nome, &p.Email, &p.Telefone, &p.Profissao,
		&p.EspecialidadeID, &p.Cor, &p.Ativo, &p.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
