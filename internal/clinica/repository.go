package clinica

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provê acesso ao armazenamento de clínicas e setores.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria um novo repositório de clínicas.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID busca clínica pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Clinica, error) {
	const query = `
        SELECT id, organizacao_id, nome, tipo, cnpj, telefone, ativo, criado_em, atualizado_em
        FROM clinicas
        WHERE id = $1
    `

	row := r.pool.QueryRow(ctx, query, id)
	return scanClinica(row)
}

// ListByOrganizacao devolve clínicas da organização, ativas primeiro.
func (r *Repository) ListByOrganizacao(ctx context.Context, organizacaoID uuid.UUID) ([]Clinica, error) {
	const query = `
        SELECT id, organizacao_id, nome, tipo, cnpj, telefone, ativo, criado_em, atualizado_em
        FROM clinicas
        WHERE organizacao_id = $1
        ORDER BY ativo DESC, nome
    `

	rows, err := r.pool.Query(ctx, query, organizacaoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clinicas []Clinica
	for rows.Next() {
		c, err := scanClinica(rows)
		if err != nil {
			return nil, err
		}
		clinicas = append(clinicas, *c)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return clinicas, nil
}

// Create insere uma nova clínica e devolve os dados persistidos.
func (r *Repository) Create(ctx context.Context, organizacaoID uuid.UUID, input CreateInput) (*Clinica, error) {
	const query = `
        INSERT INTO clinicas (organizacao_id, nome, tipo, cnpj, telefone, ativo)
        VALUES ($1, $2, $3, $4, $5, TRUE)
        RETURNING id, organizacao_id, nome, tipo, cnpj, telefone, ativo, criado_em, atualizado_em
    `

	row := r.pool.QueryRow(ctx, query,
		organizacaoID,
		strings.TrimSpace(input.Nome),
		input.Tipo,
		input.CNPJ,
		input.Telefone,
	)

	c, err := scanClinica(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCNPJDuplicado
		}
		return nil, err
	}
	return c, nil
}

// Update aplica alterações parciais na clínica.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Clinica, error) {
	const query = `
        UPDATE clinicas
        SET nome = COALESCE($2, nome),
            tipo = COALESCE($3, tipo),
            cnpj = COALESCE($4, cnpj),
            telefone = COALESCE($5, telefone),
            ativo = COALESCE($6, ativo),
            atualizado_em = now()
        WHERE id = $1
        RETURNING id, organizacao_id, nome, tipo, cnpj, telefone, ativo, criado_em, atualizado_em
    `

	row := r.pool.QueryRow(ctx, query, id, input.Nome, input.Tipo, input.CNPJ, input.Telefone, input.Ativo)

	c, err := scanClinica(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCNPJDuplicado
		}
		return nil, err
	}
	return c, nil
}

// Desativar faz soft delete da clínica.
func (r *Repository) Desativar(ctx context.Context, id uuid.UUID) error {
	const query = `
        UPDATE clinicas
        SET ativo = FALSE, atualizado_em = now()
        WHERE id = $1
    `

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSetores devolve setores da clínica.
func (r *Repository) ListSetores(ctx context.Context, clinicaID uuid.UUID) ([]Setor, error) {
	const query = `
        SELECT id, clinica_id, nome, ativo, criado_em
        FROM setores
        WHERE clinica_id = $1
        ORDER BY nome
    `

	rows, err := r.pool.Query(ctx, query, clinicaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var setores []Setor
	for rows.Next() {
		var s Setor
		if err := rows.Scan(&s.ID, &s.ClinicaID, &s.Nome, &s.Ativo, &s.CriadoEm); err != nil {
			return nil, err
		}
		setores = append(setores, s)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return setores, nil
}

// CreateSetor insere setor vinculado à clínica.
func (r *Repository) CreateSetor(ctx context.Context, clinicaID uuid.UUID, nome string) (*Setor, error) {
	const query = `
        INSERT INTO setores (clinica_id, nome, ativo)
        VALUES ($1, $2, TRUE)
        RETURNING id, clinica_id, nome, ativo, criado_em
    `

	row := r.pool.QueryRow(ctx, query, clinicaID, strings.TrimSpace(nome))

	var s Setor
	if err := row.Scan(&s.ID, &s.ClinicaID, &s.Nome, &s.Ativo, &s.CriadoEm); err != nil {
		return nil, err
	}
	return &s, nil
}

// DesativarSetor faz soft delete do setor.
func (r *Repository) DesativarSetor(ctx context.Context, setorID uuid.UUID) error {
	const query = `
        UPDATE setores
        SET ativo = FALSE
        WHERE id = $1
    `

	tag, err := r.pool.Exec(ctx, query, setorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSetorNotFound
	}
	return nil
}

func scanClinica(row pgx.Row) (*Clinica, error) {
	var c Clinica
	if err := row.Scan(&c.ID, &c.OrganizacaoID, &c.Nome, &c.Tipo, &c.CNPJ, &c.Telefone, &c.Ativo, &c.CriadoEm, &c.AtualizadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
