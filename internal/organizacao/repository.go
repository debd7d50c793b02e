package organizacao

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medsyncsaude/api/internal/db"
)

// Repository provê acesso ao armazenamento de organizações e vínculos.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria um novo repositório de organizações.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID busca organização pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Organizacao, error) {
	const query = `
        SELECT id, nome, cnpj, criado_em, atualizado_em
        FROM organizacoes
        WHERE id = $1
    `

	row := r.pool.QueryRow(ctx, query, id)
	return scanOrganizacao(row)
}

// ListByUsuario devolve organizações em que o usuário possui vínculo ativo.
func (r *Repository) ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]MembroComOrganizacao, error) {
	const query = `
        SELECT o.id, o.nome, o.cnpj, o.criado_em, o.atualizado_em, m.papel, m.ativo
        FROM organizacoes o
        JOIN organizacao_membros m ON m.organizacao_id = o.id
        WHERE m.usuario_id = $1 AND m.ativo = TRUE
        ORDER BY o.nome
    `

	rows, err := r.pool.Query(ctx, query, usuarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vinculos []MembroComOrganizacao
	for rows.Next() {
		var v MembroComOrganizacao
		if err := rows.Scan(&v.Organizacao.ID, &v.Organizacao.Nome, &v.Organizacao.CNPJ,
			&v.Organizacao.CriadoEm, &v.Organizacao.AtualizadoEm, &v.Papel, &v.Ativo); err != nil {
			return nil, err
		}
		vinculos = append(vinculos, v)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return vinculos, nil
}

// Create insere organização e vincula o criador como Dono na mesma transação.
func (r *Repository) Create(ctx context.Context, input CreateInput, criadorID uuid.UUID) (*Organizacao, error) {
	var created *Organizacao

	err := db.WithTx(ctx, r.pool, func(tctx context.Context, tx pgx.Tx) error {
		const insertOrg = `
            INSERT INTO organizacoes (nome, cnpj)
            VALUES ($1, $2)
            RETURNING id, nome, cnpj, criado_em, atualizado_em
        `

		row := tx.QueryRow(tctx, insertOrg, strings.TrimSpace(input.Nome), input.CNPJ)
		org, err := scanOrganizacao(row)
		if err != nil {
			return err
		}

		const insertMembro = `
            INSERT INTO organizacao_membros (usuario_id, organizacao_id, papel, ativo)
            VALUES ($1, $2, $3, TRUE)
        `

		if _, err := tx.Exec(tctx, insertMembro, criadorID, org.ID, PapelDono); err != nil {
			return err
		}

		created = org
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update aplica alterações parciais na organização.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Organizacao, error) {
	const query = `
        UPDATE organizacoes
        SET nome = COALESCE($2, nome),
            cnpj = COALESCE($3, cnpj),
            atualizado_em = now()
        WHERE id = $1
        RETURNING id, nome, cnpj, criado_em, atualizado_em
    `

	var nome *string
	if input.Nome != nil {
		trimmed := strings.TrimSpace(*input.Nome)
		nome = &trimmed
	}

	row := r.pool.QueryRow(ctx, query, id, nome, input.CNPJ)
	return scanOrganizacao(row)
}

// GetMembro busca vínculo ativo do usuário com a organização.
func (r *Repository) GetMembro(ctx context.Context, usuarioID, organizacaoID uuid.UUID) (*Membro, error) {
	const query = `
        SELECT usuario_id, organizacao_id, papel, ativo, criado_em
        FROM organizacao_membros
        WHERE usuario_id = $1 AND organizacao_id = $2
    `

	row := r.pool.QueryRow(ctx, query, usuarioID, organizacaoID)

	var m Membro
	if err := row.Scan(&m.UsuarioID, &m.OrganizacaoID, &m.Papel, &m.Ativo, &m.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// UpsertMembro cria ou reativa vínculo com papel informado.
func (r *Repository) UpsertMembro(ctx context.Context, usuarioID, organizacaoID uuid.UUID, papel string) error {
	const query = `
        INSERT INTO organizacao_membros (usuario_id, organizacao_id, papel, ativo)
        VALUES ($1, $2, $3, TRUE)
        ON CONFLICT (usuario_id, organizacao_id)
        DO UPDATE SET papel = EXCLUDED.papel, ativo = TRUE
    `

	_, err := r.pool.Exec(ctx, query, usuarioID, organizacaoID, papel)
	return err
}

// DesativarMembro desliga o vínculo sem apagar histórico.
func (r *Repository) DesativarMembro(ctx context.Context, usuarioID, organizacaoID uuid.UUID) error {
	const query = `
        UPDATE organizacao_membros
        SET ativo = FALSE
        WHERE usuario_id = $1 AND organizacao_id = $2
    `

	tag, err := r.pool.Exec(ctx, query, usuarioID, organizacaoID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOrganizacao(row pgx.Row) (*Organizacao, error) {
	var o Organizacao
	if err := row.Scan(&o.ID, &o.Nome, &o.CNPJ, &o.CriadoEm, &o.AtualizadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}
