package chat

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persiste anexos de chat no Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria o repositório de anexos.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const anexoColunas = `
    id, conversa_id, organizacao_id, uploader_id, nome_arquivo, content_type,
    tamanho, chave, status, motivo_rejeicao, criado_em, atualizado_em
`

// Create grava o anexo com status pendente.
func (r *Repository) Create(ctx context.Context, a Anexo) (*Anexo, error) {
	query := `
        INSERT INTO chat_anexos (id, conversa_id, organizacao_id, uploader_id,
                                 nome_arquivo, content_type, tamanho, chave, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING ` + anexoColunas

	row := r.pool.QueryRow(ctx, query, a.ID, a.ConversaID, a.OrganizacaoID, a.UploaderID,
		a.NomeArquivo, a.ContentType, a.Tamanho, a.Chave, a.Status)
	return scanAnexo(row)
}

// GetByID busca o anexo pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Anexo, error) {
	query := `SELECT ` + anexoColunas + ` FROM chat_anexos WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	return scanAnexo(row)
}

// ListByConversa lista os anexos da conversa, mais recentes primeiro.
func (r *Repository) ListByConversa(ctx context.Context, conversaID uuid.UUID) ([]Anexo, error) {
	query := `SELECT ` + anexoColunas + ` FROM chat_anexos WHERE conversa_id = $1 ORDER BY criado_em DESC`

	rows, err := r.pool.Query(ctx, query, conversaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var anexos []Anexo
	for rows.Next() {
		a, err := scanAnexo(rows)
		if err != nil {
			return nil, err
		}
		anexos = append(anexos, *a)
	}
	return anexos, rows.Err()
}

// ListPendentes lista anexos aguardando revisão na organização.
func (r *Repository) ListPendentes(ctx context.Context, organizacaoID uuid.UUID) ([]Anexo, error) {
	query := `SELECT ` + anexoColunas + ` FROM chat_anexos WHERE organizacao_id = $1 AND status = 'pending' ORDER BY criado_em ASC`

	rows, err := r.pool.Query(ctx, query, organizacaoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var anexos []Anexo
	for rows.Next() {
		a, err := scanAnexo(rows)
		if err != nil {
			return nil, err
		}
		anexos = append(anexos, *a)
	}
	return anexos, rows.Err()
}

// UpdateStatus aplica o resultado da revisão.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, motivo *string) (*Anexo, error) {
	query := `
        UPDATE chat_anexos
        SET status = $2,
            motivo_rejeicao = $3,
            atualizado_em = now()
        WHERE id = $1
        RETURNING ` + anexoColunas

	row := r.pool.QueryRow(ctx, query, id, status, motivo)
	return scanAnexo(row)
}

func scanAnexo(row pgx.Row) (*Anexo, error) {
	var a Anexo
	if err := row.Scan(&a.ID, &a.ConversaID, &a.OrganizacaoID, &a.UploaderID, &a.NomeArquivo,
		&a.ContentType, &a.Tamanho, &a.Chave, &a.Status, &a.MotivoRejeicao,
		&a.CriadoEm, &a.AtualizadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
