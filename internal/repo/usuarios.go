package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indica que a consulta não encontrou o registro pedido.
var ErrNotFound = errors.New("registro não encontrado")

// Queries concentra acesso às tabelas compartilhadas (usuários e sessões).
type Queries struct {
	pool *pgxpool.Pool
}

// New cria o agregado de queries sobre o pool.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// GetUsuarioByEmail busca usuário pelo e-mail normalizado.
func (q *Queries) GetUsuarioByEmail(ctx context.Context, email string) (Usuario, error) {
	const query = `
        SELECT id, nome, email, senha_hash, ativo, criado_em
        FROM usuarios
        WHERE lower(email) = $1
    `

	row := q.pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email)))
	return scanUsuario(row)
}

// GetUsuarioByID busca usuário pelo identificador.
func (q *Queries) GetUsuarioByID(ctx context.Context, id uuid.UUID) (Usuario, error) {
	const query = `
        SELECT id, nome, email, senha_hash, ativo, criado_em
        FROM usuarios
        WHERE id = $1
    `

	row := q.pool.QueryRow(ctx, query, id)
	return scanUsuario(row)
}

// CreateUsuario insere um novo usuário já com hash de senha.
func (q *Queries) CreateUsuario(ctx context.Context, nome, email, senhaHash string) (Usuario, error) {
	const query = `
        INSERT INTO usuarios (nome, email, senha_hash, ativo)
        VALUES ($1, $2, $3, TRUE)
        RETURNING id, nome, email, senha_hash, ativo, criado_em
    `

	row := q.pool.QueryRow(ctx, query, strings.TrimSpace(nome), strings.ToLower(strings.TrimSpace(email)), senhaHash)
	return scanUsuario(row)
}

// UpdateUsuario atualiza nome e e-mail.
func (q *Queries) UpdateUsuario(ctx context.Context, id uuid.UUID, nome, email string) error {
	const query = `
        UPDATE usuarios
        SET nome = $2, email = $3
        WHERE id = $1
    `

	tag, err := q.pool.Exec(ctx, query, id, strings.TrimSpace(nome), strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertRefreshToken persiste um refresh token com hash.
func (q *Queries) InsertRefreshToken(ctx context.Context, arg InsertRefreshTokenParams) (TokenRefresh, error) {
	const query = `
        INSERT INTO tokens_refresh (subject, audience, token_hash, expiracao)
        VALUES ($1, $2, $3, $4)
        RETURNING id, subject, audience, token_hash, expiracao, criado_em, revogado
    `

	row := q.pool.QueryRow(ctx, query, arg.Subject, arg.Audience, arg.TokenHash, arg.Expiracao)

	var t TokenRefresh
	if err := row.Scan(&t.ID, &t.Subject, &t.Audience, &t.TokenHash, &t.Expiracao, &t.CriadoEm, &t.Revogado); err != nil {
		return TokenRefresh{}, err
	}
	return t, nil
}

// GetRefreshTokenByHash localiza refresh token não revogado pelo hash.
func (q *Queries) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (TokenRefresh, error) {
	const query = `
        SELECT id, subject, audience, token_hash, expiracao, criado_em, revogado
        FROM tokens_refresh
        WHERE token_hash = $1 AND revogado = FALSE
    `

	row := q.pool.QueryRow(ctx, query, tokenHash)

	var t TokenRefresh
	if err := row.Scan(&t.ID, &t.Subject, &t.Audience, &t.TokenHash, &t.Expiracao, &t.CriadoEm, &t.Revogado); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TokenRefresh{}, ErrNotFound
		}
		return TokenRefresh{}, err
	}
	return t, nil
}

// RevokeRefreshToken marca o token como revogado.
func (q *Queries) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	const query = `
        UPDATE tokens_refresh
        SET revogado = TRUE
        WHERE token_hash = $1
    `

	_, err := q.pool.Exec(ctx, query, tokenHash)
	return err
}

// InvalidateOtherRefreshTokens revoga sessões antigas do mesmo sujeito, preservando a atual.
func (q *Queries) InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, audience, keepHash string) error {
	const query = `
        UPDATE tokens_refresh
        SET revogado = TRUE
        WHERE subject = $1 AND audience = $2 AND token_hash <> $3 AND revogado = FALSE
    `

	_, err := q.pool.Exec(ctx, query, subject, audience, keepHash)
	return err
}

func scanUsuario(row pgx.Row) (Usuario, error) {
	var u Usuario
	if err := row.Scan(&u.ID, &u.Nome, &u.Email, &u.SenhaHash, &u.Ativo, &u.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Usuario{}, ErrNotFound
		}
		return Usuario{}, err
	}
	return u, nil
}
