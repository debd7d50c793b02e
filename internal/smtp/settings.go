package smtp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("configuração SMTP não encontrada")
	ErrConflict = errors.New("organização já possui configuração SMTP")
)

// Settings é a configuração de envio de e-mail de uma organização.
// A senha é guardada criptografada (AES-256-GCM) e nunca sai em respostas.
type Settings struct {
	OrganizacaoID      uuid.UUID
	Host               string
	Porta              int
	Usuario            string
	SenhaCriptografada string
	FromEmail          string
	FromNome           *string
	UseTLS             bool
	IsEnabled          bool
	CriadoEm           time.Time
	AtualizadoEm       time.Time
}

// SettingsSanitized é a visão pública da configuração, sem a senha.
type SettingsSanitized struct {
	OrganizacaoID uuid.UUID `json:"organization_id"`
	Host          string    `json:"smtp_host"`
	Porta         int       `json:"smtp_port"`
	Usuario       string    `json:"smtp_user"`
	FromEmail     string    `json:"smtp_from_email"`
	FromNome      *string   `json:"smtp_from_name,omitempty"`
	UseTLS        bool      `json:"use_tls"`
	IsEnabled     bool      `json:"is_enabled"`
	HasPassword   bool      `json:"has_password"`
	AtualizadoEm  time.Time `json:"atualizado_em"`
}

// Sanitize projeta a visão sem segredo.
func (s *Settings) Sanitize() *SettingsSanitized {
	return &SettingsSanitized{
		OrganizacaoID: s.OrganizacaoID,
		Host:          s.Host,
		Porta:         s.Porta,
		Usuario:       s.Usuario,
		FromEmail:     s.FromEmail,
		FromNome:      s.FromNome,
		UseTLS:        s.UseTLS,
		IsEnabled:     s.IsEnabled,
		HasPassword:   strings.TrimSpace(s.SenhaCriptografada) != "",
		AtualizadoEm:  s.AtualizadoEm,
	}
}

// CreateSettingsInput contém o payload completo de criação.
type CreateSettingsInput struct {
	Host      string
	Porta     int
	Usuario   string
	Senha     string
	FromEmail string
	FromNome  *string
	UseTLS    bool
	IsEnabled bool
}

// UpdateSettingsInput aplica merge parcial; senha omitida preserva a atual.
type UpdateSettingsInput struct {
	Host      *string
	Porta     *int
	Usuario   *string
	Senha     *string
	FromEmail *string
	FromNome  *string
	UseTLS    *bool
	IsEnabled *bool
}

// Repository provê acesso à linha única de configuração por organização.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria um novo repositório de configurações SMTP.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const settingsColunas = `
    organizacao_id, smtp_host, smtp_port, smtp_user, senha_criptografada,
    smtp_from_email, smtp_from_name, use_tls, is_enabled, criado_em, atualizado_em
`

// GetByOrganizacao busca a configuração da organização.
func (r *Repository) GetByOrganizacao(ctx context.Context, organizacaoID uuid.UUID) (*Settings, error) {
	query := `SELECT ` + settingsColunas + ` FROM smtp_settings WHERE organizacao_id = $1`

	row := r.pool.QueryRow(ctx, query, organizacaoID)
	return scanSettings(row)
}

// Insert cria a linha única; segunda tentativa devolve ErrConflict.
func (r *Repository) Insert(ctx context.Context, s Settings) (*Settings, error) {
	query := `
        INSERT INTO smtp_settings (organizacao_id, smtp_host, smtp_port, smtp_user, senha_criptografada,
                                   smtp_from_email, smtp_from_name, use_tls, is_enabled)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING ` + settingsColunas

	row := r.pool.QueryRow(ctx, query, s.OrganizacaoID, s.Host, s.Porta, s.Usuario,
		s.SenhaCriptografada, s.FromEmail, s.FromNome, s.UseTLS, s.IsEnabled)

	saved, err := scanSettings(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrConflict
		}
		return nil, err
	}
	return saved, nil
}

// Save persiste a configuração inteira (usada após merge no serviço).
func (r *Repository) Save(ctx context.Context, s Settings) (*Settings, error) {
	query := `
        UPDATE smtp_settings
        SET smtp_host = $2,
            smtp_port = $3,
            smtp_user = $4,
            senha_criptografada = $5,
            smtp_from_email = $6,
            smtp_from_name = $7,
            use_tls = $8,
            is_enabled = $9,
            atualizado_em = now()
        WHERE organizacao_id = $1
        RETURNING ` + settingsColunas

	row := r.pool.QueryRow(ctx, query, s.OrganizacaoID, s.Host, s.Porta, s.Usuario,
		s.SenhaCriptografada, s.FromEmail, s.FromNome, s.UseTLS, s.IsEnabled)
	return scanSettings(row)
}

func scanSettings(row pgx.Row) (*Settings, error) {
	var s Settings
	if err := row.Scan(&s.OrganizacaoID, &s.Host, &s.Porta, &s.Usuario, &s.SenhaCriptografada,
		&s.FromEmail, &s.FromNome, &s.UseTLS, &s.IsEnabled, &s.CriadoEm, &s.AtualizadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
