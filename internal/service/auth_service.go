package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/medsyncsaude/api/internal/auth"
	"github.com/medsyncsaude/api/internal/organizacao"
	"github.com/medsyncsaude/api/internal/repo"
	"github.com/medsyncsaude/api/internal/util"
)

// AudienceDashboard é a única audience de acesso ao painel.
const AudienceDashboard = auth.AudienceDashboard

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrAccountDisabled indica conta desativada.
	ErrAccountDisabled = errors.New("conta desativada")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
	// ErrEmailTaken indica e-mail já cadastrado.
	ErrEmailTaken = errors.New("e-mail já cadastrado")
)

type authRepository interface {
	GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error)
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
	CreateUsuario(ctx context.Context, nome, email, senhaHash string) (repo.Usuario, error)
	UpdateUsuario(ctx context.Context, id uuid.UUID, nome, email string) error
	InsertRefreshToken(ctx context.Context, arg repo.InsertRefreshTokenParams) (repo.TokenRefresh, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.TokenRefresh, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, audience, keepHash string) error
}

type membroLister interface {
	ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]organizacao.MembroComOrganizacao, error)
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra regras de autenticação e sessões do painel.
type AuthService struct {
	repo       authRepository
	membros    membroLister
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
}

// NewAuthService cria novo serviço.
func NewAuthService(r authRepository, membros membroLister, redisClient redisCommander, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{repo: r, membros: membros, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	AccessToken   string
	RefreshToken  string
	Subject       uuid.UUID
	Roles         []string
	Profile       *Profile
	RefreshExpiry time.Time
}

// Profile descreve o usuário autenticado e suas organizações.
type Profile struct {
	ID           string               `json:"id"`
	Nome         string               `json:"nome"`
	Email        string               `json:"email"`
	Organizacoes []ProfileOrganizacao `json:"organizacoes"`
}

// ProfileOrganizacao apresenta vínculo e papel.
type ProfileOrganizacao struct {
	ID    string `json:"id"`
	Nome  string `json:"nome"`
	Papel string `json:"papel"`
}

// Login autentica por e-mail e senha.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetUsuarioByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(password, user.SenhaHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verificação de senha falhou")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Msg("login: senha inválida")
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// Registrar cria a conta com hash argon2id e já emite tokens.
func (s *AuthService) Registrar(ctx context.Context, nome, email, password string) (*LoginResult, error) {
	if err := util.RequireString(nome, "nome"); err != nil {
		return nil, err
	}
	if err := util.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := util.ValidatePassword(password); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetUsuarioByEmail(ctx, strings.ToLower(email)); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUsuario(ctx, nome, email, hash)
	if err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) issueTokens(ctx context.Context, user repo.Usuario) (*LoginResult, error) {
	if !user.Ativo {
		return nil, ErrAccountDisabled
	}

	profile, roles, err := s.buildProfileParts(ctx, user)
	if err != nil {
		return nil, err
	}

	token, _, err := s.jwt.GenerateAccessToken(user.ID.String(), roles)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expires := time.Now().UTC().Add(s.refreshTTL)
	if err := s.persistRefresh(ctx, user.ID, refreshHash, expires); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:   token,
		RefreshToken:  rawRefresh,
		Subject:       user.ID,
		Roles:         roles,
		Profile:       profile,
		RefreshExpiry: expires,
	}, nil
}

// Refresh troca refresh token por novos tokens, revogando o anterior.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	hash := auth.HashRefreshToken(rawToken)
	record, err := s.repo.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	if record.Revogado || time.Now().UTC().After(record.Expiracao) || record.Audience != AudienceDashboard {
		return nil, ErrRefreshInvalid
	}

	// Redis é a fonte rápida; ausência da chave invalida a sessão mesmo com
	// o registro ainda vivo no Postgres.
	redisKey := auth.RefreshRedisKey(AudienceDashboard, hash)
	status, err := s.redis.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}
	if status != "active" {
		return nil, ErrRefreshInvalid
	}

	user, err := s.repo.GetUsuarioByID(ctx, record.Subject)
	if err != nil {
		return nil, err
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return nil, err
	}

	return result, nil
}

// Logout revoga o refresh token atual.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	hash := auth.HashRefreshToken(rawToken)
	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	redisKey := auth.RefreshRedisKey(AudienceDashboard, hash)
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

// GetMe retorna perfil completo do sujeito autenticado.
func (s *AuthService) GetMe(ctx context.Context, subject uuid.UUID) (*Profile, []string, error) {
	user, err := s.repo.GetUsuarioByID(ctx, subject)
	if err != nil {
		return nil, nil, err
	}
	return s.buildProfileParts(ctx, user)
}

// AtualizarPerfil altera nome e e-mail do próprio usuário.
func (s *AuthService) AtualizarPerfil(ctx context.Context, subject uuid.UUID, nome, email string) error {
	if err := util.RequireString(nome, "nome"); err != nil {
		return err
	}
	if err := util.ValidateEmail(email); err != nil {
		return err
	}
	return s.repo.UpdateUsuario(ctx, subject, nome, email)
}

func (s *AuthService) buildProfileParts(ctx context.Context, user repo.Usuario) (*Profile, []string, error) {
	membros, err := s.membros.ListByUsuario(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	profile := &Profile{
		ID:    user.ID.String(),
		Nome:  user.Nome,
		Email: user.Email,
	}

	var roles []string
	for _, m := range membros {
		if !m.Ativo {
			continue
		}
		profile.Organizacoes = append(profile.Organizacoes, ProfileOrganizacao{
			ID:    m.Organizacao.ID.String(),
			Nome:  m.Organizacao.Nome,
			Papel: m.Papel,
		})
		roles = appendIfMissing(roles, m.Papel)
	}

	return profile, roles, nil
}

func (s *AuthService) persistRefresh(ctx context.Context, subject uuid.UUID, hash string, expires time.Time) error {
	_, err := s.repo.InsertRefreshToken(ctx, repo.InsertRefreshTokenParams{
		Subject:   subject,
		Audience:  AudienceDashboard,
		TokenHash: hash,
		Expiracao: expires,
	})
	if err != nil {
		return err
	}

	if err := s.repo.InvalidateOtherRefreshTokens(ctx, subject, AudienceDashboard, hash); err != nil {
		return err
	}

	return s.redis.Set(ctx, auth.RefreshRedisKey(AudienceDashboard, hash), "active", time.Until(expires)).Err()
}

func appendIfMissing(values []string, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return values
	}
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}
