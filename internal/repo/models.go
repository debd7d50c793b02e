package repo

import (
	"time"

	"github.com/google/uuid"
)

// Usuario representa uma pessoa com acesso ao painel.
type Usuario struct {
	ID        uuid.UUID
	Nome      string
	Email     string
	SenhaHash string
	Ativo     bool
	CriadoEm  time.Time
}

// TokenRefresh modela tabela de refresh tokens.
type TokenRefresh struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	Audience  string
	TokenHash string
	Expiracao time.Time
	CriadoEm  time.Time
	Revogado  bool
}

// InsertRefreshTokenParams agrupa campos para persistir um refresh token.
type InsertRefreshTokenParams struct {
	Subject   uuid.UUID
	Audience  string
	TokenHash string
	Expiracao time.Time
}
