package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// refreshTokenBytes dimensiona a entropia do token opaco de sessão.
const refreshTokenBytes = 32

// GenerateRefreshToken devolve o token opaco entregue ao cliente e o hash
// que vai para o banco; o valor em claro nunca é persistido.
func GenerateRefreshToken() (raw string, hashed string, err error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}

	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, HashRefreshToken(raw), nil
}

// HashRefreshToken reduz o token a SHA-256 em base64 URL-safe.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// RefreshRedisKey nomeia a sessão ativa no Redis.
func RefreshRedisKey(audience, hash string) string {
	return fmt.Sprintf("sessao:%s:%s", audience, hash)
}
