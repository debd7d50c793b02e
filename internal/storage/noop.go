package storage

import (
	"context"
	"errors"
	"time"
)

// NoopStorage devolve erro indicando que não há backend configurado.
type NoopStorage struct{}

// Upload sempre retorna erro, sinalizando que o recurso não está disponível.
func (NoopStorage) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	return nil, errors.New("storage: backend não configurado")
}

// SignedURL sempre retorna erro, sinalizando que o recurso não está disponível.
func (NoopStorage) SignedURL(key string, expires time.Duration) (string, error) {
	return "", errors.New("storage: backend não configurado")
}
