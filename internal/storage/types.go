package storage

import (
	"context"
	"time"
)

// UploadInput representa uma operação de upload simples.
type UploadInput struct {
	Key          string
	Body         []byte
	ContentType  string
	CacheControl string
}

// UploadResult descreve o artefato persistido.
type UploadResult struct {
	URL  string
	ETag string
}

// Uploader define comportamento básico para armazenar blobs.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
}

// Signer gera URLs temporárias de download direto do bucket.
type Signer interface {
	SignedURL(key string, expires time.Duration) (string, error)
}

// Storage combina upload e assinatura de URLs.
type Storage interface {
	Uploader
	Signer
}
