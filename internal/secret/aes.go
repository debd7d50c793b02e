package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

var (
	// ErrInvalidKey indica chave com tamanho diferente de 32 bytes.
	ErrInvalidKey = errors.New("chave deve ter 32 bytes")
	// ErrCiphertextInvalid indica payload corrompido ou chave errada.
	ErrCiphertextInvalid = errors.New("ciphertext inválido")
)

// Cipher encripta segredos pequenos (senhas SMTP) com AES-256-GCM.
// O nonce é gerado por operação e prefixado ao ciphertext.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher cria o cifrador a partir de uma chave de 32 bytes.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt devolve nonce+ciphertext em base64 URL-safe.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverte Encrypt.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrCiphertextInvalid
	}
	if len(raw) < c.aead.NonceSize() {
		return "", ErrCiphertextInvalid
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrCiphertextInvalid
	}
	return string(plain), nil
}
