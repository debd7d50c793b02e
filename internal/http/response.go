package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/medsyncsaude/api/internal/chat"
	"github.com/medsyncsaude/api/internal/clinica"
	"github.com/medsyncsaude/api/internal/equipe"
	"github.com/medsyncsaude/api/internal/escala"
	"github.com/medsyncsaude/api/internal/organizacao"
	"github.com/medsyncsaude/api/internal/repo"
	"github.com/medsyncsaude/api/internal/smtp"
)

// SuccessEnvelope padroniza respostas com dados.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope padroniza respostas de erro.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody descreve falhas normalizadas.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON escreve envelope de sucesso.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// WriteError escreve envelope de erro e mantém formato consistente.
func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Data:  nil,
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, repo.ErrNotFound) ||
		errors.Is(err, organizacao.ErrNotFound) ||
		errors.Is(err, clinica.ErrNotFound) ||
		errors.Is(err, clinica.ErrSetorNotFound) ||
		errors.Is(err, equipe.ErrNotFound) ||
		errors.Is(err, equipe.ErrVinculoNotFound) ||
		errors.Is(err, escala.ErrNotFound) ||
		errors.Is(err, escala.ErrFixaNotFound) ||
		errors.Is(err, chat.ErrNotFound) ||
		errors.Is(err, smtp.ErrNotFound)
}

func isForbidden(err error) bool {
	return errors.Is(err, organizacao.ErrForbidden) || errors.Is(err, chat.ErrForbidden)
}

func isConflict(err error) bool {
	return errors.Is(err, smtp.ErrConflict) || errors.Is(err, clinica.ErrCNPJDuplicado)
}

func isInfra(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// writeDomainError mapeia sentinelas de domínio; o que sobra é erro interno.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case isForbidden(err):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "acesso negado", nil)
	case isNotFound(err):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case isConflict(err):
		WriteError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	default:
		log.Error().Err(err).Msg("erro não tratado")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}

// writeMutationError mapeia sentinelas e trata o restante como erro de
// validação vindo do serviço; falhas de infraestrutura continuam 500.
func writeMutationError(w http.ResponseWriter, err error) {
	switch {
	case isForbidden(err), isNotFound(err), isConflict(err), isInfra(err):
		writeDomainError(w, err)
	default:
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	}
}
