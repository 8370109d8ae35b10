package postgres

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/musicstore-pos/internal/domain"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
	codeLockNotAvailable    = "55P03"
	codeInvalidText         = "22P02"
	codeOutOfRange          = "22003"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	if code := pgCode(err); code != "" {
		return code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// classify traduce errores de PostgreSQL a errores de dominio. Devuelve err sin cambios si no aplica.
//   - deadlock, serialización o lock no disponible → ErrConflict (el cliente puede reintentar)
//   - FK inexistente → ErrNotFound
//   - CHECK (p. ej. stock >= 0) → ErrConflict
//   - texto no convertible o entero fuera de rango → ErrInvalidInput
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch pgCode(err) {
	case codeSerialization, codeDeadlock, codeLockNotAvailable, codeCheckViolation:
		return errors.Join(domain.ErrConflict, err)
	case codeForeignKeyViolation:
		return errors.Join(domain.ErrNotFound, err)
	case codeUniqueViolation:
		return errors.Join(domain.ErrDuplicate, err)
	case codeInvalidText, codeOutOfRange:
		return errors.Join(domain.ErrInvalidInput, err)
	}
	return err
}

// validID indica si id es un UUID. Las columnas id son UUID y pgx no puede codificar otra cosa,
// así que un id mal formado se trata como inexistente sin ir a la base.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// validOptionalIDs como validID, pero acepta "" (filtro no informado).
func validOptionalIDs(ids ...string) bool {
	for _, id := range ids {
		if id != "" && !validID(id) {
			return false
		}
	}
	return true
}

// nullIfEmpty convierte "" en NULL para columnas UUID opcionales.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fromNull(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
