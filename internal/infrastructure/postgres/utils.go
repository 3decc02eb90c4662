package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/taller-inventario/internal/domain"
)

// Códigos SQLSTATE que se traducen a errores de dominio.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// lotStockQuantityCheck es el CHECK (quantity >= 0) de lot_stock.
const lotStockQuantityCheck = "lot_stock_quantity_check"

func pgCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	code, _ := pgCode(err)
	return code == codeUniqueViolation
}

// isForeignKeyViolation verifica si un error es una violación de llave foránea (23503).
func isForeignKeyViolation(err error) bool {
	code, _ := pgCode(err)
	return code == codeForeignKeyViolation
}

// mapError traduce errores de PostgreSQL a errores de dominio y agrega contexto.
// En DELETE una llave foránea violada significa que quedan dependientes.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	code, constraint := pgCode(err)
	switch code {
	case codeUniqueViolation:
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicateKey)
	case codeForeignKeyViolation:
		return fmt.Errorf("%s: %w", op, domain.ErrHasDependentStock)
	case codeCheckViolation:
		if constraint == lotStockQuantityCheck {
			return fmt.Errorf("%s: %w", op, domain.ErrInsufficientStock)
		}
		return fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidInput, err)
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrTransactionFailed, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// mapInsertError es mapError para INSERT: una llave foránea violada significa padre inexistente.
func mapInsertError(op string, err error) error {
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return mapError(op, err)
}

// nullIfEmpty guarda "" como NULL.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
