package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicateKey      = errors.New("el código ya existe en su ámbito")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrHasDependentStock = errors.New("la ubicación tiene stock o dependientes")
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrTransactionFailed = errors.New("la transacción no pudo confirmarse")
)

// IsRetryable indica si la operación puede reintentarse con la misma clave de idempotencia.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransactionFailed)
}

// IsDomainError indica si err pertenece a los errores de dominio conocidos.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidInput, ErrDuplicateKey, ErrUnauthorized, ErrForbidden,
		ErrInsufficientStock, ErrHasDependentStock, ErrInvalidQuantity, ErrTransactionFailed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
