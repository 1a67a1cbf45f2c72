package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrInvalidState      = errors.New("transición de estado inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrStorage           = errors.New("fallo de almacenamiento")
)

// ErrValidation es el nombre que usan los casos de uso de stock para ErrInvalidInput.
var ErrValidation = ErrInvalidInput

// IsBusinessError indica si err es un error de negocio conocido (se devuelve tal cual al llamador).
// El resto de errores dentro de una transacción se tratan como fallo de almacenamiento.
func IsBusinessError(err error) bool {
	for _, target := range []error{ErrNotFound, ErrInvalidInput, ErrDuplicate, ErrUnauthorized, ErrInvalidState, ErrInsufficientStock, ErrStorage} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
