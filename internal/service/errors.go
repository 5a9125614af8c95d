package service

import (
	"errors"
	"fmt"
)

// Sentinel errors. Handlers map them to HTTP status codes with errors.Is;
// anything else is an internal error.
var (
	ErrNotFound = errors.New("no encontrado")

	ErrCajaYaAbierta = errors.New("ya hay una caja abierta")
	ErrCajaNoAbierta = errors.New("la caja no esta abierta")

	// ErrValidacion is the parent of every input rejection. It is always
	// raised before anything is written.
	ErrValidacion       = errors.New("datos invalidos")
	ErrCarritoVacio     = fmt.Errorf("%w: el carrito esta vacio", ErrValidacion)
	ErrFueraDeZona      = fmt.Errorf("%w: la direccion esta fuera de la zona de entrega", ErrValidacion)
	ErrSaboresExcedidos = fmt.Errorf("%w: demasiados sabores para el producto", ErrValidacion)
	ErrMontoInvalido    = fmt.Errorf("%w: monto invalido", ErrValidacion)
	ErrTipoMovimiento   = fmt.Errorf("%w: tipo de movimiento invalido", ErrValidacion)

	ErrEstadoInvalido = errors.New("el pedido no admite esa transicion")
	ErrEnUso          = errors.New("el registro esta referenciado")
	ErrCredenciales   = errors.New("credenciales invalidas")
)

func validacion(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidacion, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
