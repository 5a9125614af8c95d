package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CheckoutRequest carries the customer data; the lines come from the cart.
// Latitud/Longitud are the device-reported delivery point, both or neither.
type CheckoutRequest struct {
	ClienteNombre    string   `json:"cliente_nombre"    validate:"required,max=100"`
	ClienteDireccion string   `json:"cliente_direccion" validate:"required,max=255"`
	ClienteTelefono  string   `json:"cliente_telefono"  validate:"omitempty,max=20"`
	MetodoPago       string   `json:"metodo_pago"       validate:"omitempty,oneof=EFECTIVO MERCADOPAGO"`
	Latitud          *float64 `json:"latitud"           validate:"omitempty,min=-90,max=90"`
	Longitud         *float64 `json:"longitud"          validate:"omitempty,min=-180,max=180"`
}

type ActualizarEstadoRequest struct {
	Estado string `json:"estado" validate:"required,oneof=RECIBIDO EN_PREPARACION EN_CAMINO ENTREGADO CANCELADO"`
}

// PedidoFilter is bound from the query string of GET /v1/pedidos.
type PedidoFilter struct {
	Estado string `form:"estado" validate:"omitempty,oneof=RECIBIDO EN_PREPARACION EN_CAMINO ENTREGADO CANCELADO"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DetallePedidoResponse struct {
	ID             uint            `json:"id"`
	ProductoID     uint            `json:"producto_id"`
	ProductoNombre string          `json:"producto_nombre"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Sabores        []string        `json:"sabores"`
}

type PedidoResponse struct {
	ID                     uint                    `json:"id"`
	ClienteNombre          string                  `json:"cliente_nombre"`
	ClienteDireccion       string                  `json:"cliente_direccion"`
	ClienteTelefono        string                  `json:"cliente_telefono"`
	MetodoPago             string                  `json:"metodo_pago"`
	Estado                 string                  `json:"estado"`
	FechaPedido            string                  `json:"fecha_pedido"`
	Latitud                *float64                `json:"latitud"`
	Longitud               *float64                `json:"longitud"`
	DistanciaKm            *float64                `json:"distancia_km"`
	CostoEnvio             decimal.Decimal         `json:"costo_envio"`
	DireccionGeocodificada *string                 `json:"direccion_geocodificada"`
	Total                  decimal.Decimal         `json:"total"`
	Detalles               []DetallePedidoResponse `json:"detalles"`
}

type PedidoListResponse struct {
	Data  []PedidoResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}
