package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductoID uint `json:"producto_id" validate:"required"`
	Cantidad   int  `json:"cantidad"    validate:"required,min=1"`
}

// RegistrarVentaRequest is an in-person sale against the open caja. PedidoID
// links it to the online order it fulfills.
type RegistrarVentaRequest struct {
	Items           []ItemVentaRequest `json:"items"            validate:"required,min=1,dive"`
	MedioPago       string             `json:"medio_pago"       validate:"omitempty,oneof=EFECTIVO DEBITO CREDITO TRANSFERENCIA MERCADOPAGO"`
	TipoComprobante string             `json:"tipo_comprobante" validate:"omitempty,max=20"`
	PedidoID        *uint              `json:"pedido_id"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	ProductoID     uint            `json:"producto_id"`
	Descripcion    string          `json:"descripcion"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type VentaResponse struct {
	ID              uint                `json:"id"`
	CajaID          uint                `json:"caja_id"`
	PedidoID        *uint               `json:"pedido_id"`
	Total           decimal.Decimal     `json:"total"`
	MedioPago       string              `json:"medio_pago"`
	TipoComprobante string              `json:"tipo_comprobante"`
	Estado          string              `json:"estado"`
	CreatedAt       string              `json:"created_at"`
	Items           []ItemVentaResponse `json:"items"`
	Movimiento      *MovimientoResponse `json:"movimiento,omitempty"`
}
