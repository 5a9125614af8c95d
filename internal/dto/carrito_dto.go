package dto

import (
	"heladeria/internal/carrito"

	"github.com/shopspring/decimal"
)

type AgregarItemRequest struct {
	ProductoID uint   `json:"producto_id" validate:"required"`
	SaboresIDs []uint `json:"sabores_ids" validate:"omitempty,dive,min=1"`
}

type CarritoResponse struct {
	Lineas   []carrito.Linea `json:"lineas"`
	Cantidad int             `json:"cantidad"`
	Total    decimal.Decimal `json:"total"`
}
