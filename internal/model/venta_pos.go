package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// VentaPOS is an in-person sale recorded against an open Caja. PedidoID links
// it to the online order it fulfills, nil for walk-in sales.
type VentaPOS struct {
	ID              uint            `gorm:"primaryKey"`
	CajaID          uint            `gorm:"index;not null"`
	PedidoID        *uint           `gorm:"index"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MedioPago       string          `gorm:"type:varchar(20);not null;default:'EFECTIVO'"`
	TipoComprobante string          `gorm:"type:varchar(20);not null;default:'COMANDA'"`
	Estado          string          `gorm:"type:varchar(20);not null;default:'COMPLETADA'"`
	UsuarioID       *uint
	CreatedAt       time.Time

	Items []VentaPOSItem `gorm:"foreignKey:VentaID;constraint:OnDelete:CASCADE"`
}

func (VentaPOS) TableName() string { return "ventas_pos" }

// VentaPOSItem keeps the unit price at sale time.
type VentaPOSItem struct {
	ID             uint            `gorm:"primaryKey"`
	VentaID        uint            `gorm:"index;not null"`
	ProductoID     uint            `gorm:"index;not null"`
	Descripcion    string          `gorm:"type:varchar(150);not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID;constraint:OnDelete:RESTRICT"`
}

func (VentaPOSItem) TableName() string { return "ventas_pos_items" }
