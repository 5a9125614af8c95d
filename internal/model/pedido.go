package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un pedido. The progression is linear but staff may set any of
// them administratively.
const (
	EstadoRecibido      = "RECIBIDO"
	EstadoEnPreparacion = "EN_PREPARACION"
	EstadoEnCamino      = "EN_CAMINO"
	EstadoEntregado     = "ENTREGADO"
	EstadoCancelado     = "CANCELADO"
)

const (
	MetodoPagoEfectivo    = "EFECTIVO"
	MetodoPagoMercadoPago = "MERCADOPAGO"
)

// Pedido is a customer's placed order. It is created exactly once per
// checkout together with all of its Detalles, or not at all.
type Pedido struct {
	ID               uint      `gorm:"primaryKey"`
	ClienteNombre    string    `gorm:"type:varchar(100);not null"`
	ClienteDireccion string    `gorm:"type:varchar(255);not null"`
	ClienteTelefono  string    `gorm:"type:varchar(20);not null;default:''"`
	MetodoPago       string    `gorm:"type:varchar(20);not null;default:'EFECTIVO'"`
	Estado           string    `gorm:"type:varchar(20);not null;default:'RECIBIDO';index"`
	FechaPedido      time.Time `gorm:"not null;index"`

	// Delivery coordinates reported by the customer's device (optional).
	Latitud     *float64
	Longitud    *float64
	DistanciaKm *float64
	CostoEnvio  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	// DireccionGeocodificada is NULL until the geocoding job ran; an empty
	// string means it ran and found nothing.
	DireccionGeocodificada *string `gorm:"type:varchar(255)"`

	Detalles []DetallePedido `gorm:"foreignKey:PedidoID;constraint:OnDelete:CASCADE"`
}

func (Pedido) TableName() string { return "pedidos" }

// Total sums the line price snapshots plus the delivery fee.
func (p *Pedido) Total() decimal.Decimal {
	total := p.CostoEnvio
	for _, d := range p.Detalles {
		total = total.Add(d.PrecioUnitario)
	}
	return total
}

// DetallePedido is one product selection within an order. Deleting a
// Producto referenced here must fail (RESTRICT), never cascade.
type DetallePedido struct {
	ID         uint `gorm:"primaryKey"`
	PedidoID   uint `gorm:"index;not null"`
	ProductoID uint `gorm:"index;not null"`
	// PrecioUnitario snapshots the product price at checkout so later price
	// edits do not rewrite placed orders.
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	Producto Producto `gorm:"foreignKey:ProductoID;constraint:OnDelete:RESTRICT"`
	Sabores  []Sabor  `gorm:"many2many:detalle_pedido_sabores;"`
}

func (DetallePedido) TableName() string { return "detalles_pedido" }
