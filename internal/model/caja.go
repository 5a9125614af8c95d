package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estado: "ABIERTA" | "CERRADA"
const (
	CajaAbierta = "ABIERTA"
	CajaCerrada = "CERRADA"
)

// Caja represents one cash-drawer period. At most one row may be ABIERTA at
// a time (partial unique index uniq_caja_abierta). A closed caja is never
// reopened. The closing summary is derived from its movimientos on demand.
type Caja struct {
	ID                   uint      `gorm:"primaryKey"`
	Estado               string    `gorm:"type:varchar(10);not null;default:'ABIERTA'"`
	FechaApertura        time.Time `gorm:"not null"`
	FechaCierre          *time.Time
	SaldoInicialEfectivo decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// SaldoCierreEfectivo is the cash count declared at close
	SaldoCierreEfectivo *decimal.Decimal `gorm:"type:decimal(12,2)"`
	UsuarioAperturaID   *uint
	UsuarioCierreID     *uint

	Movimientos []MovimientoCaja `gorm:"foreignKey:CajaID"`
}

func (Caja) TableName() string { return "cajas" }

// Tipos de movimiento
const (
	MovVenta   = "VENTA"
	MovIngreso = "INGRESO"
	MovEgreso  = "EGRESO"
	MovRetiro  = "RETIRO"
	MovAjuste  = "AJUSTE"
)

// Medios de pago
const (
	MedioEfectivo      = "EFECTIVO"
	MedioDebito        = "DEBITO"
	MedioCredito       = "CREDITO"
	MedioTransferencia = "TRANSFERENCIA"
	MedioMercadoPago   = "MERCADOPAGO"
)

// MovimientoCaja is an immutable ledger entry. Monto is signed.
// For a non-null VentaID at most one VENTA row exists (uniq_mov_por_venta_tipo).
type MovimientoCaja struct {
	ID          uint            `gorm:"primaryKey"`
	CajaID      uint            `gorm:"index;not null"`
	Tipo        string          `gorm:"type:varchar(10);not null"`
	MedioPago   string          `gorm:"type:varchar(20);not null;default:'EFECTIVO'"`
	Monto       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descripcion string          `gorm:"type:varchar(255);not null;default:''"`
	VentaID     *uint           `gorm:"index"`
	UsuarioID   *uint
	CreatedAt   time.Time
}

func (MovimientoCaja) TableName() string { return "movimientos_caja" }
