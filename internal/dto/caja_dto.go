package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	SaldoInicial decimal.Decimal `json:"saldo_inicial" validate:"min=0"`
}

type CerrarCajaRequest struct {
	// SaldoContado is the cash counted in the drawer; optional.
	SaldoContado *decimal.Decimal `json:"saldo_contado"`
}

// MovimientoManualRequest records a cash event that is not a sale. Monto is
// given as a magnitude for INGRESO/EGRESO/RETIRO; AJUSTE keeps its sign.
type MovimientoManualRequest struct {
	// CajaID defaults to the currently open caja when zero.
	CajaID      uint            `json:"caja_id"`
	Tipo        string          `json:"tipo"        validate:"required,oneof=INGRESO EGRESO RETIRO AJUSTE"`
	MedioPago   string          `json:"medio_pago"  validate:"omitempty,oneof=EFECTIVO DEBITO CREDITO TRANSFERENCIA MERCADOPAGO"`
	Monto       decimal.Decimal `json:"monto"       validate:"required"`
	Descripcion string          `json:"descripcion" validate:"max=255"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CajaResponse struct {
	ID                   uint             `json:"id"`
	Estado               string           `json:"estado"`
	FechaApertura        string           `json:"fecha_apertura"`
	FechaCierre          *string          `json:"fecha_cierre"`
	SaldoInicialEfectivo decimal.Decimal  `json:"saldo_inicial_efectivo"`
	SaldoCierreEfectivo  *decimal.Decimal `json:"saldo_cierre_efectivo"`
}

type MovimientoResponse struct {
	ID          uint            `json:"id"`
	CajaID      uint            `json:"caja_id"`
	Tipo        string          `json:"tipo"`
	MedioPago   string          `json:"medio_pago"`
	Monto       decimal.Decimal `json:"monto"`
	Descripcion string          `json:"descripcion"`
	VentaID     *uint           `json:"venta_id"`
	CreatedAt   string          `json:"created_at"`
}

// ResumenCajaResponse is the derived closing summary of a caja. It is never
// stored; it is recomputed from the movements each time.
type ResumenCajaResponse struct {
	Caja                 CajaResponse               `json:"caja"`
	TotalesPorTipo       map[string]decimal.Decimal `json:"totales_por_tipo"`
	TotalesPorMedio      map[string]decimal.Decimal `json:"totales_por_medio"`
	SaldoTeoricoEfectivo decimal.Decimal            `json:"saldo_teorico_efectivo"`
	SaldoContado         *decimal.Decimal           `json:"saldo_contado"`
	Diferencia           *decimal.Decimal           `json:"diferencia"`
}

type ReporteCajaResponse struct {
	ResumenCajaResponse
	Movimientos []MovimientoResponse `json:"movimientos"`
	Ventas      []VentaResponse      `json:"ventas"`
}

type CajaHistorialResponse struct {
	Data  []CajaResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// CajaHistorialFilter is bound from the query string of GET /v1/caja/historial.
type CajaHistorialFilter struct {
	Page  int `form:"page,default=1"   validate:"min=1"`
	Limit int `form:"limit,default=20" validate:"min=1,max=100"`
}
