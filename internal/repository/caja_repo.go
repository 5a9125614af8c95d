package repository

import (
	"context"
	"errors"
	"time"

	"heladeria/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CajaRepository interface {
	// CreateCaja returns ErrDuplicado when another caja is already ABIERTA.
	CreateCaja(ctx context.Context, c *model.Caja) error
	// FindCajaAbierta returns (nil, nil) when no caja is open.
	FindCajaAbierta(ctx context.Context) (*model.Caja, error)
	FindCajaByID(ctx context.Context, id uint) (*model.Caja, error)
	// LockCaja re-reads the row FOR UPDATE inside tx.
	LockCaja(ctx context.Context, tx *gorm.DB, id uint) (*model.Caja, error)
	// CerrarCaja flips ABIERTA → CERRADA. Reports false when the caja was
	// not open any more.
	CerrarCaja(ctx context.Context, tx *gorm.DB, id uint, usuarioID *uint, saldoContado *decimal.Decimal, at time.Time) (bool, error)
	ListCajas(ctx context.Context, page, limit int) ([]model.Caja, int64, error)

	CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error
	// CreateMovimientoVenta inserts a VENTA movement unless one already exists
	// for the same venta. Reports whether a row was inserted.
	CreateMovimientoVenta(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) (bool, error)
	FindMovimientoVenta(ctx context.Context, tx *gorm.DB, ventaID uint) (*model.MovimientoCaja, error)
	ListMovimientos(ctx context.Context, tx *gorm.DB, cajaID uint) ([]model.MovimientoCaja, error)
	SumMovimientosPorTipo(ctx context.Context, tx *gorm.DB, cajaID uint) (map[string]decimal.Decimal, error)
	SumMovimientosPorMedio(ctx context.Context, tx *gorm.DB, cajaID uint) (map[string]decimal.Decimal, error)
	// SumEfectivo is the signed sum of cash movements of the caja.
	SumEfectivo(ctx context.Context, tx *gorm.DB, cajaID uint) (decimal.Decimal, error)

	// DedupeMovimientosVenta keeps only the newest VENTA movement per sale
	// and returns how many rows were removed.
	DedupeMovimientosVenta(ctx context.Context) (int64, error)
	EnsureUniqueMovimientoVenta(ctx context.Context) error
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) CreateCaja(ctx context.Context, c *model.Caja) error {
	return mapPgError(r.db.WithContext(ctx).Omit("Movimientos").Create(c).Error)
}

func (r *cajaRepo) FindCajaAbierta(ctx context.Context) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).
		Where("estado = ?", model.CajaAbierta).
		Order("fecha_apertura DESC").
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cajaRepo) FindCajaByID(ctx context.Context, id uint) (*model.Caja, error) {
	var c model.Caja
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cajaRepo) LockCaja(ctx context.Context, tx *gorm.DB, id uint) (*model.Caja, error) {
	var c model.Caja
	err := conn(ctx, r.db, tx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cajaRepo) CerrarCaja(ctx context.Context, tx *gorm.DB, id uint, usuarioID *uint, saldoContado *decimal.Decimal, at time.Time) (bool, error) {
	res := conn(ctx, r.db, tx).Model(&model.Caja{}).
		Where("id = ? AND estado = ?", id, model.CajaAbierta).
		Updates(map[string]any{
			"estado":                model.CajaCerrada,
			"fecha_cierre":          at,
			"usuario_cierre_id":     usuarioID,
			"saldo_cierre_efectivo": saldoContado,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *cajaRepo) ListCajas(ctx context.Context, page, limit int) ([]model.Caja, int64, error) {
	var cajas []model.Caja
	var total int64
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	q := r.db.WithContext(ctx).Model(&model.Caja{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("fecha_apertura DESC").Offset((page - 1) * limit).Limit(limit).Find(&cajas).Error
	return cajas, total, err
}

// ── Movimientos ───────────────────────────────────────────────────────────────
// Movements are immutable: there is no Update, and the only Delete is the
// dedupe repair below.

func (r *cajaRepo) CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error {
	return conn(ctx, r.db, tx).Create(m).Error
}

func (r *cajaRepo) CreateMovimientoVenta(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) (bool, error) {
	res := conn(ctx, r.db, tx).Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "venta_id"}, {Name: "tipo"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "venta_id IS NOT NULL"}}},
		DoNothing:   true,
	}).Create(m)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *cajaRepo) FindMovimientoVenta(ctx context.Context, tx *gorm.DB, ventaID uint) (*model.MovimientoCaja, error) {
	var m model.MovimientoCaja
	err := conn(ctx, r.db, tx).
		Where("venta_id = ? AND tipo = ?", ventaID, model.MovVenta).
		Order("id DESC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, tx *gorm.DB, cajaID uint) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := conn(ctx, r.db, tx).Where("caja_id = ?", cajaID).Order("created_at ASC, id ASC").Find(&movs).Error
	return movs, err
}

type sumRow struct {
	Clave string
	Total decimal.Decimal
}

func (r *cajaRepo) sumBy(ctx context.Context, tx *gorm.DB, cajaID uint, column string) (map[string]decimal.Decimal, error) {
	var rows []sumRow
	err := conn(ctx, r.db, tx).Model(&model.MovimientoCaja{}).
		Select(column+" AS clave, COALESCE(SUM(monto), 0) AS total").
		Where("caja_id = ?", cajaID).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.Clave] = row.Total
	}
	return out, nil
}

func (r *cajaRepo) SumMovimientosPorTipo(ctx context.Context, tx *gorm.DB, cajaID uint) (map[string]decimal.Decimal, error) {
	return r.sumBy(ctx, tx, cajaID, "tipo")
}

func (r *cajaRepo) SumMovimientosPorMedio(ctx context.Context, tx *gorm.DB, cajaID uint) (map[string]decimal.Decimal, error) {
	return r.sumBy(ctx, tx, cajaID, "medio_pago")
}

func (r *cajaRepo) SumEfectivo(ctx context.Context, tx *gorm.DB, cajaID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := conn(ctx, r.db, tx).Model(&model.MovimientoCaja{}).
		Select("COALESCE(SUM(monto), 0)").
		Where("caja_id = ? AND medio_pago = ?", cajaID, model.MedioEfectivo).
		Row().Scan(&total)
	return total, err
}

// ── Dedupe repair ─────────────────────────────────────────────────────────────

func (r *cajaRepo) DedupeMovimientosVenta(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
DELETE FROM movimientos_caja m
USING movimientos_caja newer
WHERE m.venta_id IS NOT NULL
  AND m.tipo = ?
  AND newer.venta_id = m.venta_id
  AND newer.tipo = m.tipo
  AND newer.id > m.id`, model.MovVenta)
	return res.RowsAffected, res.Error
}

func (r *cajaRepo) EnsureUniqueMovimientoVenta(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS uniq_mov_por_venta_tipo
    ON movimientos_caja (venta_id, tipo)
    WHERE venta_id IS NOT NULL`).Error
}
