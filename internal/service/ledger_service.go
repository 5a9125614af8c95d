package service

import (
	"context"
	"fmt"
	"strings"

	"heladeria/internal/dto"
	"heladeria/internal/model"
	"heladeria/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// LedgerService appends cash movements to a caja. Movements are never
// updated; the only deletion is DedupeRepair.
type LedgerService interface {
	// RegistrarVenta credits a finalized POS sale to the ledger. Replaying the
	// same sale returns the movement recorded the first time.
	RegistrarVenta(ctx context.Context, cajaID uint, venta *model.VentaPOS) (*model.MovimientoCaja, error)
	// RegistrarVentaTx is RegistrarVenta inside the caller's transaction. The
	// caller must already hold the caja row lock and have checked it is open.
	RegistrarVentaTx(ctx context.Context, tx *gorm.DB, venta *model.VentaPOS) (*model.MovimientoCaja, error)
	RegistrarManual(ctx context.Context, usuarioID *uint, req dto.MovimientoManualRequest) (*dto.MovimientoResponse, error)
	// DedupeRepair keeps the newest VENTA movement per sale, drops older
	// duplicates and installs the unique index. Safe to run repeatedly.
	DedupeRepair(ctx context.Context) (int64, error)
}

type ledgerService struct {
	repo repository.CajaRepository
	tx   repository.Transactor
}

func NewLedgerService(repo repository.CajaRepository, tx repository.Transactor) LedgerService {
	return &ledgerService{repo: repo, tx: tx}
}

// lockCajaAbierta re-reads the caja FOR UPDATE so it cannot close while the
// movement is being written.
func lockCajaAbierta(ctx context.Context, repo repository.CajaRepository, tx *gorm.DB, cajaID uint) (*model.Caja, error) {
	caja, err := repo.LockCaja(ctx, tx, cajaID)
	if repository.IsNotFound(err) {
		return nil, fmt.Errorf("%w: caja %d no existe", ErrCajaNoAbierta, cajaID)
	}
	if err != nil {
		return nil, err
	}
	if caja.Estado != model.CajaAbierta {
		return nil, fmt.Errorf("%w: caja %d", ErrCajaNoAbierta, cajaID)
	}
	return caja, nil
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────

func (s *ledgerService) RegistrarVenta(ctx context.Context, cajaID uint, venta *model.VentaPOS) (*model.MovimientoCaja, error) {
	if venta.CajaID != cajaID {
		return nil, validacion("la venta %d pertenece a la caja %d", venta.ID, venta.CajaID)
	}
	var mov *model.MovimientoCaja
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := lockCajaAbierta(ctx, s.repo, tx, cajaID); err != nil {
			return err
		}
		var err error
		mov, err = s.RegistrarVentaTx(ctx, tx, venta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

func (s *ledgerService) RegistrarVentaTx(ctx context.Context, tx *gorm.DB, venta *model.VentaPOS) (*model.MovimientoCaja, error) {
	ventaID := venta.ID
	mov := &model.MovimientoCaja{
		CajaID:      venta.CajaID,
		Tipo:        model.MovVenta,
		MedioPago:   venta.MedioPago,
		Monto:       venta.Total,
		Descripcion: fmt.Sprintf("VentaPOS #%d (%d item/s)", venta.ID, len(venta.Items)),
		VentaID:     &ventaID,
		UsuarioID:   venta.UsuarioID,
	}
	if mov.MedioPago == "" {
		mov.MedioPago = model.MedioEfectivo
	}

	inserted, err := s.repo.CreateMovimientoVenta(ctx, tx, mov)
	if err != nil {
		return nil, fmt.Errorf("registrar venta %d: %w", venta.ID, err)
	}
	if inserted {
		return mov, nil
	}

	// Already credited: a retry of the same sale converges on the first row
	existing, err := s.repo.FindMovimientoVenta(ctx, tx, venta.ID)
	if err != nil {
		return nil, fmt.Errorf("buscar movimiento de venta %d: %w", venta.ID, err)
	}
	log.Info().Uint("venta_id", venta.ID).Uint("movimiento_id", existing.ID).Msg("ledger: venta ya asentada")
	return existing, nil
}

// ── RegistrarManual ───────────────────────────────────────────────────────────

// signoManual normalizes the sign of a manual movement: INGRESO is a credit,
// EGRESO and RETIRO are debits, AJUSTE keeps whatever sign it came with.
func signoManual(req dto.MovimientoManualRequest) (model.MovimientoCaja, error) {
	if req.Monto.IsZero() {
		return model.MovimientoCaja{}, ErrMontoInvalido
	}
	m := model.MovimientoCaja{
		Tipo:        req.Tipo,
		MedioPago:   req.MedioPago,
		Descripcion: strings.TrimSpace(req.Descripcion),
	}
	if m.MedioPago == "" {
		m.MedioPago = model.MedioEfectivo
	}
	switch req.Tipo {
	case model.MovIngreso:
		m.Monto = req.Monto.Abs()
	case model.MovEgreso, model.MovRetiro:
		m.Monto = req.Monto.Abs().Neg()
	case model.MovAjuste:
		m.Monto = req.Monto
	default:
		// VENTA only comes from RegistrarVenta
		return model.MovimientoCaja{}, ErrTipoMovimiento
	}
	return m, nil
}

func (s *ledgerService) RegistrarManual(ctx context.Context, usuarioID *uint, req dto.MovimientoManualRequest) (*dto.MovimientoResponse, error) {
	mov, err := signoManual(req)
	if err != nil {
		return nil, err
	}
	mov.UsuarioID = usuarioID

	cajaID := req.CajaID
	if cajaID == 0 {
		abierta, err := s.repo.FindCajaAbierta(ctx)
		if err != nil {
			return nil, err
		}
		if abierta == nil {
			return nil, ErrCajaNoAbierta
		}
		cajaID = abierta.ID
	}
	mov.CajaID = cajaID

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := lockCajaAbierta(ctx, s.repo, tx, cajaID); err != nil {
			return err
		}
		return s.repo.CreateMovimiento(ctx, tx, &mov)
	})
	if err != nil {
		return nil, err
	}
	return movimientoToResponse(&mov), nil
}

// ── DedupeRepair ──────────────────────────────────────────────────────────────

func (s *ledgerService) DedupeRepair(ctx context.Context) (int64, error) {
	removed, err := s.repo.DedupeMovimientosVenta(ctx)
	if err != nil {
		return 0, fmt.Errorf("dedupe movimientos: %w", err)
	}
	if err := s.repo.EnsureUniqueMovimientoVenta(ctx); err != nil {
		return removed, fmt.Errorf("indice unico movimientos: %w", err)
	}
	if removed > 0 {
		log.Warn().Int64("eliminados", removed).Msg("ledger: movimientos VENTA duplicados eliminados")
	}
	return removed, nil
}
