package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"heladeria/internal/dto"
	"heladeria/internal/model"
	"heladeria/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CajaService interface {
	Abrir(ctx context.Context, usuarioID *uint, req dto.AbrirCajaRequest) (*dto.CajaResponse, error)
	Cerrar(ctx context.Context, cajaID uint, usuarioID *uint, req dto.CerrarCajaRequest) (*dto.ResumenCajaResponse, error)
	// CajaAbierta returns nil when no caja is open.
	CajaAbierta(ctx context.Context) (*dto.CajaResponse, error)
	Reporte(ctx context.Context, cajaID uint) (*dto.ReporteCajaResponse, error)
	Historial(ctx context.Context, page, limit int) (*dto.CajaHistorialResponse, error)
}

type cajaService struct {
	repo   repository.CajaRepository
	ventas repository.VentaPOSRepository
	tx     repository.Transactor
	now    func() time.Time
}

func NewCajaService(repo repository.CajaRepository, ventas repository.VentaPOSRepository, tx repository.Transactor) CajaService {
	return &cajaService{repo: repo, ventas: ventas, tx: tx, now: time.Now}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────
// The lookup gives a friendly error in the common case. Two concurrent opens
// can both pass it; the partial unique index uniq_caja_abierta rejects the
// second insert, which surfaces as ErrDuplicado.

func (s *cajaService) Abrir(ctx context.Context, usuarioID *uint, req dto.AbrirCajaRequest) (*dto.CajaResponse, error) {
	if req.SaldoInicial.IsNegative() {
		return nil, ErrMontoInvalido
	}
	existing, err := s.repo.FindCajaAbierta(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: caja %d", ErrCajaYaAbierta, existing.ID)
	}

	caja := &model.Caja{
		Estado:               model.CajaAbierta,
		FechaApertura:        s.now(),
		SaldoInicialEfectivo: req.SaldoInicial,
		UsuarioAperturaID:    usuarioID,
	}
	if err := s.repo.CreateCaja(ctx, caja); err != nil {
		if errors.Is(err, repository.ErrDuplicado) {
			return nil, ErrCajaYaAbierta
		}
		return nil, err
	}

	log.Info().Uint("caja_id", caja.ID).Str("saldo_inicial", caja.SaldoInicialEfectivo.StringFixed(2)).Msg("caja abierta")
	resp := cajaToResponse(caja)
	return &resp, nil
}

// ── Cerrar ────────────────────────────────────────────────────────────────────
// Exactly once: the conditional UPDATE only matches an ABIERTA row, so a
// second close (or a racing one) finds nothing and fails with ErrCajaNoAbierta.

func (s *cajaService) Cerrar(ctx context.Context, cajaID uint, usuarioID *uint, req dto.CerrarCajaRequest) (*dto.ResumenCajaResponse, error) {
	if req.SaldoContado != nil && req.SaldoContado.IsNegative() {
		return nil, ErrMontoInvalido
	}

	var resumen *dto.ResumenCajaResponse
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		caja, err := lockCajaAbierta(ctx, s.repo, tx, cajaID)
		if err != nil {
			return err
		}

		at := s.now()
		ok, err := s.repo.CerrarCaja(ctx, tx, cajaID, usuarioID, req.SaldoContado, at)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: caja %d", ErrCajaNoAbierta, cajaID)
		}
		caja.Estado = model.CajaCerrada
		caja.FechaCierre = &at
		caja.UsuarioCierreID = usuarioID
		caja.SaldoCierreEfectivo = req.SaldoContado

		resumen, err = s.resumen(ctx, tx, caja)
		return err
	})
	if err != nil {
		return nil, err
	}

	ev := log.Info().Uint("caja_id", cajaID).Str("teorico", resumen.SaldoTeoricoEfectivo.StringFixed(2))
	if resumen.Diferencia != nil {
		ev = ev.Str("diferencia", resumen.Diferencia.StringFixed(2))
	}
	ev.Msg("caja cerrada")
	return resumen, nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *cajaService) CajaAbierta(ctx context.Context) (*dto.CajaResponse, error) {
	caja, err := s.repo.FindCajaAbierta(ctx)
	if err != nil || caja == nil {
		return nil, err
	}
	resp := cajaToResponse(caja)
	return &resp, nil
}

func (s *cajaService) Reporte(ctx context.Context, cajaID uint) (*dto.ReporteCajaResponse, error) {
	caja, err := s.repo.FindCajaByID(ctx, cajaID)
	if repository.IsNotFound(err) {
		return nil, notFound("caja %d", cajaID)
	}
	if err != nil {
		return nil, err
	}

	resumen, err := s.resumen(ctx, nil, caja)
	if err != nil {
		return nil, err
	}
	movs, err := s.repo.ListMovimientos(ctx, nil, cajaID)
	if err != nil {
		return nil, err
	}
	ventas, err := s.ventas.ListByCaja(ctx, cajaID)
	if err != nil {
		return nil, err
	}

	reporte := &dto.ReporteCajaResponse{
		ResumenCajaResponse: *resumen,
		Movimientos:         make([]dto.MovimientoResponse, 0, len(movs)),
		Ventas:              make([]dto.VentaResponse, 0, len(ventas)),
	}
	for i := range movs {
		reporte.Movimientos = append(reporte.Movimientos, *movimientoToResponse(&movs[i]))
	}
	for i := range ventas {
		reporte.Ventas = append(reporte.Ventas, *ventaToResponse(&ventas[i]))
	}
	return reporte, nil
}

func (s *cajaService) Historial(ctx context.Context, page, limit int) (*dto.CajaHistorialResponse, error) {
	cajas, total, err := s.repo.ListCajas(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	resp := &dto.CajaHistorialResponse{
		Data:  make([]dto.CajaResponse, 0, len(cajas)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for i := range cajas {
		resp.Data = append(resp.Data, cajaToResponse(&cajas[i]))
	}
	return resp, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// resumen aggregates the caja's movements. Saldo teorico de efectivo is the
// opening float plus every signed cash movement.
func (s *cajaService) resumen(ctx context.Context, tx *gorm.DB, caja *model.Caja) (*dto.ResumenCajaResponse, error) {
	porTipo, err := s.repo.SumMovimientosPorTipo(ctx, tx, caja.ID)
	if err != nil {
		return nil, err
	}
	porMedio, err := s.repo.SumMovimientosPorMedio(ctx, tx, caja.ID)
	if err != nil {
		return nil, err
	}
	efectivo, err := s.repo.SumEfectivo(ctx, tx, caja.ID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ResumenCajaResponse{
		Caja:                 cajaToResponse(caja),
		TotalesPorTipo:       porTipo,
		TotalesPorMedio:      porMedio,
		SaldoTeoricoEfectivo: caja.SaldoInicialEfectivo.Add(efectivo),
		SaldoContado:         caja.SaldoCierreEfectivo,
	}
	if resp.TotalesPorTipo == nil {
		resp.TotalesPorTipo = map[string]decimal.Decimal{}
	}
	for _, tipo := range []string{model.MovVenta, model.MovIngreso, model.MovEgreso, model.MovRetiro, model.MovAjuste} {
		if _, ok := resp.TotalesPorTipo[tipo]; !ok {
			resp.TotalesPorTipo[tipo] = decimal.Zero
		}
	}
	if caja.SaldoCierreEfectivo != nil {
		diff := caja.SaldoCierreEfectivo.Sub(resp.SaldoTeoricoEfectivo)
		resp.Diferencia = &diff
	}
	return resp, nil
}
