package service_test

import (
	"context"
	"sync"
	"testing"

	"heladeria/internal/dto"
	"heladeria/internal/model"
	"heladeria/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerEnv struct {
	db     *memDB
	cajas  *cajaRepoFake
	ledger service.LedgerService
}

func newLedgerEnv() *ledgerEnv {
	db := newMemDB()
	cajas := &cajaRepoFake{db: db}
	return &ledgerEnv{
		db:     db,
		cajas:  cajas,
		ledger: service.NewLedgerService(cajas, &memTransactor{db: db}),
	}
}

func (e *ledgerEnv) venta(cajaID uint, total, medio string) *model.VentaPOS {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	v := model.VentaPOS{
		ID:        e.db.id(),
		CajaID:    cajaID,
		Total:     decimal.RequireFromString(total),
		MedioPago: medio,
	}
	e.db.ventas[v.ID] = v
	return &v
}

func TestLedger_RegistrarVenta_Idempotente(t *testing.T) {
	env := newLedgerEnv()
	caja := env.db.addCajaAbierta("0")
	venta := env.venta(caja.ID, "1500", model.MedioEfectivo)

	first, err := env.ledger.RegistrarVenta(context.Background(), caja.ID, venta)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := env.ledger.RegistrarVenta(context.Background(), caja.ID, venta)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.True(t, first.Monto.Equal(again.Monto))
	}

	movs := env.cajas.ventaMovs(venta.ID)
	require.Len(t, movs, 1)
	assert.Equal(t, model.MovVenta, movs[0].Tipo)
	assert.Equal(t, "1500.00", movs[0].Monto.StringFixed(2))
	assert.Equal(t, model.MedioEfectivo, movs[0].MedioPago)
}

func TestLedger_RegistrarVenta_Concurrente(t *testing.T) {
	env := newLedgerEnv()
	caja := env.db.addCajaAbierta("0")
	venta := env.venta(caja.ID, "820.50", model.MedioDebito)

	const n = 16
	var wg sync.WaitGroup
	ids := make([]uint, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mov, err := env.ledger.RegistrarVenta(context.Background(), caja.ID, venta)
			errs[i] = err
			if mov != nil {
				ids[i] = mov.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Len(t, env.cajas.ventaMovs(venta.ID), 1)
}

func TestLedger_RegistrarVenta_CajaNoAbierta(t *testing.T) {
	env := newLedgerEnv()
	caja := env.db.addCajaAbierta("0")
	venta := env.venta(caja.ID, "100", "")

	_, err := env.cajas.CerrarCaja(context.Background(), nil, caja.ID, nil, nil, caja.FechaApertura)
	require.NoError(t, err)

	_, err = env.ledger.RegistrarVenta(context.Background(), caja.ID, venta)
	assert.ErrorIs(t, err, service.ErrCajaNoAbierta)
	assert.Empty(t, env.cajas.ventaMovs(venta.ID))

	_, err = env.ledger.RegistrarVenta(context.Background(), 999, &model.VentaPOS{ID: 1, CajaID: 999})
	assert.ErrorIs(t, err, service.ErrCajaNoAbierta)
}

func TestLedger_RegistrarVenta_CajaAjena(t *testing.T) {
	env := newLedgerEnv()
	caja := env.db.addCajaAbierta("0")
	venta := env.venta(caja.ID+100, "100", "")

	_, err := env.ledger.RegistrarVenta(context.Background(), caja.ID, venta)
	assert.ErrorIs(t, err, service.ErrValidacion)
}

func TestLedger_RegistrarManual_Signo(t *testing.T) {
	cases := []struct {
		tipo  string
		monto string
		want  string
	}{
		{model.MovIngreso, "300", "300.00"},
		{model.MovIngreso, "-300", "300.00"},
		{model.MovEgreso, "500", "-500.00"},
		{model.MovEgreso, "-500", "-500.00"},
		{model.MovRetiro, "2000", "-2000.00"},
		{model.MovAjuste, "-35.50", "-35.50"},
		{model.MovAjuste, "12", "12.00"},
	}
	for _, tc := range cases {
		t.Run(tc.tipo+"_"+tc.monto, func(t *testing.T) {
			env := newLedgerEnv()
			caja := env.db.addCajaAbierta("1000")

			mov, err := env.ledger.RegistrarManual(context.Background(), nil, dto.MovimientoManualRequest{
				Tipo:  tc.tipo,
				Monto: decimal.RequireFromString(tc.monto),
			})
			require.NoError(t, err)
			assert.Equal(t, caja.ID, mov.CajaID)
			assert.Equal(t, tc.want, mov.Monto.StringFixed(2))
			assert.Equal(t, model.MedioEfectivo, mov.MedioPago)
		})
	}
}

func TestLedger_RegistrarManual_Rechazos(t *testing.T) {
	env := newLedgerEnv()
	ctx := context.Background()

	_, err := env.ledger.RegistrarManual(ctx, nil, dto.MovimientoManualRequest{Tipo: model.MovIngreso, Monto: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, service.ErrCajaNoAbierta)

	env.db.addCajaAbierta("0")
	_, err = env.ledger.RegistrarManual(ctx, nil, dto.MovimientoManualRequest{Tipo: model.MovEgreso, Monto: decimal.Zero})
	assert.ErrorIs(t, err, service.ErrMontoInvalido)
	assert.ErrorIs(t, err, service.ErrValidacion)

	_, err = env.ledger.RegistrarManual(ctx, nil, dto.MovimientoManualRequest{Tipo: model.MovVenta, Monto: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, service.ErrTipoMovimiento)
}

func TestLedger_DedupeRepair(t *testing.T) {
	env := newLedgerEnv()
	caja := env.db.addCajaAbierta("0")
	ctx := context.Background()

	// Legacy data: the unique index was missing and retries double-booked
	env.db.uniqVenta = false
	v1 := env.venta(caja.ID, "100", "")
	v2 := env.venta(caja.ID, "250", "")
	var ultimo uint
	for i := 0; i < 3; i++ {
		m, err := env.ledger.RegistrarVenta(ctx, caja.ID, v1)
		require.NoError(t, err)
		ultimo = m.ID
	}
	_, err := env.ledger.RegistrarVenta(ctx, caja.ID, v2)
	require.NoError(t, err)
	_, err = env.ledger.RegistrarManual(ctx, nil, dto.MovimientoManualRequest{Tipo: model.MovIngreso, Monto: decimal.NewFromInt(5)})
	require.NoError(t, err)

	removed, err := env.ledger.DedupeRepair(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.True(t, env.db.uniqVenta)

	movs := env.cajas.ventaMovs(v1.ID)
	require.Len(t, movs, 1)
	assert.Equal(t, ultimo, movs[0].ID, "the newest row survives")
	assert.Len(t, env.cajas.ventaMovs(v2.ID), 1)

	todos, err := env.cajas.ListMovimientos(ctx, nil, caja.ID)
	require.NoError(t, err)
	assert.Len(t, todos, 3)

	// Second run is a no-op
	removed, err = env.ledger.DedupeRepair(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
