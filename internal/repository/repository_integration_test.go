//go:build integration

package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"heladeria/internal/model"
	"heladeria/internal/repository"
	"heladeria/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func abrir(t *testing.T, cajas repository.CajaRepository) *model.Caja {
	t.Helper()
	c := &model.Caja{Estado: model.CajaAbierta, FechaApertura: time.Now(), SaldoInicialEfectivo: decimal.NewFromInt(1000)}
	require.NoError(t, cajas.CreateCaja(context.Background(), c))
	return c
}

func TestIntegration_Repositorios(t *testing.T) {
	db := testutil.Postgres(t)
	ctx := context.Background()
	cajas := repository.NewCajaRepository(db)
	ventas := repository.NewVentaPOSRepository(db)
	catalogo := repository.NewCatalogoRepository(db)
	pedidos := repository.NewPedidoRepository(db)

	t.Run("una sola caja abierta", func(t *testing.T) {
		c := abrir(t, cajas)

		otra := &model.Caja{Estado: model.CajaAbierta, FechaApertura: time.Now(), SaldoInicialEfectivo: decimal.Zero}
		assert.ErrorIs(t, cajas.CreateCaja(ctx, otra), repository.ErrDuplicado)

		ok, err := cajas.CerrarCaja(ctx, nil, c.ID, nil, nil, time.Now())
		require.NoError(t, err)
		assert.True(t, ok)

		// Second close is a no-op, not an error
		ok, err = cajas.CerrarCaja(ctx, nil, c.ID, nil, nil, time.Now())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("apertura concurrente", func(t *testing.T) {
		const n = 8
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				c := &model.Caja{Estado: model.CajaAbierta, FechaApertura: time.Now(), SaldoInicialEfectivo: decimal.Zero}
				errs[i] = cajas.CreateCaja(ctx, c)
			}(i)
		}
		wg.Wait()

		var ok int
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.ErrorIs(t, err, repository.ErrDuplicado)
		}
		assert.Equal(t, 1, ok)

		abierta, err := cajas.FindCajaAbierta(ctx)
		require.NoError(t, err)
		_, err = cajas.CerrarCaja(ctx, nil, abierta.ID, nil, nil, time.Now())
		require.NoError(t, err)
	})

	t.Run("dedupe y movimiento VENTA idempotente", func(t *testing.T) {
		c := abrir(t, cajas)
		defer func() { _, _ = cajas.CerrarCaja(ctx, nil, c.ID, nil, nil, time.Now()) }()

		p := &model.Producto{Nombre: "Palito", Precio: decimal.NewFromInt(1200)}
		require.NoError(t, db.Create(p).Error)
		v := &model.VentaPOS{
			CajaID: c.ID, Total: decimal.NewFromInt(1200), MedioPago: model.MedioEfectivo,
			TipoComprobante: "COMANDA", Estado: "COMPLETADA",
			Items: []model.VentaPOSItem{{ProductoID: p.ID, Descripcion: p.Nombre, Cantidad: 1, PrecioUnitario: p.Precio, Subtotal: p.Precio}},
		}
		require.NoError(t, ventas.Create(ctx, nil, v))

		// Legacy duplicates, inserted before the unique index exists
		ventaID := v.ID
		for i := 0; i < 3; i++ {
			require.NoError(t, cajas.CreateMovimiento(ctx, nil, &model.MovimientoCaja{
				CajaID: c.ID, Tipo: model.MovVenta, MedioPago: model.MedioEfectivo, Monto: v.Total, VentaID: &ventaID,
			}))
		}
		var antes []model.MovimientoCaja
		require.NoError(t, db.Where("venta_id = ?", ventaID).Order("id").Find(&antes).Error)
		require.Len(t, antes, 3)

		removed, err := cajas.DedupeMovimientosVenta(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)
		require.NoError(t, cajas.EnsureUniqueMovimientoVenta(ctx))

		kept, err := cajas.FindMovimientoVenta(ctx, nil, ventaID)
		require.NoError(t, err)
		assert.Equal(t, antes[2].ID, kept.ID, "the newest row survives")

		inserted, err := cajas.CreateMovimientoVenta(ctx, nil, &model.MovimientoCaja{
			CajaID: c.ID, Tipo: model.MovVenta, MedioPago: model.MedioEfectivo, Monto: v.Total, VentaID: &ventaID,
		})
		require.NoError(t, err)
		assert.False(t, inserted)

		var count int64
		require.NoError(t, db.Model(&model.MovimientoCaja{}).Where("venta_id = ?", ventaID).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		// The sign check rejects a negative sale credit
		err = cajas.CreateMovimiento(ctx, nil, &model.MovimientoCaja{
			CajaID: c.ID, Tipo: model.MovVenta, MedioPago: model.MedioEfectivo, Monto: decimal.NewFromInt(-5),
		})
		assert.Error(t, err)

		porMedio, err := cajas.SumMovimientosPorMedio(ctx, nil, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "1200", porMedio[model.MedioEfectivo].String())
	})

	t.Run("transaccion revierte todo", func(t *testing.T) {
		p := &model.Producto{Nombre: "Pote 1Kg", Precio: decimal.NewFromInt(9000), SaboresMaximos: 4}
		require.NoError(t, db.Create(p).Error)
		var antes int64
		require.NoError(t, db.Model(&model.Pedido{}).Count(&antes).Error)

		err := repository.NewTransactor(db).Transaction(ctx, func(tx *gorm.DB) error {
			ped := &model.Pedido{ClienteNombre: "Ana", ClienteDireccion: "Esquiu 123", Estado: model.EstadoRecibido, FechaPedido: time.Now()}
			if err := pedidos.Create(ctx, tx, ped); err != nil {
				return err
			}
			if err := pedidos.CreateDetalle(ctx, tx, &model.DetallePedido{PedidoID: ped.ID, ProductoID: p.ID, PrecioUnitario: p.Precio}); err != nil {
				return err
			}
			return pedidos.CreateDetalle(ctx, tx, &model.DetallePedido{PedidoID: ped.ID, ProductoID: 987654, PrecioUnitario: decimal.NewFromInt(1)})
		})
		require.Error(t, err)

		var despues int64
		require.NoError(t, db.Model(&model.Pedido{}).Count(&despues).Error)
		assert.Equal(t, antes, despues)
		var lineas int64
		require.NoError(t, db.Model(&model.DetallePedido{}).Where("producto_id = ?", p.ID).Count(&lineas).Error)
		assert.Zero(t, lineas)
	})

	t.Run("producto referenciado no se borra", func(t *testing.T) {
		p := &model.Producto{Nombre: "Cucurucho", Precio: decimal.NewFromInt(2500), SaboresMaximos: 2}
		require.NoError(t, db.Create(p).Error)
		ped := &model.Pedido{ClienteNombre: "Ana", ClienteDireccion: "Esquiu 123", Estado: model.EstadoRecibido, FechaPedido: time.Now()}
		require.NoError(t, pedidos.Create(ctx, nil, ped))
		require.NoError(t, pedidos.CreateDetalle(ctx, nil, &model.DetallePedido{
			PedidoID: ped.ID, ProductoID: p.ID, PrecioUnitario: p.Precio,
		}))

		assert.ErrorIs(t, catalogo.DeleteProducto(ctx, p.ID), repository.ErrEnUso)
		assert.ErrorIs(t, catalogo.DeleteProducto(ctx, 424242), gorm.ErrRecordNotFound)

		ok, err := pedidos.TransicionEstado(ctx, ped.ID, model.EstadoRecibido, model.EstadoEnPreparacion)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = pedidos.TransicionEstado(ctx, ped.ID, model.EstadoRecibido, model.EstadoEnPreparacion)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
