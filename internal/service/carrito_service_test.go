package service_test

import (
	"context"
	"testing"

	"heladeria/internal/carrito"
	"heladeria/internal/dto"
	"heladeria/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type carritoEnv struct {
	*pedidoEnv
	store *carrito.MemoryStore
	svc   service.CarritoService
}

func newCarritoEnv() *carritoEnv {
	pe := newPedidoEnv()
	store := carrito.NewMemoryStore()
	return &carritoEnv{
		pedidoEnv: pe,
		store:     store,
		svc:       service.NewCarritoService(store, &catalogoRepoFake{db: pe.db}, pe.svc),
	}
}

func TestCarrito_AgregarYQuitar(t *testing.T) {
	env := newCarritoEnv()
	ctx := context.Background()
	cono := env.db.addProducto("Cucurucho", "2500", 2)
	limon := env.db.addSabor("Limon")
	frutilla := env.db.addSabor("Frutilla")

	resp, err := env.svc.Agregar(ctx, "s1", dto.AgregarItemRequest{ProductoID: cono.ID, SaboresIDs: []uint{frutilla.ID, limon.ID}})
	require.NoError(t, err)
	require.Len(t, resp.Lineas, 1)
	assert.Equal(t, carrito.Key(cono.ID, []uint{limon.ID, frutilla.ID}), resp.Lineas[0].Key)
	assert.Equal(t, "2500.00", resp.Total.StringFixed(2))

	// Repeated flavor ids count once
	resp, err = env.svc.Agregar(ctx, "s1", dto.AgregarItemRequest{ProductoID: cono.ID, SaboresIDs: []uint{limon.ID, limon.ID}})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Cantidad)

	// Sessions are isolated
	other, err := env.svc.Ver(ctx, "s2")
	require.NoError(t, err)
	assert.Zero(t, other.Cantidad)

	resp, err = env.svc.Quitar(ctx, "s1", resp.Lineas[0].Key)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Cantidad)

	resp, err = env.svc.Quitar(ctx, "s1", "no-existe")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Cantidad)

	require.NoError(t, env.svc.Vaciar(ctx, "s1"))
	resp, err = env.svc.Ver(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, resp.Cantidad)
}

func TestCarrito_Agregar_Rechazos(t *testing.T) {
	env := newCarritoEnv()
	ctx := context.Background()
	cono := env.db.addProducto("Cucurucho", "2500", 2)
	agotado := env.db.addProducto("Torta", "15000", 0)
	env.db.mu.Lock()
	agotado.Disponible = false
	env.db.productos[agotado.ID] = agotado
	env.db.mu.Unlock()

	_, err := env.svc.Agregar(ctx, "s", dto.AgregarItemRequest{ProductoID: cono.ID, SaboresIDs: []uint{1, 2, 3}})
	assert.ErrorIs(t, err, service.ErrSaboresExcedidos)

	_, err = env.svc.Agregar(ctx, "s", dto.AgregarItemRequest{ProductoID: agotado.ID})
	assert.ErrorIs(t, err, service.ErrValidacion)

	_, err = env.svc.Agregar(ctx, "s", dto.AgregarItemRequest{ProductoID: 777})
	assert.ErrorIs(t, err, service.ErrNotFound)

	resp, err := env.svc.Ver(ctx, "s")
	require.NoError(t, err)
	assert.Zero(t, resp.Cantidad)
}

func TestCarrito_Checkout(t *testing.T) {
	env := newCarritoEnv()
	ctx := context.Background()
	palito := env.db.addProducto("Palito", "1200", 0)

	_, err := env.svc.Checkout(ctx, "s", cliente())
	assert.ErrorIs(t, err, service.ErrCarritoVacio)

	_, err = env.svc.Agregar(ctx, "s", dto.AgregarItemRequest{ProductoID: palito.ID})
	require.NoError(t, err)

	// A failed checkout keeps the cart
	bad := cliente()
	bad.ClienteNombre = ""
	_, err = env.svc.Checkout(ctx, "s", bad)
	require.Error(t, err)
	resp, err := env.svc.Ver(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Cantidad)

	pedido, err := env.svc.Checkout(ctx, "s", cliente())
	require.NoError(t, err)
	assert.Len(t, pedido.Detalles, 1)

	resp, err = env.svc.Ver(ctx, "s")
	require.NoError(t, err)
	assert.Zero(t, resp.Cantidad, "cart is emptied after a committed checkout")
}
