package service

import (
	"context"
	"fmt"

	"heladeria/internal/carrito"
	"heladeria/internal/dto"
	"heladeria/internal/model"
	"heladeria/internal/repository"

	"github.com/rs/zerolog/log"
)

// CarritoService manages the per-session cart and hands its snapshot to
// PedidoService at checkout.
type CarritoService interface {
	Ver(ctx context.Context, sesion string) (*dto.CarritoResponse, error)
	Agregar(ctx context.Context, sesion string, req dto.AgregarItemRequest) (*dto.CarritoResponse, error)
	Quitar(ctx context.Context, sesion, key string) (*dto.CarritoResponse, error)
	Vaciar(ctx context.Context, sesion string) error
	// Checkout places the order and empties the cart once it is committed.
	Checkout(ctx context.Context, sesion string, req dto.CheckoutRequest) (*dto.PedidoResponse, error)
}

type carritoService struct {
	store    carrito.Store
	catalogo repository.CatalogoRepository
	pedidos  PedidoService
}

func NewCarritoService(store carrito.Store, catalogo repository.CatalogoRepository, pedidos PedidoService) CarritoService {
	return &carritoService{store: store, catalogo: catalogo, pedidos: pedidos}
}

func carritoToResponse(c *carrito.Carrito) *dto.CarritoResponse {
	return &dto.CarritoResponse{
		Lineas:   c.Snapshot(),
		Cantidad: c.Len(),
		Total:    c.Total(),
	}
}

func (s *carritoService) Ver(ctx context.Context, sesion string) (*dto.CarritoResponse, error) {
	c, err := s.store.Load(ctx, sesion)
	if err != nil {
		return nil, err
	}
	return carritoToResponse(c), nil
}

// Agregar resolves the product and flavors now so the cart line carries name
// and price snapshots. The flavor limit is checked here, not at storage.
func (s *carritoService) Agregar(ctx context.Context, sesion string, req dto.AgregarItemRequest) (*dto.CarritoResponse, error) {
	p, err := s.catalogo.FindProducto(ctx, nil, req.ProductoID)
	if repository.IsNotFound(err) {
		return nil, notFound("producto %d", req.ProductoID)
	}
	if err != nil {
		return nil, err
	}
	if !p.Disponible {
		return nil, validacion("%s no esta disponible", p.Nombre)
	}

	var sabores []model.Sabor
	if p.SaboresMaximos > 0 {
		if contarDistintos(req.SaboresIDs) > p.SaboresMaximos {
			return nil, fmt.Errorf("%w: maximo %d para %s", ErrSaboresExcedidos, p.SaboresMaximos, p.Nombre)
		}
		sabores, err = s.catalogo.FindSabores(ctx, nil, req.SaboresIDs)
		if err != nil {
			return nil, err
		}
	}

	c, err := s.store.Update(ctx, sesion, func(c *carrito.Carrito) error {
		c.AddSelection(*p, sabores)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return carritoToResponse(c), nil
}

func (s *carritoService) Quitar(ctx context.Context, sesion, key string) (*dto.CarritoResponse, error) {
	c, err := s.store.Update(ctx, sesion, func(c *carrito.Carrito) error {
		c.Remove(key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return carritoToResponse(c), nil
}

func (s *carritoService) Vaciar(ctx context.Context, sesion string) error {
	return s.store.Delete(ctx, sesion)
}

func (s *carritoService) Checkout(ctx context.Context, sesion string, req dto.CheckoutRequest) (*dto.PedidoResponse, error) {
	c, err := s.store.Load(ctx, sesion)
	if err != nil {
		return nil, err
	}
	pedido, err := s.pedidos.Checkout(ctx, req, c.Snapshot())
	if err != nil {
		return nil, err
	}
	// The order exists; a stale cart is only an inconvenience
	if err := s.store.Delete(context.WithoutCancel(ctx), sesion); err != nil {
		log.Warn().Err(err).Uint("pedido_id", pedido.ID).Msg("carrito: no se pudo vaciar tras el checkout")
	}
	return pedido, nil
}

func contarDistintos(ids []uint) int {
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}
