package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"heladeria/internal/carrito"
	"heladeria/internal/dto"
	"heladeria/internal/geo"
	"heladeria/internal/model"
	"heladeria/internal/realtime"
	"heladeria/internal/repository"
	"heladeria/internal/worker"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type PedidoService interface {
	// Checkout turns a cart snapshot into an order with its lines, all or
	// nothing. The new_order notification is sent only after commit.
	Checkout(ctx context.Context, req dto.CheckoutRequest, lineas []carrito.Linea) (*dto.PedidoResponse, error)
	ObtenerPedido(ctx context.Context, id uint) (*dto.PedidoResponse, error)
	ListarPedidos(ctx context.Context, filter dto.PedidoFilter) (*dto.PedidoListResponse, error)
	// ActualizarEstado sets any status; it is the staff override.
	ActualizarEstado(ctx context.Context, id uint, estado string) (*dto.PedidoResponse, error)
	// Confirmar moves a RECIBIDO order to EN_PREPARACION.
	Confirmar(ctx context.Context, id uint) (*dto.PedidoResponse, error)
}

type pedidoService struct {
	repo      repository.PedidoRepository
	catalogo  repository.CatalogoRepository
	tx        repository.Transactor
	gate      geo.Gate
	publisher realtime.Publisher
	cola      worker.Encolador // optional
	now       func() time.Time
}

func NewPedidoService(
	repo repository.PedidoRepository,
	catalogo repository.CatalogoRepository,
	tx repository.Transactor,
	gate geo.Gate,
	publisher realtime.Publisher,
	cola worker.Encolador,
) PedidoService {
	return &pedidoService{
		repo:      repo,
		catalogo:  catalogo,
		tx:        tx,
		gate:      gate,
		publisher: publisher,
		cola:      cola,
		now:       time.Now,
	}
}

// ── Checkout ──────────────────────────────────────────────────────────────────
//   1. Validate customer fields, cart and delivery zone (no writes yet)
//   2. BEGIN TX: create pedido RECIBIDO, then one detalle per cart line
//   3. COMMIT
//   4. (post-commit, best effort) publish new_order, enqueue geocoding

func (s *pedidoService) Checkout(ctx context.Context, req dto.CheckoutRequest, lineas []carrito.Linea) (*dto.PedidoResponse, error) {
	pedido, err := s.prepararPedido(req, lineas)
	if err != nil {
		return nil, err
	}

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, pedido); err != nil {
			return fmt.Errorf("crear pedido: %w", err)
		}
		for i, l := range lineas {
			producto, err := s.catalogo.FindProducto(ctx, tx, l.ProductoID)
			if repository.IsNotFound(err) {
				return notFound("producto %d", l.ProductoID)
			}
			if err != nil {
				return fmt.Errorf("linea %d: %w", i, err)
			}
			// Unknown flavor ids are dropped, not an error
			sabores, err := s.catalogo.FindSabores(ctx, tx, l.SaboresIDs)
			if err != nil {
				return fmt.Errorf("linea %d: %w", i, err)
			}
			detalle := model.DetallePedido{
				PedidoID:       pedido.ID,
				ProductoID:     producto.ID,
				PrecioUnitario: producto.Precio,
				Sabores:        sabores,
			}
			if err := s.repo.CreateDetalle(ctx, tx, &detalle); err != nil {
				return fmt.Errorf("linea %d: %w", i, err)
			}
			detalle.Producto = *producto
			pedido.Detalles = append(pedido.Detalles, detalle)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := pedidoToResponse(pedido)
	log.Info().
		Uint("pedido_id", pedido.ID).
		Int("lineas", len(pedido.Detalles)).
		Str("total", resp.Total.StringFixed(2)).
		Msg("pedido creado")

	s.despuesDelCommit(ctx, pedido, resp)
	return resp, nil
}

func (s *pedidoService) prepararPedido(req dto.CheckoutRequest, lineas []carrito.Linea) (*model.Pedido, error) {
	nombre := strings.TrimSpace(req.ClienteNombre)
	direccion := strings.TrimSpace(req.ClienteDireccion)
	if nombre == "" {
		return nil, validacion("cliente_nombre es obligatorio")
	}
	if direccion == "" {
		return nil, validacion("cliente_direccion es obligatoria")
	}
	if len(lineas) == 0 {
		return nil, ErrCarritoVacio
	}
	if (req.Latitud == nil) != (req.Longitud == nil) {
		return nil, validacion("latitud y longitud van juntas")
	}

	metodo := req.MetodoPago
	if metodo == "" {
		metodo = model.MetodoPagoEfectivo
	}
	pedido := &model.Pedido{
		ClienteNombre:    nombre,
		ClienteDireccion: direccion,
		ClienteTelefono:  strings.TrimSpace(req.ClienteTelefono),
		MetodoPago:       metodo,
		Estado:           model.EstadoRecibido,
		FechaPedido:      s.now(),
	}

	if req.Latitud != nil {
		lat, lng := *req.Latitud, *req.Longitud
		km := s.gate.DistanciaKm(lat, lng)
		if !s.gate.DentroDelRadio(lat, lng) {
			return nil, fmt.Errorf("%w (%.2f km, maximo %.2f km)", ErrFueraDeZona, km, s.gate.RadioKm)
		}
		pedido.Latitud = &lat
		pedido.Longitud = &lng
		pedido.DistanciaKm = &km
		pedido.CostoEnvio = s.gate.CostoEnvio(km)
	}
	return pedido, nil
}

// despuesDelCommit runs the side effects that must never precede the commit
// and must never fail the checkout.
func (s *pedidoService) despuesDelCommit(ctx context.Context, pedido *model.Pedido, resp *dto.PedidoResponse) {
	// The customer may hang up right after commit; staff still get the alert
	ctx = context.WithoutCancel(ctx)

	id := pedido.ID
	msg := realtime.Mensaje{Message: realtime.MsgNewOrder, OrderID: &id, OrderData: resp}
	if err := s.publisher.Publish(ctx, realtime.GrupoPedidos, msg); err != nil {
		log.Warn().Err(err).Uint("pedido_id", id).Msg("pedido: notificacion new_order fallo")
	}

	if s.cola != nil && pedido.Latitud != nil {
		if err := s.cola.EnqueueGeocodificacion(ctx, id); err != nil {
			log.Warn().Err(err).Uint("pedido_id", id).Msg("pedido: no se pudo encolar geocodificacion")
		}
	}
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *pedidoService) ObtenerPedido(ctx context.Context, id uint) (*dto.PedidoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, notFound("pedido %d", id)
	}
	if err != nil {
		return nil, err
	}
	return pedidoToResponse(p), nil
}

func (s *pedidoService) ListarPedidos(ctx context.Context, filter dto.PedidoFilter) (*dto.PedidoListResponse, error) {
	pedidos, total, err := s.repo.List(ctx, repository.PedidoFilter{
		Estado: filter.Estado,
		Page:   filter.Page,
		Limit:  filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	resp := &dto.PedidoListResponse{
		Data:  make([]dto.PedidoResponse, 0, len(pedidos)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range pedidos {
		resp.Data = append(resp.Data, *pedidoToResponse(&pedidos[i]))
	}
	return resp, nil
}

// ── Estado ────────────────────────────────────────────────────────────────────

func (s *pedidoService) ActualizarEstado(ctx context.Context, id uint, estado string) (*dto.PedidoResponse, error) {
	if !estadoValido(estado) {
		return nil, validacion("estado %q desconocido", estado)
	}
	if err := s.repo.UpdateEstado(ctx, id, estado); err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("pedido %d", id)
		}
		return nil, err
	}
	return s.notificarActualizacion(ctx, id)
}

func (s *pedidoService) Confirmar(ctx context.Context, id uint) (*dto.PedidoResponse, error) {
	ok, err := s.repo.TransicionEstado(ctx, id, model.EstadoRecibido, model.EstadoEnPreparacion)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := s.repo.FindByID(ctx, id); repository.IsNotFound(err) {
			return nil, notFound("pedido %d", id)
		}
		return nil, fmt.Errorf("%w: solo se confirman pedidos %s", ErrEstadoInvalido, model.EstadoRecibido)
	}
	return s.notificarActualizacion(ctx, id)
}

// notificarActualizacion reloads the order and tells staff and delivery
// clients about it.
func (s *pedidoService) notificarActualizacion(ctx context.Context, id uint) (*dto.PedidoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := pedidoToResponse(p)

	msg := realtime.Mensaje{Message: realtime.MsgOrderUpdate, OrderID: &p.ID, OrderData: resp}
	pubCtx := context.WithoutCancel(ctx)
	for _, grupo := range []string{realtime.GrupoPedidos, realtime.GrupoCadetes} {
		if err := s.publisher.Publish(pubCtx, grupo, msg); err != nil {
			log.Warn().Err(err).Uint("pedido_id", id).Str("grupo", grupo).Msg("pedido: notificacion order_update fallo")
		}
	}
	return resp, nil
}

func estadoValido(estado string) bool {
	switch estado {
	case model.EstadoRecibido, model.EstadoEnPreparacion, model.EstadoEnCamino,
		model.EstadoEntregado, model.EstadoCancelado:
		return true
	}
	return false
}
