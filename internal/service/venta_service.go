package service

import (
	"context"
	"fmt"

	"heladeria/internal/dto"
	"heladeria/internal/model"
	"heladeria/internal/realtime"
	"heladeria/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const tipoComprobanteDefault = "COMANDA"

// VentaService records in-person sales at the POS.
type VentaService interface {
	RegistrarVenta(ctx context.Context, usuarioID *uint, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	// AsentarVenta replays the ledger credit of an existing sale. It is
	// idempotent: the movement is created at most once.
	AsentarVenta(ctx context.Context, ventaID uint) (*dto.MovimientoResponse, error)
}

type ventaService struct {
	repo      repository.VentaPOSRepository
	cajaRepo  repository.CajaRepository
	catalogo  repository.CatalogoRepository
	pedidos   repository.PedidoRepository
	ledger    LedgerService
	tx        repository.Transactor
	publisher realtime.Publisher
}

func NewVentaService(
	repo repository.VentaPOSRepository,
	cajaRepo repository.CajaRepository,
	catalogo repository.CatalogoRepository,
	pedidos repository.PedidoRepository,
	ledger LedgerService,
	tx repository.Transactor,
	publisher realtime.Publisher,
) VentaService {
	return &ventaService{
		repo:      repo,
		cajaRepo:  cajaRepo,
		catalogo:  catalogo,
		pedidos:   pedidos,
		ledger:    ledger,
		tx:        tx,
		publisher: publisher,
	}
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
//   1. Find the open caja
//   2. BEGIN TX: lock the caja row (it may have closed meanwhile), price
//      every item, create venta + items, append the VENTA movement
//   3. COMMIT
//   4. (post-commit) notify staff when the sale fulfills an online order

func (s *ventaService) RegistrarVenta(ctx context.Context, usuarioID *uint, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	if len(req.Items) == 0 {
		return nil, validacion("la venta no tiene items")
	}
	for _, it := range req.Items {
		if it.Cantidad < 1 {
			return nil, validacion("cantidad invalida para producto %d", it.ProductoID)
		}
	}

	abierta, err := s.cajaRepo.FindCajaAbierta(ctx)
	if err != nil {
		return nil, err
	}
	if abierta == nil {
		return nil, ErrCajaNoAbierta
	}

	if req.PedidoID != nil {
		if _, err := s.pedidos.FindByID(ctx, *req.PedidoID); repository.IsNotFound(err) {
			return nil, notFound("pedido %d", *req.PedidoID)
		} else if err != nil {
			return nil, err
		}
	}

	venta := &model.VentaPOS{
		CajaID:          abierta.ID,
		PedidoID:        req.PedidoID,
		MedioPago:       req.MedioPago,
		TipoComprobante: req.TipoComprobante,
		Estado:          "COMPLETADA",
		UsuarioID:       usuarioID,
	}
	if venta.MedioPago == "" {
		venta.MedioPago = model.MedioEfectivo
	}
	if venta.TipoComprobante == "" {
		venta.TipoComprobante = tipoComprobanteDefault
	}

	var mov *model.MovimientoCaja
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := lockCajaAbierta(ctx, s.cajaRepo, tx, abierta.ID); err != nil {
			return err
		}

		total := decimal.Zero
		for _, it := range req.Items {
			p, err := s.catalogo.FindProducto(ctx, tx, it.ProductoID)
			if repository.IsNotFound(err) {
				return notFound("producto %d", it.ProductoID)
			}
			if err != nil {
				return err
			}
			subtotal := p.Precio.Mul(decimal.NewFromInt(int64(it.Cantidad)))
			total = total.Add(subtotal)
			venta.Items = append(venta.Items, model.VentaPOSItem{
				ProductoID:     p.ID,
				Descripcion:    p.Nombre,
				Cantidad:       it.Cantidad,
				PrecioUnitario: p.Precio,
				Subtotal:       subtotal,
			})
		}
		// Total is computed once here; the movement copies it verbatim
		venta.Total = total

		if err := s.repo.Create(ctx, tx, venta); err != nil {
			return fmt.Errorf("crear venta: %w", err)
		}
		var err error
		mov, err = s.ledger.RegistrarVentaTx(ctx, tx, venta)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("venta_id", venta.ID).
		Uint("caja_id", venta.CajaID).
		Str("total", venta.Total.StringFixed(2)).
		Str("medio_pago", venta.MedioPago).
		Msg("venta POS registrada")

	resp := ventaToResponse(venta)
	resp.Movimiento = movimientoToResponse(mov)

	if venta.PedidoID != nil {
		s.notificarPedidoCobrado(ctx, venta)
	}
	return resp, nil
}

func (s *ventaService) notificarPedidoCobrado(ctx context.Context, venta *model.VentaPOS) {
	msg := realtime.Mensaje{
		Message: realtime.MsgOrderUpdate,
		OrderID: venta.PedidoID,
		OrderData: map[string]any{
			"venta_id":   venta.ID,
			"total":      venta.Total,
			"medio_pago": venta.MedioPago,
			"cobrado":    true,
		},
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), realtime.GrupoPedidos, msg); err != nil {
		log.Warn().Err(err).Uint("venta_id", venta.ID).Msg("venta: notificacion order_update fallo")
	}
}

// ── AsentarVenta ──────────────────────────────────────────────────────────────

func (s *ventaService) AsentarVenta(ctx context.Context, ventaID uint) (*dto.MovimientoResponse, error) {
	venta, err := s.repo.FindByID(ctx, ventaID)
	if repository.IsNotFound(err) {
		return nil, notFound("venta %d", ventaID)
	}
	if err != nil {
		return nil, err
	}
	mov, err := s.ledger.RegistrarVenta(ctx, venta.CajaID, venta)
	if err != nil {
		return nil, err
	}
	return movimientoToResponse(mov), nil
}
