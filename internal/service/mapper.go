package service

import (
	"time"

	"heladeria/internal/dto"
	"heladeria/internal/model"
)

const fechaLayout = time.RFC3339

func pedidoToResponse(p *model.Pedido) *dto.PedidoResponse {
	resp := &dto.PedidoResponse{
		ID:                     p.ID,
		ClienteNombre:          p.ClienteNombre,
		ClienteDireccion:       p.ClienteDireccion,
		ClienteTelefono:        p.ClienteTelefono,
		MetodoPago:             p.MetodoPago,
		Estado:                 p.Estado,
		FechaPedido:            p.FechaPedido.Format(fechaLayout),
		Latitud:                p.Latitud,
		Longitud:               p.Longitud,
		DistanciaKm:            p.DistanciaKm,
		CostoEnvio:             p.CostoEnvio,
		DireccionGeocodificada: p.DireccionGeocodificada,
		Total:                  p.Total(),
		Detalles:               make([]dto.DetallePedidoResponse, 0, len(p.Detalles)),
	}
	for _, d := range p.Detalles {
		sabores := make([]string, 0, len(d.Sabores))
		for _, s := range d.Sabores {
			sabores = append(sabores, s.Nombre)
		}
		resp.Detalles = append(resp.Detalles, dto.DetallePedidoResponse{
			ID:             d.ID,
			ProductoID:     d.ProductoID,
			ProductoNombre: d.Producto.Nombre,
			PrecioUnitario: d.PrecioUnitario,
			Sabores:        sabores,
		})
	}
	return resp
}

func cajaToResponse(c *model.Caja) dto.CajaResponse {
	resp := dto.CajaResponse{
		ID:                   c.ID,
		Estado:               c.Estado,
		FechaApertura:        c.FechaApertura.Format(fechaLayout),
		SaldoInicialEfectivo: c.SaldoInicialEfectivo,
		SaldoCierreEfectivo:  c.SaldoCierreEfectivo,
	}
	if c.FechaCierre != nil {
		t := c.FechaCierre.Format(fechaLayout)
		resp.FechaCierre = &t
	}
	return resp
}

func movimientoToResponse(m *model.MovimientoCaja) *dto.MovimientoResponse {
	return &dto.MovimientoResponse{
		ID:          m.ID,
		CajaID:      m.CajaID,
		Tipo:        m.Tipo,
		MedioPago:   m.MedioPago,
		Monto:       m.Monto,
		Descripcion: m.Descripcion,
		VentaID:     m.VentaID,
		CreatedAt:   m.CreatedAt.Format(fechaLayout),
	}
}

func ventaToResponse(v *model.VentaPOS) *dto.VentaResponse {
	resp := &dto.VentaResponse{
		ID:              v.ID,
		CajaID:          v.CajaID,
		PedidoID:        v.PedidoID,
		Total:           v.Total,
		MedioPago:       v.MedioPago,
		TipoComprobante: v.TipoComprobante,
		Estado:          v.Estado,
		CreatedAt:       v.CreatedAt.Format(fechaLayout),
		Items:           make([]dto.ItemVentaResponse, 0, len(v.Items)),
	}
	for _, it := range v.Items {
		resp.Items = append(resp.Items, dto.ItemVentaResponse{
			ProductoID:     it.ProductoID,
			Descripcion:    it.Descripcion,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		})
	}
	return resp
}
