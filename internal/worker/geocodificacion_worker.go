package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"heladeria/internal/infra"
	"heladeria/internal/repository"

	"github.com/rs/zerolog/log"
)

// Geocoder resolves coordinates to an address. An empty result with a nil
// error means there is nothing to find; an error means try again later.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (infra.Direccion, error)
}

// GeocodificacionWorker fills Pedido.DireccionGeocodificada from the order's
// delivery coordinates.
type GeocodificacionWorker struct {
	geocoder Geocoder
	pedidos  repository.PedidoRepository
}

func NewGeocodificacionWorker(geocoder Geocoder, pedidos repository.PedidoRepository) *GeocodificacionWorker {
	return &GeocodificacionWorker{geocoder: geocoder, pedidos: pedidos}
}

func (w *GeocodificacionWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload GeocodificacionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		// Malformed payloads can never succeed
		log.Error().Err(err).Msg("geocodificacion_worker: invalid payload")
		return nil
	}

	pedido, err := w.pedidos.FindByID(ctx, payload.PedidoID)
	if repository.IsNotFound(err) {
		log.Warn().Uint("pedido_id", payload.PedidoID).Msg("geocodificacion_worker: pedido no existe")
		return nil
	}
	if err != nil {
		return fmt.Errorf("geocodificacion: cargar pedido %d: %w", payload.PedidoID, err)
	}
	if pedido.Latitud == nil || pedido.Longitud == nil || pedido.DireccionGeocodificada != nil {
		return nil
	}

	// Failures leave the column NULL so the pool retries and the sweep finds it.
	// A definitive empty answer is stored so neither picks it up again.
	dir, err := w.geocoder.Reverse(ctx, *pedido.Latitud, *pedido.Longitud)
	if err != nil {
		return fmt.Errorf("geocodificacion: pedido %d: %w", pedido.ID, err)
	}
	if err := w.pedidos.SetDireccionGeocodificada(ctx, pedido.ID, dir.FormattedAddress); err != nil {
		return fmt.Errorf("geocodificacion: guardar pedido %d: %w", pedido.ID, err)
	}

	log.Info().
		Uint("pedido_id", pedido.ID).
		Bool("encontrada", !dir.Vacia()).
		Msg("geocodificacion_worker: direccion actualizada")
	return nil
}
