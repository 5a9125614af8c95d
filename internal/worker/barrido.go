package worker

// barrido.go
// Periodic sweep that re-enqueues geocoding for orders whose job was lost
// (Redis flushed, worker crashed mid-job). Orders younger than barridoEdadMinima
// are left to the normal enqueue-after-checkout path.

import (
	"context"
	"time"

	"heladeria/internal/repository"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

const (
	barridoIntervalo  = 1 * time.Minute
	barridoEdadMinima = 2 * time.Minute
	barridoLote       = 50
)

// Encolador is the part of Dispatcher the sweep needs.
type Encolador interface {
	EnqueueGeocodificacion(ctx context.Context, pedidoID uint) error
}

type BarridoGeocodificacion struct {
	pedidos repository.PedidoRepository
	cola    Encolador
	now     func() time.Time
}

func NewBarridoGeocodificacion(pedidos repository.PedidoRepository, cola Encolador) *BarridoGeocodificacion {
	return &BarridoGeocodificacion{pedidos: pedidos, cola: cola, now: time.Now}
}

// Ejecutar runs one sweep and returns how many orders were re-enqueued.
func (b *BarridoGeocodificacion) Ejecutar(ctx context.Context) int {
	pendientes, err := b.pedidos.ListPendientesGeocodificacion(ctx, b.now().Add(-barridoEdadMinima), barridoLote)
	if err != nil {
		log.Error().Err(err).Msg("barrido: failed to query pending orders")
		return 0
	}

	n := 0
	for _, p := range pendientes {
		if err := b.cola.EnqueueGeocodificacion(ctx, p.ID); err != nil {
			log.Error().Err(err).Uint("pedido_id", p.ID).Msg("barrido: enqueue failed")
			continue
		}
		n++
	}
	if n > 0 {
		log.Info().Int("count", n).Msg("barrido: geocodificacion re-enqueued")
	}
	return n
}

// StartBarrido schedules Ejecutar every minute. Runs never overlap. The
// scheduler stops when ctx is cancelled.
func StartBarrido(ctx context.Context, b *BarridoGeocodificacion) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(barridoIntervalo).Do(func() { b.Ejecutar(ctx) }); err != nil {
		return nil, err
	}
	s.StartAsync()
	log.Info().Msg("barrido: started")

	go func() {
		<-ctx.Done()
		s.Stop()
		log.Info().Msg("barrido: shutting down")
	}()
	return s, nil
}
