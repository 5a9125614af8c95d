package service

import (
	"context"
	"errors"

	"heladeria/internal/realtime"
	"heladeria/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const tiendaAbiertaKey = "tienda:abierta"

// FuenteEstado is one provider of the store open flag. It returns nil when
// it holds no value.
type FuenteEstado func(ctx context.Context) (*bool, error)

// ResolverEstado asks each source in order and returns the first value
// found, else defecto. A failing source counts as absent.
func ResolverEstado(ctx context.Context, defecto bool, fuentes ...FuenteEstado) bool {
	for i, f := range fuentes {
		v, err := f(ctx)
		if err != nil {
			log.Warn().Err(err).Int("fuente", i).Msg("tienda: fuente de estado no disponible")
			continue
		}
		if v != nil {
			return *v
		}
	}
	return defecto
}

// FuenteRedis reads the flag mirrored in Redis. It covers the window when the
// settings table is unreachable.
func FuenteRedis(rdb *redis.Client) FuenteEstado {
	return func(ctx context.Context) (*bool, error) {
		raw, err := rdb.Get(ctx, tiendaAbiertaKey).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		abierta := raw == "1"
		return &abierta, nil
	}
}

type TiendaService interface {
	Abierta(ctx context.Context) bool
	// SetAbierta persists the flag and announces it with a store_status message.
	SetAbierta(ctx context.Context, abierta bool) error
}

type tiendaService struct {
	repo      repository.TiendaRepository
	rdb       *redis.Client // optional
	defecto   bool
	publisher realtime.Publisher
}

func NewTiendaService(repo repository.TiendaRepository, rdb *redis.Client, defecto bool, publisher realtime.Publisher) TiendaService {
	return &tiendaService{repo: repo, rdb: rdb, defecto: defecto, publisher: publisher}
}

func (s *tiendaService) Abierta(ctx context.Context) bool {
	fuentes := []FuenteEstado{s.repo.GetAbierta}
	if s.rdb != nil {
		fuentes = append(fuentes, FuenteRedis(s.rdb))
	}
	return ResolverEstado(ctx, s.defecto, fuentes...)
}

func (s *tiendaService) SetAbierta(ctx context.Context, abierta bool) error {
	if err := s.repo.SetAbierta(ctx, abierta); err != nil {
		return err
	}
	if s.rdb != nil {
		v := "0"
		if abierta {
			v = "1"
		}
		if err := s.rdb.Set(ctx, tiendaAbiertaKey, v, 0).Err(); err != nil {
			log.Warn().Err(err).Msg("tienda: no se pudo replicar el estado en redis")
		}
	}

	log.Info().Bool("abierta", abierta).Msg("tienda: estado actualizado")
	msg := realtime.Mensaje{Message: realtime.MsgStoreStatus, OrderData: map[string]bool{"abierta": abierta}}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), realtime.GrupoPedidos, msg); err != nil {
		log.Warn().Err(err).Msg("tienda: notificacion store_status fallo")
	}
	return nil
}
