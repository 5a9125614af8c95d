package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"heladeria/internal/dto"
	"heladeria/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	menuCacheKey = "menu:v1"
	menuCacheTTL = 5 * time.Minute
)

// MenuService serves the public catalog and the admin product removal.
type MenuService interface {
	Menu(ctx context.Context) (*dto.MenuResponse, error)
	// EliminarProducto fails with ErrEnUso while any order line references it.
	EliminarProducto(ctx context.Context, id uint) error
}

type menuService struct {
	repo   repository.CatalogoRepository
	tienda TiendaService
	rdb    *redis.Client // optional
}

func NewMenuService(repo repository.CatalogoRepository, tienda TiendaService, rdb *redis.Client) MenuService {
	return &menuService{repo: repo, tienda: tienda, rdb: rdb}
}

func (s *menuService) Menu(ctx context.Context) (*dto.MenuResponse, error) {
	// 1. Try Redis cache
	var menu *dto.MenuResponse
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, menuCacheKey).Bytes(); err == nil {
			var m dto.MenuResponse
			if json.Unmarshal(cached, &m) == nil {
				menu = &m
			}
		}
	}

	// 2. Cache miss, query DB
	if menu == nil {
		var err error
		if menu, err = s.cargarMenu(ctx); err != nil {
			return nil, err
		}
		// 3. Populate cache, best effort
		if s.rdb != nil {
			if b, err := json.Marshal(menu); err == nil {
				_ = s.rdb.Set(ctx, menuCacheKey, b, menuCacheTTL).Err()
			}
		}
	}

	// The open flag is not cached; staff toggles must show immediately
	menu.TiendaAbierta = s.tienda.Abierta(ctx)
	return menu, nil
}

func (s *menuService) cargarMenu(ctx context.Context) (*dto.MenuResponse, error) {
	cats, err := s.repo.ListCategorias(ctx)
	if err != nil {
		return nil, err
	}
	productos, err := s.repo.ListProductos(ctx)
	if err != nil {
		return nil, err
	}
	sabores, err := s.repo.ListSabores(ctx)
	if err != nil {
		return nil, err
	}

	menu := &dto.MenuResponse{
		Categorias: make([]dto.CategoriaMenu, 0, len(cats)),
		Productos:  make([]dto.ProductoMenu, 0, len(productos)),
		Sabores:    make([]dto.SaborMenu, 0, len(sabores)),
	}
	for _, c := range cats {
		menu.Categorias = append(menu.Categorias, dto.CategoriaMenu{ID: c.ID, Nombre: c.Nombre, Descripcion: c.Descripcion})
	}
	for _, p := range productos {
		menu.Productos = append(menu.Productos, dto.ProductoMenu{
			ID:             p.ID,
			CategoriaID:    p.CategoriaID,
			Nombre:         p.Nombre,
			Descripcion:    p.Descripcion,
			Precio:         p.Precio,
			SaboresMaximos: p.SaboresMaximos,
			Imagen:         p.Imagen,
		})
	}
	for _, sb := range sabores {
		menu.Sabores = append(menu.Sabores, dto.SaborMenu{ID: sb.ID, Nombre: sb.Nombre})
	}
	return menu, nil
}

func (s *menuService) EliminarProducto(ctx context.Context, id uint) error {
	err := s.repo.DeleteProducto(ctx, id)
	switch {
	case repository.IsNotFound(err):
		return notFound("producto %d", id)
	case errors.Is(err, repository.ErrEnUso):
		return ErrEnUso
	case err != nil:
		return err
	}
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, menuCacheKey).Err(); err != nil {
			log.Warn().Err(err).Msg("menu: no se pudo invalidar la cache")
		}
	}
	return nil
}
