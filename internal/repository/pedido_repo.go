package repository

import (
	"context"
	"time"

	"heladeria/internal/model"

	"gorm.io/gorm"
)

// PedidoFilter narrows List. Zero values mean no filter.
type PedidoFilter struct {
	Estado string
	Page   int
	Limit  int
}

type PedidoRepository interface {
	Create(ctx context.Context, tx *gorm.DB, p *model.Pedido) error
	// CreateDetalle inserts a line and links its flavors; the flavors
	// themselves must already exist.
	CreateDetalle(ctx context.Context, tx *gorm.DB, d *model.DetallePedido) error
	FindByID(ctx context.Context, id uint) (*model.Pedido, error)
	List(ctx context.Context, filter PedidoFilter) ([]model.Pedido, int64, error)
	UpdateEstado(ctx context.Context, id uint, estado string) error
	// TransicionEstado moves the order from desde to hacia only if it is
	// currently in desde. Reports whether the row changed.
	TransicionEstado(ctx context.Context, id uint, desde, hacia string) (bool, error)
	SetDireccionGeocodificada(ctx context.Context, id uint, direccion string) error
	ListPendientesGeocodificacion(ctx context.Context, olderThan time.Time, limit int) ([]model.Pedido, error)
}

type pedidoRepo struct{ db *gorm.DB }

func NewPedidoRepository(db *gorm.DB) PedidoRepository { return &pedidoRepo{db: db} }

func (r *pedidoRepo) Create(ctx context.Context, tx *gorm.DB, p *model.Pedido) error {
	// Lines are inserted one by one through CreateDetalle
	return conn(ctx, r.db, tx).Omit("Detalles").Create(p).Error
}

func (r *pedidoRepo) CreateDetalle(ctx context.Context, tx *gorm.DB, d *model.DetallePedido) error {
	return conn(ctx, r.db, tx).Omit("Producto", "Sabores.*").Create(d).Error
}

func (r *pedidoRepo) FindByID(ctx context.Context, id uint) (*model.Pedido, error) {
	var p model.Pedido
	err := r.db.WithContext(ctx).
		Preload("Detalles.Producto").
		Preload("Detalles.Sabores").
		First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pedidoRepo) List(ctx context.Context, filter PedidoFilter) ([]model.Pedido, int64, error) {
	var pedidos []model.Pedido
	var total int64

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Pedido{})
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Detalles.Producto").Preload("Detalles.Sabores").
		Order("fecha_pedido DESC").
		Offset((filter.Page - 1) * filter.Limit).Limit(filter.Limit).
		Find(&pedidos).Error
	return pedidos, total, err
}

func (r *pedidoRepo) UpdateEstado(ctx context.Context, id uint, estado string) error {
	res := r.db.WithContext(ctx).Model(&model.Pedido{}).Where("id = ?", id).Update("estado", estado)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *pedidoRepo) TransicionEstado(ctx context.Context, id uint, desde, hacia string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Pedido{}).
		Where("id = ? AND estado = ?", id, desde).
		Update("estado", hacia)
	return res.RowsAffected == 1, res.Error
}

func (r *pedidoRepo) SetDireccionGeocodificada(ctx context.Context, id uint, direccion string) error {
	return r.db.WithContext(ctx).Model(&model.Pedido{}).
		Where("id = ?", id).
		Update("direccion_geocodificada", direccion).Error
}

func (r *pedidoRepo) ListPendientesGeocodificacion(ctx context.Context, olderThan time.Time, limit int) ([]model.Pedido, error) {
	var pedidos []model.Pedido
	err := r.db.WithContext(ctx).
		Where("latitud IS NOT NULL AND longitud IS NOT NULL AND direccion_geocodificada IS NULL AND fecha_pedido < ?", olderThan).
		Order("id ASC").
		Limit(limit).
		Find(&pedidos).Error
	return pedidos, err
}
