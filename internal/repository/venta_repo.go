package repository

import (
	"context"

	"heladeria/internal/model"

	"gorm.io/gorm"
)

type VentaPOSRepository interface {
	Create(ctx context.Context, tx *gorm.DB, v *model.VentaPOS) error
	FindByID(ctx context.Context, id uint) (*model.VentaPOS, error)
	ListByCaja(ctx context.Context, cajaID uint) ([]model.VentaPOS, error)
}

type ventaPOSRepo struct{ db *gorm.DB }

func NewVentaPOSRepository(db *gorm.DB) VentaPOSRepository { return &ventaPOSRepo{db: db} }

func (r *ventaPOSRepo) Create(ctx context.Context, tx *gorm.DB, v *model.VentaPOS) error {
	return conn(ctx, r.db, tx).Omit("Items.Producto").Create(v).Error
}

func (r *ventaPOSRepo) FindByID(ctx context.Context, id uint) (*model.VentaPOS, error) {
	var v model.VentaPOS
	if err := r.db.WithContext(ctx).Preload("Items").First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ventaPOSRepo) ListByCaja(ctx context.Context, cajaID uint) ([]model.VentaPOS, error) {
	var ventas []model.VentaPOS
	err := r.db.WithContext(ctx).Preload("Items").
		Where("caja_id = ?", cajaID).
		Order("created_at DESC").
		Find(&ventas).Error
	return ventas, err
}
