package repository

import (
	"context"
	"errors"

	"heladeria/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const tiendaConfigID = 1

// TiendaRepository persists the single store settings row.
type TiendaRepository interface {
	// GetAbierta returns (nil, nil) while the row has never been written.
	GetAbierta(ctx context.Context) (*bool, error)
	SetAbierta(ctx context.Context, abierta bool) error
}

type tiendaRepo struct{ db *gorm.DB }

func NewTiendaRepository(db *gorm.DB) TiendaRepository { return &tiendaRepo{db: db} }

func (r *tiendaRepo) GetAbierta(ctx context.Context) (*bool, error) {
	var cfg model.TiendaConfig
	err := r.db.WithContext(ctx).First(&cfg, tiendaConfigID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg.Abierta, nil
}

func (r *tiendaRepo) SetAbierta(ctx context.Context, abierta bool) error {
	cfg := model.TiendaConfig{ID: tiendaConfigID, Abierta: abierta}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"abierta", "updated_at"}),
	}).Create(&cfg).Error
}
