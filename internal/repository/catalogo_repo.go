package repository

import (
	"context"
	"errors"

	"heladeria/internal/model"

	"gorm.io/gorm"
)

// CatalogoRepository reads products, categories and flavors. Finders that
// take tx join the caller's transaction; pass nil to use the pool.
type CatalogoRepository interface {
	FindProducto(ctx context.Context, tx *gorm.DB, id uint) (*model.Producto, error)
	// FindSabores is lenient: unknown ids are silently dropped.
	FindSabores(ctx context.Context, tx *gorm.DB, ids []uint) ([]model.Sabor, error)
	ListCategorias(ctx context.Context) ([]model.Categoria, error)
	ListProductos(ctx context.Context) ([]model.Producto, error)
	ListSabores(ctx context.Context) ([]model.Sabor, error)
	DeleteProducto(ctx context.Context, id uint) error
}

type catalogoRepo struct{ db *gorm.DB }

func NewCatalogoRepository(db *gorm.DB) CatalogoRepository { return &catalogoRepo{db: db} }

func (r *catalogoRepo) FindProducto(ctx context.Context, tx *gorm.DB, id uint) (*model.Producto, error) {
	var p model.Producto
	err := conn(ctx, r.db, tx).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *catalogoRepo) FindSabores(ctx context.Context, tx *gorm.DB, ids []uint) ([]model.Sabor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var sabores []model.Sabor
	err := conn(ctx, r.db, tx).Where("id IN ?", ids).Order("id ASC").Find(&sabores).Error
	return sabores, err
}

func (r *catalogoRepo) ListCategorias(ctx context.Context) ([]model.Categoria, error) {
	var cats []model.Categoria
	err := r.db.WithContext(ctx).Where("disponible = true").Order("orden ASC, nombre ASC").Find(&cats).Error
	return cats, err
}

func (r *catalogoRepo) ListProductos(ctx context.Context) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).Where("disponible = true").Order("nombre ASC").Find(&productos).Error
	return productos, err
}

func (r *catalogoRepo) ListSabores(ctx context.Context) ([]model.Sabor, error) {
	var sabores []model.Sabor
	err := r.db.WithContext(ctx).Where("disponible = true").Order("nombre ASC").Find(&sabores).Error
	return sabores, err
}

// DeleteProducto fails with ErrEnUso while any order line references the product.
func (r *catalogoRepo) DeleteProducto(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Producto{}, id)
	if res.Error != nil {
		return mapPgError(res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsNotFound reports whether err is GORM's record-not-found.
func IsNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }
