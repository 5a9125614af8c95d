package model

import (
	"github.com/shopspring/decimal"
)

// Categoria groups products on the menu (potes, tortas, palitos).
type Categoria struct {
	ID          uint   `gorm:"primaryKey"`
	Nombre      string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Descripcion *string
	Orden       int  `gorm:"not null;default:0"`
	Disponible  bool `gorm:"not null;default:true"`
}

func (Categoria) TableName() string { return "categorias" }

// Sabor is an ice-cream flavor. Order lines reference flavors, never own them.
type Sabor struct {
	ID         uint   `gorm:"primaryKey"`
	Nombre     string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Disponible bool   `gorm:"not null;default:true"`
}

func (Sabor) TableName() string { return "sabores" }

// Producto is a sellable product type ("Pote 1.5Kg", "Palito Bombon").
// SaboresMaximos = 0 means the product takes no flavor choice.
type Producto struct {
	ID             uint   `gorm:"primaryKey"`
	CategoriaID    *uint  `gorm:"index"`
	Nombre         string `gorm:"type:varchar(100);not null"`
	Descripcion    *string
	Precio         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	SaboresMaximos int             `gorm:"not null;default:0"`
	Disponible     bool            `gorm:"not null;default:true"`
	Imagen         *string         `gorm:"type:varchar(255)"`

	Categoria *Categoria `gorm:"foreignKey:CategoriaID;constraint:OnDelete:SET NULL"`
}

func (Producto) TableName() string { return "productos" }
