package model

import (
	"time"
)

// Usuario stores staff accounts.
// Rol: "staff" | "cadete" | "admin"
type Usuario struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"type:varchar(150);uniqueIndex;not null"`
	Nombre       string `gorm:"not null"`
	PasswordHash string `gorm:"not null"`
	Rol          string `gorm:"type:varchar(20);not null"`
	Activo       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Usuario) TableName() string { return "usuarios" }

const (
	RolStaff  = "staff"
	RolCadete = "cadete"
	RolAdmin  = "admin"
)

// TiendaConfig is the single settings row holding the store open flag.
type TiendaConfig struct {
	ID        uint `gorm:"primaryKey"`
	Abierta   bool `gorm:"not null;default:true"`
	UpdatedAt time.Time
}

func (TiendaConfig) TableName() string { return "tienda_config" }
