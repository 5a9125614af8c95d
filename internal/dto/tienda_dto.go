package dto

import "github.com/shopspring/decimal"

// ─── Tienda ──────────────────────────────────────────────────────────────────

type EstadoTiendaRequest struct {
	Abierta *bool `json:"abierta" validate:"required"`
}

type EstadoTiendaResponse struct {
	Abierta bool `json:"abierta"`
}

// ─── Menu ────────────────────────────────────────────────────────────────────

type CategoriaMenu struct {
	ID          uint    `json:"id"`
	Nombre      string  `json:"nombre"`
	Descripcion *string `json:"descripcion"`
}

type ProductoMenu struct {
	ID             uint            `json:"id"`
	CategoriaID    *uint           `json:"categoria_id"`
	Nombre         string          `json:"nombre"`
	Descripcion    *string         `json:"descripcion"`
	Precio         decimal.Decimal `json:"precio"`
	SaboresMaximos int             `json:"sabores_maximos"`
	Imagen         *string         `json:"imagen"`
}

type SaborMenu struct {
	ID     uint   `json:"id"`
	Nombre string `json:"nombre"`
}

type MenuResponse struct {
	TiendaAbierta bool            `json:"tienda_abierta"`
	Categorias    []CategoriaMenu `json:"categorias"`
	Productos     []ProductoMenu  `json:"productos"`
	Sabores       []SaborMenu     `json:"sabores"`
}

// ─── Geo ─────────────────────────────────────────────────────────────────────

type GeoVerificacionResponse struct {
	DistanciaKm            float64         `json:"distancia_km"`
	DentroDelRadio         bool            `json:"dentro_del_radio"`
	RadioKm                float64         `json:"radio_km"`
	CostoEnvio             decimal.Decimal `json:"costo_envio"`
	RequiereReconfirmacion bool            `json:"requiere_reconfirmacion"`
	Direccion              string          `json:"direccion"`
}
