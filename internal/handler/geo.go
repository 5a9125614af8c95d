package handler

import (
	"context"
	"net/http"

	"heladeria/internal/dto"
	"heladeria/internal/geo"
	"heladeria/internal/infra"

	"github.com/gin-gonic/gin"
)

// Geocoder is the reverse lookup used to show the customer a readable
// address. *infra.GeocodingClient satisfies it.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (infra.Direccion, error)
}

type GeoHandler struct {
	gate     geo.Gate
	geocoder Geocoder // optional
}

func NewGeoHandler(gate geo.Gate, geocoder Geocoder) *GeoHandler {
	return &GeoHandler{gate: gate, geocoder: geocoder}
}

// Verificar godoc
// @Summary Distancia, cobertura y costo de envio para un punto
// @Description Coordenadas no numericas se toman como 0. geo_lat/geo_lng, si
// @Description se envian, son el punto geocodificado de la direccion escrita.
// @Tags geo
// @Produce json
// @Param lat query string true "Latitud del dispositivo"
// @Param lng query string true "Longitud del dispositivo"
// @Param geo_lat query string false "Latitud geocodificada"
// @Param geo_lng query string false "Longitud geocodificada"
// @Success 200 {object} dto.GeoVerificacionResponse
// @Router /v1/geo/verificar [get]
func (h *GeoHandler) Verificar(c *gin.Context) {
	lat := geo.ParseCoordenada(c.Query("lat"))
	lng := geo.ParseCoordenada(c.Query("lng"))
	km := h.gate.DistanciaKm(lat, lng)

	resp := dto.GeoVerificacionResponse{
		DistanciaKm:    km,
		DentroDelRadio: h.gate.DentroDelRadio(lat, lng),
		RadioKm:        h.gate.RadioKm,
		CostoEnvio:     h.gate.CostoEnvio(km),
	}
	if gLat, okLat := c.GetQuery("geo_lat"); okLat {
		gLng := c.Query("geo_lng")
		resp.RequiereReconfirmacion = h.gate.RequiereReconfirmacion(
			lat, lng, geo.ParseCoordenada(gLat), geo.ParseCoordenada(gLng))
	}
	if h.geocoder != nil {
		// Best effort: the check answers without an address
		if dir, err := h.geocoder.Reverse(c.Request.Context(), lat, lng); err == nil {
			resp.Direccion = dir.FormattedAddress
		}
	}
	c.JSON(http.StatusOK, resp)
}
