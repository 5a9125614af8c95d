// Package geo decides delivery eligibility from raw coordinates: great-circle
// distance to the store, the delivery radius check, the "pin moved too far"
// reconfirmation check and the delivery fee.
package geo

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RadioTierraKm is the mean Earth radius used by HaversineKm.
const RadioTierraKm = 6371.0

// Coordenada is a WGS84 point in decimal degrees.
type Coordenada struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineKm returns the great-circle distance between a and b in kilometers.
// Symmetric and zero for identical points.
func HaversineKm(a, b Coordenada) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * RadioTierraKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// ParseCoordenada converts user input into degrees. Anything non-numeric
// (empty, "abc", NaN, ±Inf) yields 0.0; it never fails.
func ParseCoordenada(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(s, ",", ".")), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0.0
	}
	return f
}

// Tarifa holds the delivery fee knobs. Zero Redondeo disables rounding and
// zero Max disables the cap.
type Tarifa struct {
	Base     decimal.Decimal
	PorKm    decimal.Decimal
	Redondeo decimal.Decimal
	Min      decimal.Decimal
	Max      decimal.Decimal
	KmMin    decimal.Decimal
	KmOffset decimal.Decimal
}

// Gate is the configured geofence. Values are loaded once at start.
type Gate struct {
	Tienda                Coordenada
	RadioKm               float64
	UmbralReconfirmacionM float64
	Tarifa                Tarifa
}

func (g Gate) DistanciaKm(lat, lng float64) float64 {
	return HaversineKm(g.Tienda, Coordenada{Lat: lat, Lng: lng})
}

// DentroDelRadio reports whether the point is at most RadioKm from the store.
// The boundary is inclusive.
func (g Gate) DentroDelRadio(lat, lng float64) bool {
	return g.DistanciaKm(lat, lng) <= g.RadioKm
}

// RequiereReconfirmacion compares the device-reported point with the
// geocoded one and reports whether they are further apart than the threshold.
func (g Gate) RequiereReconfirmacion(dLat, dLng, gLat, gLng float64) bool {
	metros := HaversineKm(Coordenada{Lat: dLat, Lng: dLng}, Coordenada{Lat: gLat, Lng: gLng}) * 1000
	return metros > g.UmbralReconfirmacionM
}

// CostoEnvio prices a delivery of km kilometers:
// base + porKm * max(km+offset, kmMin), rounded up to a multiple of Redondeo
// and clamped to [Min, Max].
func (g Gate) CostoEnvio(km float64) decimal.Decimal {
	t := g.Tarifa
	dist := decimal.NewFromFloat(km).Add(t.KmOffset)
	if dist.LessThan(t.KmMin) {
		dist = t.KmMin
	}
	if dist.IsNegative() {
		dist = decimal.Zero
	}

	costo := t.Base.Add(t.PorKm.Mul(dist))
	if t.Redondeo.IsPositive() {
		costo = costo.Div(t.Redondeo).Ceil().Mul(t.Redondeo)
	}
	if costo.LessThan(t.Min) {
		costo = t.Min
	}
	if t.Max.IsPositive() && costo.GreaterThan(t.Max) {
		costo = t.Max
	}
	return costo.Round(2)
}
