package infra

import "github.com/prometheus/client_golang/prometheus"

var (
	geocodingLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heladeria_geocoding_lookups_total",
		Help: "Reverse geocoding lookups by result (ok, empty, cache, error, rejected).",
	}, []string{"result"})

	geocodingBreakerState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "heladeria_geocoding_breaker_state",
		Help: "Geocoding circuit breaker state: 0 closed, 1 open, 2 half-open.",
	})
)

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(geocodingLookups, geocodingBreakerState)
}
