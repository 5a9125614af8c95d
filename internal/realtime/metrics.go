package realtime

import "github.com/prometheus/client_golang/prometheus"

var (
	clientesConectados = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "heladeria_realtime_clients",
		Help: "Connected realtime websocket clients.",
	})
	mensajesDescartados = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "heladeria_realtime_dropped_messages_total",
		Help: "Realtime messages dropped because a client queue was full.",
	})
)

// RegisterMetrics adds the realtime collectors to reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(clientesConectados, mensajesDescartados)
}
