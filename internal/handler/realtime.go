package handler

import (
	"heladeria/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Notificaciones upgrades to a WebSocket subscribed to grupo. The JWT check
// runs before it in the route chain.
func Notificaciones(hub *realtime.Hub, grupo string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := hub.Serve(c.Writer, c.Request, grupo); err != nil {
			// The upgrader has already answered the client
			log.Warn().Err(err).Str("grupo", grupo).Msg("realtime: upgrade fallo")
		}
	}
}
