package handler

import (
	"net/http"

	"heladeria/internal/middleware"
	"heladeria/internal/service"
	"heladeria/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type AdminHandler struct {
	ledger service.LedgerService
	menu   service.MenuService
	rdb    *redis.Client
}

func NewAdminHandler(ledger service.LedgerService, menu service.MenuService, rdb *redis.Client) *AdminHandler {
	return &AdminHandler{ledger: ledger, menu: menu, rdb: rdb}
}

// DedupeLedger godoc
// @Summary Elimina movimientos VENTA duplicados y asegura el indice unico
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int64
// @Router /v1/admin/ledger/dedupe [post]
func (h *AdminHandler) DedupeLedger(c *gin.Context) {
	n, err := h.ledger.DedupeRepair(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	log.Info().Int64("eliminados", n).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("admin: dedupe de libro ejecutado")
	c.JSON(http.StatusOK, gin.H{"eliminados": n})
}

// EliminarProducto godoc
// @Summary Elimina un producto del catalogo
// @Description Falla con 409 si algun pedido lo referencia.
// @Tags admin
// @Security BearerAuth
// @Param id path int true "ID de producto"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/admin/productos/{id} [delete]
func (h *AdminHandler) EliminarProducto(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.menu.EliminarProducto(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListarDLQ godoc
// @Summary Trabajos de geocodificacion que agotaron sus reintentos
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} worker.DLQEntry
// @Router /v1/admin/dlq [get]
func (h *AdminHandler) ListarDLQ(c *gin.Context) {
	entries, err := worker.ListDLQ(c.Request.Context(), h.rdb, worker.QueueGeocodificacion, 100)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *AdminHandler) ReintentarDLQ(c *gin.Context) {
	n, err := worker.RequeueDLQ(c.Request.Context(), h.rdb, worker.QueueGeocodificacion)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Info().Int("reencolados", n).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("admin: dlq reencolada")
	c.JSON(http.StatusOK, gin.H{"reencolados": n})
}
