package handler

import (
	"net/http"

	"heladeria/internal/dto"
	"heladeria/internal/service"

	"github.com/gin-gonic/gin"
)

type TiendaHandler struct {
	tienda service.TiendaService
	menu   service.MenuService
}

func NewTiendaHandler(tienda service.TiendaService, menu service.MenuService) *TiendaHandler {
	return &TiendaHandler{tienda: tienda, menu: menu}
}

func (h *TiendaHandler) GetEstado(c *gin.Context) {
	c.JSON(http.StatusOK, dto.EstadoTiendaResponse{Abierta: h.tienda.Abierta(c.Request.Context())})
}

// SetEstado godoc
// @Summary Abre o cierra la tienda para pedidos online
// @Tags tienda
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.EstadoTiendaRequest true "Estado"
// @Success 200 {object} dto.EstadoTiendaResponse
// @Router /v1/tienda/estado [put]
func (h *TiendaHandler) SetEstado(c *gin.Context) {
	var req dto.EstadoTiendaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.tienda.SetAbierta(c.Request.Context(), *req.Abierta); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.EstadoTiendaResponse{Abierta: *req.Abierta})
}

// Menu godoc
// @Summary Menu publico: categorias, productos disponibles y sabores
// @Tags menu
// @Produce json
// @Success 200 {object} dto.MenuResponse
// @Router /v1/menu [get]
func (h *TiendaHandler) Menu(c *gin.Context) {
	resp, err := h.menu.Menu(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
