package handler

import (
	"net/http"

	"heladeria/internal/dto"
	"heladeria/internal/middleware"
	"heladeria/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CarritoHandler serves the anonymous cart. The session is the X-Carrito-ID
// header; a fresh one is issued (and echoed back) when the client has none.
type CarritoHandler struct{ svc service.CarritoService }

func NewCarritoHandler(svc service.CarritoService) *CarritoHandler { return &CarritoHandler{svc: svc} }

func sesionCarrito(c *gin.Context) string {
	id := c.GetHeader(middleware.HeaderCarritoID)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	c.Header(middleware.HeaderCarritoID, id)
	return id
}

// Ver godoc
// @Summary Contenido del carrito
// @Tags carrito
// @Produce json
// @Param X-Carrito-ID header string false "Sesion de carrito"
// @Success 200 {object} dto.CarritoResponse
// @Router /v1/carrito [get]
func (h *CarritoHandler) Ver(c *gin.Context) {
	resp, err := h.svc.Ver(c.Request.Context(), sesionCarrito(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Agregar godoc
// @Summary Agrega un producto con sus sabores
// @Tags carrito
// @Accept json
// @Produce json
// @Param X-Carrito-ID header string false "Sesion de carrito"
// @Param body body dto.AgregarItemRequest true "Seleccion"
// @Success 200 {object} dto.CarritoResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/carrito/items [post]
func (h *CarritoHandler) Agregar(c *gin.Context) {
	sesion := sesionCarrito(c)
	var req dto.AgregarItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Agregar(c.Request.Context(), sesion, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CarritoHandler) Quitar(c *gin.Context) {
	resp, err := h.svc.Quitar(c.Request.Context(), sesionCarrito(c), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CarritoHandler) Vaciar(c *gin.Context) {
	if err := h.svc.Vaciar(c.Request.Context(), sesionCarrito(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Checkout godoc
// @Summary Convierte el carrito en un pedido
// @Tags carrito
// @Accept json
// @Produce json
// @Param X-Carrito-ID header string true "Sesion de carrito"
// @Param body body dto.CheckoutRequest true "Datos del cliente"
// @Success 201 {object} dto.PedidoResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/carrito/checkout [post]
func (h *CarritoHandler) Checkout(c *gin.Context) {
	sesion := sesionCarrito(c)
	var req dto.CheckoutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Checkout(c.Request.Context(), sesion, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
