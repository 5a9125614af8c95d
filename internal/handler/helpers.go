package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"heladeria/internal/apierror"
	"heladeria/internal/middleware"
	"heladeria/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros invalidos: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps service sentinels to status codes. Anything unknown is
// handed to the ErrorHandler middleware, which logs it and answers 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.WithCode(apierror.CodeNoEncontrado, err.Error()))
	case errors.Is(err, service.ErrValidacion):
		c.JSON(http.StatusUnprocessableEntity, apierror.WithCode(apierror.CodeValidacion, err.Error()))
	case errors.Is(err, service.ErrCajaYaAbierta):
		c.JSON(http.StatusConflict, apierror.WithCode(apierror.CodeCajaYaAbierta, err.Error()))
	case errors.Is(err, service.ErrCajaNoAbierta):
		c.JSON(http.StatusConflict, apierror.WithCode(apierror.CodeCajaNoAbierta, err.Error()))
	case errors.Is(err, service.ErrEstadoInvalido):
		c.JSON(http.StatusConflict, apierror.WithCode(apierror.CodeEstadoInvalido, err.Error()))
	case errors.Is(err, service.ErrEnUso):
		c.JSON(http.StatusConflict, apierror.WithCode(apierror.CodeEnUso, err.Error()))
	case errors.Is(err, service.ErrCredenciales):
		c.JSON(http.StatusUnauthorized, apierror.WithCode(apierror.CodeCredenciales, "Credenciales invalidas"))
	default:
		_ = c.Error(err)
	}
}

// paramID parses a positive numeric path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return 0, false
	}
	return uint(id), true
}

// usuarioID is the authenticated staff member, nil on public routes.
func usuarioID(c *gin.Context) *uint {
	claims := middleware.GetClaims(c)
	if claims == nil || claims.UserID == 0 {
		return nil
	}
	id := claims.UserID
	return &id
}
