// Package apierror holds the JSON envelopes for 4xx/5xx responses. Handlers
// never serialize raw errors; DB and driver messages stay in the logs.
package apierror

// APIError is the body of every error response. Code, when set, is a stable
// identifier the storefront and the POS switch on (the Detail text may change).
type APIError struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
	// RequestID is set on 500s so a report can be matched to the logs.
	RequestID string `json:"request_id,omitempty"`
}

// Codes clients depend on.
const (
	CodeNoEncontrado   = "no_encontrado"
	CodeValidacion     = "validacion"
	CodeCajaYaAbierta  = "caja_ya_abierta"
	CodeCajaNoAbierta  = "caja_no_abierta"
	CodeEstadoInvalido = "estado_invalido"
	CodeEnUso          = "en_uso"
	CodeCredenciales   = "credenciales"
	CodeLimiteExcedido = "limite_excedido"
	CodeInterno        = "interno"
)

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

func WithCode(code, msg string) *APIError {
	return &APIError{Detail: msg, Code: code}
}

// Interno is the body of every 500. It never carries the underlying error.
func Interno(requestID string) *APIError {
	return &APIError{Detail: "Error interno del servidor", Code: CodeInterno, RequestID: requestID}
}

// ValidationError lists the offending fields and the tag each one failed.
type ValidationError struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Code: CodeValidacion, Fields: fields}
}
