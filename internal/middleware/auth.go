package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"heladeria/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ClaimsKey = "claims"

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// JWTClaims identify a staff member, a delivery rider or an admin.
type JWTClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Rol      string `json:"rol"`
	// Tipo is TokenAccess or TokenRefresh; only access tokens open routes.
	Tipo string `json:"tipo"`
	jwt.RegisteredClaims
}

// ErrSecretoVacio is returned when no signing key is configured.
var ErrSecretoVacio = errors.New("auth: jwt secret vacio")

// ParseToken verifies an HS256 token signed with secret. Clock skew between
// the POS tablets and the server is tolerated up to 30s.
func ParseToken(tokenStr, secret string) (*JWTClaims, error) {
	if secret == "" {
		return nil, ErrSecretoVacio
	}
	claims := &JWTClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30*time.Second),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func bearer(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	// WebSocket handshakes from browsers cannot carry headers
	return c.Query("access_token")
}

// JWTAuth requires a valid access token and stores its claims under ClaimsKey.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearer(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				apierror.WithCode(apierror.CodeCredenciales, "Autenticacion requerida"))
			return
		}
		claims, err := ParseToken(raw, secret)
		if err != nil || claims.Tipo != TokenAccess {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				apierror.WithCode(apierror.CodeCredenciales, "Token invalido o expirado"))
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole lets through only the listed roles. It must run after JWTAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := GetClaims(c); claims != nil {
			for _, r := range roles {
				if claims.Rol == r {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
	}
}

// GetClaims returns the authenticated claims, nil on public routes.
func GetClaims(c *gin.Context) *JWTClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*JWTClaims)
	return claims
}
