package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/padraicbc/trainagenda/scheduling"
)

const claimsKey = "claims"

// Claims extends jwt.RegisteredClaims with the caller's identity.
type Claims struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWT returns an Echo middleware that validates the Authorization header token
// using the provided signing key. Both "Bearer <token>" and a bare token are
// accepted.
func JWT(key []byte) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			claims := &Claims{}
			tkn, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
				return key, nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims.UserID == "" || claims.TenantID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token carries no identity")
			}

			c.Set(claimsKey, claims)
			c.Set("username", claims.Username)
			return next(c)
		}
	}
}

// ActorFrom returns the authenticated caller stored by JWT.
func ActorFrom(c echo.Context) (scheduling.Actor, bool) {
	claims, ok := c.Get(claimsKey).(*Claims)
	if !ok {
		return scheduling.Actor{}, false
	}
	return scheduling.Actor{UserID: claims.UserID, TenantID: claims.TenantID, Role: claims.Role}, true
}
