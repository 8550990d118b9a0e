package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/trainagenda/scheduling"
)

var testKey = []byte("test-secret")

func sign(t *testing.T, method jwt.SigningMethod, key any, claims *Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() *Claims {
	return &Claims{
		Username: "ana",
		UserID:   "u1",
		TenantID: "acme",
		Role:     scheduling.RoleTrainer,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func serve(t *testing.T, auth string) (*httptest.ResponseRecorder, *scheduling.Actor) {
	t.Helper()
	e := echo.New()
	var got *scheduling.Actor
	e.GET("/p", func(c echo.Context) error {
		a, ok := ActorFrom(c)
		require.True(t, ok)
		got = &a
		return c.NoContent(http.StatusNoContent)
	}, JWT(testKey))

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, got
}

func TestJWTAcceptsBearerAndBareTokens(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, testKey, validClaims())

	for _, auth := range []string{"Bearer " + token, token} {
		rec, actor := serve(t, auth)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, actor)
		assert.Equal(t, scheduling.Actor{UserID: "u1", TenantID: "acme", Role: "trainer"}, *actor)
	}
}

func TestJWTRejects(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	anonymous := validClaims()
	anonymous.UserID = ""

	cases := map[string]string{
		"missing":      "",
		"garbage":      "Bearer not-a-token",
		"wrong key":    "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), validClaims()),
		"wrong method": "Bearer " + sign(t, jwt.SigningMethodHS512, testKey, validClaims()),
		"expired":      "Bearer " + sign(t, jwt.SigningMethodHS256, testKey, expired),
		"no identity":  "Bearer " + sign(t, jwt.SigningMethodHS256, testKey, anonymous),
	}
	for name, auth := range cases {
		t.Run(name, func(t *testing.T) {
			rec, actor := serve(t, auth)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, actor)
		})
	}
}
