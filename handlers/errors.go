package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	mw "github.com/padraicbc/trainagenda/middleware"
	"github.com/padraicbc/trainagenda/scheduling"
)

// fail converts a service error into the HTTP error returned to the client.
// Anything that is not a scheduling error kind is logged and hidden.
func (h *Handler) fail(c echo.Context, err error) error {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, scheduling.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, scheduling.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, scheduling.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, scheduling.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	h.log.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

func actor(c echo.Context) (scheduling.Actor, error) {
	a, ok := mw.ActorFrom(c)
	if !ok {
		return scheduling.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return a, nil
}
