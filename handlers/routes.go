package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mw "github.com/padraicbc/trainagenda/middleware"
)

// Register mounts the public and JWT-protected routes on e.
func (h *Handler) Register(e *echo.Echo) {
	e.Validator = NewRequestValidator()

	// Public
	e.POST("/signin", h.Signin)
	e.GET("/healthz", h.Health)

	// Protected – require valid JWT in Authorization header
	tr := e.Group("/trainers/:id", mw.JWT(h.JWTKey))

	tr.GET("/agenda", h.GetAgenda)
	tr.POST("/agenda", h.CreateAgendaEvent)
	tr.PUT("/agenda/:eventId", h.UpdateAgendaEvent)
	tr.DELETE("/agenda/:eventId", h.DeleteAgendaEvent)
	tr.GET("/classes/:classId", h.GetClass)

	tr.GET("/avaliacoes/slots", h.AvailableSlots)
	tr.POST("/avaliacoes/slots", h.CreateSlot)
	tr.GET("/avaliacoes", h.ListBookings)
	tr.POST("/avaliacoes", h.CreateBooking)
	tr.GET("/avaliacoes/:bookingId", h.GetBooking)
	tr.PUT("/avaliacoes/:bookingId", h.UpdateBooking)
	tr.DELETE("/avaliacoes/:bookingId", h.DeleteBooking)
}

// Health reports liveness.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
