package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/trainagenda/scheduling"
)

// GetAgenda returns one page of the trainer's merged classes and booked
// evaluations.
func (h *Handler) GetAgenda(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	page, limit, err := paging(c)
	if err != nil {
		return err
	}

	q := h.svc.Agenda.Normalize(scheduling.AgendaQuery{Page: page, Limit: limit})
	events, total, err := h.svc.Agenda.Get(c.Request().Context(), a, c.Param("id"), q)
	if err != nil {
		return h.fail(c, err)
	}

	items := make([]agendaEventResponse, len(events))
	for i, ev := range events {
		items[i] = newAgendaEventResponse(ev)
	}
	return c.JSON(http.StatusOK, pageResponse[agendaEventResponse]{
		Items: items, Total: total, Page: q.Page, Limit: q.Limit,
	})
}

// CreateAgendaEvent creates a class or an evaluation slot depending on eventType.
func (h *Handler) CreateAgendaEvent(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req createAgendaEventRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	if req.EventType == string(scheduling.KindClass) {
		in, err := req.classInput()
		if err != nil {
			return h.fail(c, err)
		}
		view, err := h.svc.Classes.Create(ctx, a, c.Param("id"), in)
		if err != nil {
			return h.fail(c, err)
		}
		return c.JSON(http.StatusCreated, newClassResponse(*view))
	}

	in, err := req.slotInput()
	if err != nil {
		return h.fail(c, err)
	}
	slot, err := h.svc.Slots.Create(ctx, a, c.Param("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, newSlotResponse(*slot))
}

// UpdateAgendaEvent updates a class, or the evaluation slot with that id when
// no class matches.
func (h *Handler) UpdateAgendaEvent(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req updateAgendaEventRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	trainerID, eventID := c.Param("id"), c.Param("eventId")

	isClass := req.EventType == string(scheduling.KindClass)
	if req.EventType == "" {
		_, err := h.svc.Classes.Get(ctx, a, trainerID, eventID)
		switch {
		case err == nil:
			isClass = true
		case !errors.Is(err, scheduling.ErrNotFound):
			return h.fail(c, err)
		}
	}

	if isClass {
		in, err := req.classInput()
		if err != nil {
			return h.fail(c, err)
		}
		view, err := h.svc.Classes.Update(ctx, a, trainerID, eventID, in)
		if err != nil {
			return h.fail(c, err)
		}
		return c.JSON(http.StatusOK, newClassResponse(*view))
	}

	in, err := req.slotInput()
	if err != nil {
		return h.fail(c, err)
	}
	slot, err := h.svc.Slots.Update(ctx, a, trainerID, eventID, in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newSlotResponse(*slot))
}

// DeleteAgendaEvent removes a class or slot. With isBooking=true it cancels
// the evaluation booking instead, or deletes it when permanent=true.
func (h *Handler) DeleteAgendaEvent(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var (
		isBooking bool
		permanent bool
		bookingID string
	)
	if err := echo.QueryParamsBinder(c).
		Bool("isBooking", &isBooking).
		Bool("permanent", &permanent).
		String("bookingId", &bookingID).
		BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "isBooking and permanent must be true or false")
	}
	ctx := c.Request().Context()
	trainerID, eventID := c.Param("id"), c.Param("eventId")

	if isBooking {
		if bookingID == "" {
			bookingID = eventID
		}
		if permanent {
			if err := h.svc.Bookings.Delete(ctx, a, trainerID, bookingID); err != nil {
				return h.fail(c, err)
			}
			return c.NoContent(http.StatusNoContent)
		}
		d, err := h.svc.Bookings.Cancel(ctx, a, trainerID, bookingID)
		if err != nil {
			return h.fail(c, err)
		}
		return c.JSON(http.StatusOK, newBookingResponse(*d))
	}

	err = h.svc.Classes.Delete(ctx, a, trainerID, eventID)
	if errors.Is(err, scheduling.ErrNotFound) {
		err = h.svc.Slots.Delete(ctx, a, trainerID, eventID)
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetClass returns one class with its remaining seats.
func (h *Handler) GetClass(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	view, err := h.svc.Classes.Get(c.Request().Context(), a, c.Param("id"), c.Param("classId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newClassResponse(*view))
}

func paging(c echo.Context) (page, limit int, err error) {
	for name, dst := range map[string]*int{"page": &page, "limit": &limit} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 0 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a non-negative integer")
		}
		*dst = n
	}
	return page, limit, nil
}
