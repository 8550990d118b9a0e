package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/trainagenda/scheduling"
)

// AvailableSlots lists the trainer's evaluation slots that hold no live booking.
func (h *Handler) AvailableSlots(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	slots, err := h.svc.Slots.Available(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]slotResponse, len(slots))
	for i, s := range slots {
		out[i] = newSlotResponse(s)
	}
	return c.JSON(http.StatusOK, out)
}

// CreateSlot opens an evaluation slot. When memberId is given the slot is
// booked for that member in the same transaction.
func (h *Handler) CreateSlot(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req slotRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	in, err := req.slotInput()
	if err != nil {
		return h.fail(c, err)
	}
	ctx := c.Request().Context()

	if memberID := strings.TrimSpace(req.MemberID); memberID != "" {
		d, err := h.svc.Slots.CreateWithBooking(ctx, a, c.Param("id"), in, req.input(memberID))
		if err != nil {
			return h.fail(c, err)
		}
		return c.JSON(http.StatusCreated, newBookingResponse(*d))
	}

	slot, err := h.svc.Slots.Create(ctx, a, c.Param("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, newSlotResponse(*slot))
}

// ListBookings returns a page of evaluation bookings filtered by status, slot
// date range (both ends inclusive) and member name.
func (h *Handler) ListBookings(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	page, limit, err := paging(c)
	if err != nil {
		return err
	}
	f := scheduling.BookingFilter{
		Status: scheduling.BookingStatus(strings.TrimSpace(c.QueryParam("status"))),
		Search: c.QueryParam("search"),
		Page:   page,
		Limit:  limit,
	}
	if from := c.QueryParam("from"); from != "" {
		if f.From, err = scheduling.ParseDate(from); err != nil {
			return h.fail(c, err)
		}
	}
	if to := c.QueryParam("to"); to != "" {
		day, err := scheduling.ParseDate(to)
		if err != nil {
			return h.fail(c, err)
		}
		if !f.From.IsZero() && day.Before(f.From) {
			return echo.NewHTTPError(http.StatusBadRequest, "to must not be before from")
		}
		f.To = nextDay(day)
	}
	f = f.Paged()

	details, total, err := h.svc.Bookings.List(c.Request().Context(), a, c.Param("id"), f)
	if err != nil {
		return h.fail(c, err)
	}
	items := make([]bookingResponse, len(details))
	for i, d := range details {
		items[i] = newBookingResponse(d)
	}
	return c.JSON(http.StatusOK, pageResponse[bookingResponse]{
		Items: items, Total: total, Page: f.Page, Limit: f.Limit,
	})
}

// CreateBooking books an existing slot (slotId) or a new window for a member.
func (h *Handler) CreateBooking(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req createBookingRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	window, err := req.optWindow.slotInput()
	if err != nil {
		return h.fail(c, err)
	}

	d, err := h.svc.Bookings.Create(c.Request().Context(), a, c.Param("id"), scheduling.CreateBookingInput{
		SlotID:       req.SlotID,
		Slot:         window,
		BookingInput: req.input(req.MemberID),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, newBookingResponse(*d))
}

// GetBooking returns one booking with its slot, member and measurements.
func (h *Handler) GetBooking(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Bookings.Get(c.Request().Context(), a, c.Param("id"), c.Param("bookingId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newBookingResponse(*d))
}

// UpdateBooking patches a booking. A measurements array replaces the stored set.
func (h *Handler) UpdateBooking(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req updateBookingRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	patch, err := req.patch()
	if err != nil {
		return h.fail(c, err)
	}
	d, err := h.svc.Bookings.Update(c.Request().Context(), a, c.Param("id"), c.Param("bookingId"), patch)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newBookingResponse(*d))
}

// DeleteBooking removes a booking permanently.
func (h *Handler) DeleteBooking(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	if err := h.svc.Bookings.Delete(c.Request().Context(), a, c.Param("id"), c.Param("bookingId")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
