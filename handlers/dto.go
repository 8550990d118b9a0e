package handlers

import (
	"time"

	"github.com/padraicbc/trainagenda/scheduling"
)

// Dates travel as YYYY-MM-DD and clock times as HH:MM; they are combined
// into one UTC instant before reaching the service.

type windowRequest struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Start    string `json:"start" validate:"required,datetime=15:04"`
	End      string `json:"end" validate:"required,datetime=15:04"`
	Location string `json:"location" validate:"required"`
}

func (w windowRequest) slotInput() (scheduling.SlotInput, error) {
	start, err := scheduling.CombineDateTime(w.Date, w.Start)
	if err != nil {
		return scheduling.SlotInput{}, err
	}
	end, err := scheduling.CombineDateTime(w.Date, w.End)
	if err != nil {
		return scheduling.SlotInput{}, err
	}
	return scheduling.SlotInput{Start: start, End: end, Location: w.Location}, nil
}

// optWindow is a window that may be left out entirely.
type optWindow struct {
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Start    string `json:"start" validate:"omitempty,datetime=15:04"`
	End      string `json:"end" validate:"omitempty,datetime=15:04"`
	Location string `json:"location"`
}

func (w optWindow) slotInput() (*scheduling.SlotInput, error) {
	if w.Date == "" && w.Start == "" && w.End == "" {
		return nil, nil
	}
	in, err := windowRequest(w).slotInput()
	if err != nil {
		return nil, err
	}
	return &in, nil
}

type agendaEventFields struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Capacity *int   `json:"capacity" validate:"omitempty,gte=0"`
	windowRequest
}

func (f agendaEventFields) classInput() (scheduling.ClassInput, error) {
	w, err := f.slotInput()
	if err != nil {
		return scheduling.ClassInput{}, err
	}
	name := f.Name
	if name == "" {
		name = f.Title
	}
	return scheduling.ClassInput{
		Name:     name,
		Type:     f.Type,
		Start:    w.Start,
		End:      w.End,
		Location: w.Location,
		Capacity: f.Capacity,
	}, nil
}

type createAgendaEventRequest struct {
	EventType string `json:"eventType" validate:"required,oneof=class evaluation"`
	agendaEventFields
}

type updateAgendaEventRequest struct {
	EventType string `json:"eventType" validate:"omitempty,oneof=class evaluation"`
	agendaEventFields
}

type measurementRequest struct {
	Type  string  `json:"type" validate:"required"`
	Value float64 `json:"value" validate:"gte=0"`
	Unit  string  `json:"unit"`
}

func measurementsIn(in []measurementRequest) []scheduling.Measurement {
	if in == nil {
		return nil
	}
	out := make([]scheduling.Measurement, len(in))
	for i, m := range in {
		out[i] = scheduling.Measurement{Type: m.Type, Value: m.Value, Unit: m.Unit}
	}
	return out
}

type bookingFields struct {
	Notes          string               `json:"notes"`
	Objectives     []string             `json:"objectives"`
	Restrictions   []string             `json:"restrictions"`
	MedicalHistory string               `json:"medicalHistory"`
	Measurements   []measurementRequest `json:"measurements" validate:"omitempty,dive"`
}

func (f bookingFields) input(memberID string) scheduling.BookingInput {
	return scheduling.BookingInput{
		MemberID:       memberID,
		Notes:          f.Notes,
		Objectives:     f.Objectives,
		Restrictions:   f.Restrictions,
		MedicalHistory: f.MedicalHistory,
		Measurements:   measurementsIn(f.Measurements),
	}
}

type slotRequest struct {
	windowRequest
	MemberID string `json:"memberId"`
	bookingFields
}

type createBookingRequest struct {
	MemberID string `json:"memberId" validate:"required"`
	SlotID   string `json:"slotId"`
	optWindow
	bookingFields
}

type updateBookingRequest struct {
	Notes          *string               `json:"notes"`
	Objectives     *[]string             `json:"objectives"`
	Restrictions   *[]string             `json:"restrictions"`
	MedicalHistory *string               `json:"medicalHistory"`
	Status         *string               `json:"status" validate:"omitempty,oneof=booked attended cancelled"`
	SlotID         *string               `json:"slotId"`
	Measurements   *[]measurementRequest `json:"measurements"`
	optWindow
}

func (r updateBookingRequest) patch() (scheduling.BookingPatch, error) {
	p := scheduling.BookingPatch{
		Notes:          r.Notes,
		Objectives:     r.Objectives,
		Restrictions:   r.Restrictions,
		MedicalHistory: r.MedicalHistory,
		SlotID:         r.SlotID,
	}
	if r.Status != nil {
		st := scheduling.BookingStatus(*r.Status)
		p.Status = &st
	}
	if r.Measurements != nil {
		ms := measurementsIn(*r.Measurements)
		if ms == nil {
			ms = []scheduling.Measurement{}
		}
		p.Measurements = &ms
	}
	w, err := r.slotInput()
	if err != nil {
		return p, err
	}
	p.Slot = w
	return p, nil
}

type pageResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type slotResponse struct {
	ID        string `json:"id"`
	TrainerID string `json:"trainerId"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Location  string `json:"location"`
}

func newSlotResponse(s scheduling.Slot) slotResponse {
	return slotResponse{
		ID:        s.ID,
		TrainerID: s.TrainerID,
		Start:     scheduling.FormatInstant(s.Start),
		End:       scheduling.FormatInstant(s.End),
		Location:  s.Location,
	}
}

type memberResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type measurementResponse struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

type bookingResponse struct {
	ID             string                `json:"id"`
	SlotID         string                `json:"slotId"`
	MemberID       string                `json:"memberId"`
	Status         string                `json:"status"`
	CheckInAt      *string               `json:"checkInAt,omitempty"`
	Notes          string                `json:"notes"`
	Objectives     []string              `json:"objectives"`
	Restrictions   []string              `json:"restrictions"`
	MedicalHistory string                `json:"medicalHistory"`
	CreatedAt      string                `json:"createdAt"`
	UpdatedAt      string                `json:"updatedAt"`
	Slot           slotResponse          `json:"slot"`
	Member         *memberResponse       `json:"member,omitempty"`
	Measurements   *[]measurementResponse `json:"measurements,omitempty"`
}

func newBookingResponse(d scheduling.BookingDetail) bookingResponse {
	b := d.Booking
	out := bookingResponse{
		ID:             b.ID,
		SlotID:         b.SlotID,
		MemberID:       b.MemberID,
		Status:         string(b.Status),
		Notes:          b.Notes,
		Objectives:     orEmpty(b.Objectives),
		Restrictions:   orEmpty(b.Restrictions),
		MedicalHistory: b.MedicalHistory,
		CreatedAt:      scheduling.FormatInstant(b.CreatedAt),
		UpdatedAt:      scheduling.FormatInstant(b.UpdatedAt),
		Slot:           newSlotResponse(d.Slot),
	}
	if b.CheckInAt != nil {
		at := scheduling.FormatInstant(*b.CheckInAt)
		out.CheckInAt = &at
	}
	if d.Member != nil {
		out.Member = &memberResponse{ID: d.Member.ID, Name: d.Member.Name, Email: d.Member.Email}
	}
	// Lists carry no measurements (nil); a detail with none renders [].
	if d.Measurements != nil {
		ms := make([]measurementResponse, 0, len(d.Measurements))
		for _, m := range d.Measurements {
			ms = append(ms, measurementResponse{Type: m.Type, Value: m.Value, Unit: m.Unit})
		}
		out.Measurements = &ms
	}
	return out
}

type classResponse struct {
	ID             string `json:"id"`
	TrainerID      string `json:"trainerId"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Location       string `json:"location"`
	Capacity       int    `json:"capacity"`
	LiveBookings   int    `json:"liveBookings"`
	SeatsAvailable int    `json:"seatsAvailable"`
}

func newClassResponse(v scheduling.ClassView) classResponse {
	c := v.Class
	return classResponse{
		ID:             c.ID,
		TrainerID:      c.TrainerID,
		Name:           c.Name,
		Type:           c.Type,
		Start:          scheduling.FormatInstant(c.Start),
		End:            scheduling.FormatInstant(c.End),
		Location:       c.Location,
		Capacity:       c.Capacity,
		LiveBookings:   v.LiveBookings,
		SeatsAvailable: v.SeatsAvailable,
	}
}

type agendaEventResponse struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	TrainerID      string `json:"trainerId"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Location       string `json:"location"`
	Kind           string `json:"kind"`
	Capacity       *int   `json:"capacity,omitempty"`
	SeatsAvailable *int   `json:"seatsAvailable,omitempty"`
	MemberID       string `json:"memberId,omitempty"`
	BookingID      string `json:"bookingId,omitempty"`
}

func newAgendaEventResponse(ev scheduling.AgendaEvent) agendaEventResponse {
	return agendaEventResponse{
		ID:             ev.ID,
		Title:          ev.Title,
		TrainerID:      ev.TrainerID,
		Start:          scheduling.FormatInstant(ev.Start),
		End:            scheduling.FormatInstant(ev.End),
		Location:       ev.Location,
		Kind:           string(ev.Kind),
		Capacity:       ev.Capacity,
		SeatsAvailable: ev.SeatsAvailable,
		MemberID:       ev.MemberID,
		BookingID:      ev.BookingID,
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// nextDay turns an inclusive end date into the exclusive bound the store expects.
func nextDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1)
}
