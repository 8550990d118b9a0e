// Package scheduling implements trainer agenda scheduling: evaluation slots,
// evaluation bookings, group classes and the merged per-trainer agenda.
package scheduling

import "time"

// BookingStatus is the lifecycle state of an evaluation booking.
type BookingStatus string

const (
	StatusBooked    BookingStatus = "booked"
	StatusAttended  BookingStatus = "attended"
	StatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusBooked, StatusAttended, StatusCancelled:
		return true
	}
	return false
}

// Live reports whether a booking in this status still holds its slot.
func (s BookingStatus) Live() bool {
	return s != StatusCancelled
}

// EventKind tags the origin of an agenda event.
type EventKind string

const (
	KindClass      EventKind = "class"
	KindEvaluation EventKind = "evaluation"
)

// Roles understood by the write-side authorization check.
const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleTrainer = "trainer"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID   string
	TenantID string
	Role     string
}

type Trainer struct {
	ID       string
	UserID   string
	TenantID string
	Name     string
}

type Member struct {
	ID       string
	TenantID string
	Name     string
	Email    string
}

// Slot is a bounded time window offered by a trainer for a physical evaluation.
type Slot struct {
	ID        string
	TrainerID string
	TenantID  string
	Start     time.Time
	End       time.Time
	Location  string
}

// Booking is a member's reservation against an evaluation slot.
type Booking struct {
	ID             string
	SlotID         string
	MemberID       string
	TenantID       string
	Status         BookingStatus
	CheckInAt      *time.Time
	Notes          string
	Objectives     []string
	Restrictions   []string
	MedicalHistory string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Measurement is one typed numeric value recorded during an evaluation,
// e.g. weight or waist circumference.
type Measurement struct {
	Type  string
	Value float64
	Unit  string
}

// Class is a capacity-bounded group session.
type Class struct {
	ID        string
	TrainerID string
	TenantID  string
	Name      string
	Type      string
	Start     time.Time
	End       time.Time
	Location  string
	Capacity  int
}

// ClassBooking references a class; it is created by the member-facing flow.
type ClassBooking struct {
	ID       string
	ClassID  string
	MemberID string
	TenantID string
	Status   BookingStatus
}

// ClassBookingCount summarises the bookings that reference one class.
type ClassBookingCount struct {
	Total int
	Live  int
}

// AgendaEvent is the uniform projection of a class or an evaluation booking.
type AgendaEvent struct {
	ID             string
	Title          string
	TrainerID      string
	Start          time.Time
	End            time.Time
	Location       string
	Kind           EventKind
	Capacity       *int
	SeatsAvailable *int
	MemberID       string
	BookingID      string
}
