package scheduling

import (
	"context"
	"math"
	"time"
)

// Store is the record store the scheduling services run against. Lookups of
// a single record return an ErrNotFound error when it is absent; every query
// is tenant scoped.
type Store interface {
	Trainer(ctx context.Context, trainerID string) (*Trainer, error)

	CreateSlot(ctx context.Context, slot Slot) error
	Slot(ctx context.Context, tenantID, slotID string) (*Slot, error)
	UpdateSlot(ctx context.Context, slot Slot) error
	DeleteSlot(ctx context.Context, tenantID, slotID string) error
	SlotsByTrainer(ctx context.Context, tenantID, trainerID string) ([]Slot, error)

	CreateBooking(ctx context.Context, booking Booking) error
	Booking(ctx context.Context, tenantID, bookingID string) (*Booking, error)
	UpdateBooking(ctx context.Context, booking Booking) error
	DeleteBooking(ctx context.Context, tenantID, bookingID string) error
	// BookingsBySlots returns the bookings of all given slots, optionally
	// restricted to the listed statuses.
	BookingsBySlots(ctx context.Context, tenantID string, slotIDs []string, statuses ...BookingStatus) ([]Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, int, error)

	Measurements(ctx context.Context, bookingID string) ([]Measurement, error)
	ReplaceMeasurements(ctx context.Context, bookingID string, ms []Measurement) error

	CreateClass(ctx context.Context, class Class) error
	Class(ctx context.Context, tenantID, classID string) (*Class, error)
	UpdateClass(ctx context.Context, class Class) error
	DeleteClass(ctx context.Context, tenantID, classID string) error
	ClassesByTrainer(ctx context.Context, tenantID, trainerID string) ([]Class, error)
	ClassBookingCounts(ctx context.Context, tenantID string, classIDs []string) (map[string]ClassBookingCount, error)

	// RunInTx runs fn against a store bound to one transaction. The
	// transaction commits when fn returns nil.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// ProfileLookup resolves member profiles.
type ProfileLookup interface {
	MembersByIDs(ctx context.Context, tenantID string, ids []string) (map[string]Member, error)
}

// EventPublisher delivers booking lifecycle events to other services.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// BookingFilter narrows ListBookings. Page is 1-based.
type BookingFilter struct {
	TenantID  string
	TrainerID string
	Status    BookingStatus
	From      time.Time
	To        time.Time
	Search    string
	Page      int
	Limit     int
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Paged applies the default page and the limit bounds of booking lists.
func (f BookingFilter) Paged() BookingFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	f.Limit = min(f.Limit, maxListLimit)
	return f
}

// Offset returns the row offset for the filter's page.
func (f BookingFilter) Offset() int {
	return pageOffset(f.Page, f.Limit)
}

// pageOffset is (page-1)*limit, saturating at math.MaxInt instead of
// overflowing for huge pages.
func pageOffset(page, limit int) int {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}
