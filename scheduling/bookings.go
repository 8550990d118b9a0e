package scheduling

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/padraicbc/trainagenda/metrics"
)

// Lifecycle event subjects.
const (
	EventEvaluationBooked    = "evaluation.booked"
	EventEvaluationAttended  = "evaluation.attended"
	EventEvaluationCancelled = "evaluation.cancelled"
	EventEvaluationDeleted   = "evaluation.deleted"
)

// BookingInput carries the member-facing fields of a booking.
type BookingInput struct {
	MemberID       string
	Notes          string
	Objectives     []string
	Restrictions   []string
	MedicalHistory string
	// Measurements are stored when non-nil.
	Measurements []Measurement
}

// CreateBookingInput books either an existing slot (SlotID) or a new window (Slot).
type CreateBookingInput struct {
	SlotID string
	Slot   *SlotInput
	BookingInput
}

// BookingPatch holds the optional fields of a booking update. A non-nil
// Measurements replaces the stored set entirely.
type BookingPatch struct {
	Notes          *string
	Objectives     *[]string
	Restrictions   *[]string
	MedicalHistory *string
	Status         *BookingStatus
	SlotID         *string
	Slot           *SlotInput
	Measurements   *[]Measurement
}

// BookingDetail is a booking together with its slot and, when resolvable,
// its member.
type BookingDetail struct {
	Booking      Booking
	Slot         Slot
	Member       *Member
	Measurements []Measurement
}

// BookingEvent is the payload published on lifecycle subjects.
type BookingEvent struct {
	EventType string    `json:"event_type"`
	BookingID string    `json:"booking_id"`
	SlotID    string    `json:"slot_id"`
	TrainerID string    `json:"trainer_id"`
	MemberID  string    `json:"member_id"`
	TenantID  string    `json:"tenant_id"`
	Start     time.Time `json:"start"`
	At        time.Time `json:"at"`
}

// BookingEngine runs the evaluation booking lifecycle.
type BookingEngine struct {
	*deps
	slots *SlotAllocator
}

// CanTransition reports whether a booking may move from one status to another.
// Re-applying the current status is allowed and changes nothing.
func CanTransition(from, to BookingStatus) bool {
	if !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	return from == StatusBooked && (to == StatusAttended || to == StatusCancelled)
}

// Create books a slot for a member, creating the slot first when only a
// window is given. All writes happen in one transaction.
func (e *BookingEngine) Create(ctx context.Context, actor Actor, trainerID string, in CreateBookingInput) (*BookingDetail, error) {
	in.MemberID = strings.TrimSpace(in.MemberID)
	in.SlotID = strings.TrimSpace(in.SlotID)
	if in.MemberID == "" {
		return nil, validationErr("memberId is required")
	}
	switch {
	case in.SlotID == "" && in.Slot == nil:
		return nil, validationErr("either slotId or a date with start and end is required")
	case in.SlotID != "" && in.Slot != nil:
		return nil, validationErr("slotId and a new slot window are mutually exclusive")
	case in.Slot != nil:
		if err := in.Slot.validate(); err != nil {
			return nil, err
		}
	}
	var measurements []Measurement
	if in.Measurements != nil {
		ms, err := normalizeMeasurements(in.Measurements)
		if err != nil {
			return nil, err
		}
		measurements = ms
	}

	tr, err := e.trainerFor(ctx, actor, trainerID, true)
	if err != nil {
		return nil, err
	}
	found, err := e.profiles.MembersByIDs(ctx, tr.TenantID, []string{in.MemberID})
	if err != nil {
		return nil, err
	}
	member, ok := found[in.MemberID]
	if !ok {
		return nil, notFoundErr("member not found")
	}

	unlock := e.locks.Lock(tr.ID)
	defer unlock()

	var detail *BookingDetail
	err = e.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		var slot *Slot
		if in.SlotID != "" {
			s, err := e.slots.ownedSlot(ctx, tx, tr, in.SlotID)
			if err != nil {
				return err
			}
			if err := e.ensureFree(ctx, tx, tr, s.ID); err != nil {
				return err
			}
			slot = s
		} else {
			s, err := e.slots.create(ctx, tx, tr, *in.Slot)
			if err != nil {
				return err
			}
			slot = s
		}

		now := e.now()
		b := Booking{
			ID:             e.newID(),
			SlotID:         slot.ID,
			MemberID:       in.MemberID,
			TenantID:       tr.TenantID,
			Status:         StatusBooked,
			Notes:          strings.TrimSpace(in.Notes),
			Objectives:     trimAll(in.Objectives),
			Restrictions:   trimAll(in.Restrictions),
			MedicalHistory: strings.TrimSpace(in.MedicalHistory),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.CreateBooking(ctx, b); err != nil {
			return err
		}
		if measurements != nil {
			if err := tx.ReplaceMeasurements(ctx, b.ID, measurements); err != nil {
				return err
			}
		}
		detail = &BookingDetail{Booking: b, Slot: *slot, Member: &member, Measurements: measurements}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if detail.Measurements == nil {
		detail.Measurements = []Measurement{}
	}

	metrics.RecordBookingStatus(string(StatusBooked))
	e.publish(ctx, EventEvaluationBooked, tr, detail)
	return detail, nil
}

// Get returns one booking with its slot, member and measurements.
func (e *BookingEngine) Get(ctx context.Context, actor Actor, trainerID, bookingID string) (*BookingDetail, error) {
	tr, err := e.trainerFor(ctx, actor, trainerID, false)
	if err != nil {
		return nil, err
	}
	b, slot, err := e.load(ctx, e.store, tr, bookingID)
	if err != nil {
		return nil, err
	}
	ms, err := e.store.Measurements(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	detail := &BookingDetail{Booking: *b, Slot: *slot, Measurements: ms}
	if m, ok := e.members(ctx, tr.TenantID, []string{b.MemberID})[b.MemberID]; ok {
		detail.Member = &m
	}
	return detail, nil
}

// List returns a page of the trainer's bookings, newest slot first, and the
// total number of matches.
func (e *BookingEngine) List(ctx context.Context, actor Actor, trainerID string, f BookingFilter) ([]BookingDetail, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, validationErr("unknown status %q", f.Status)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, 0, validationErr("to must not be before from")
	}
	tr, err := e.trainerFor(ctx, actor, trainerID, false)
	if err != nil {
		return nil, 0, err
	}

	f = f.Paged()
	f.TenantID, f.TrainerID = tr.TenantID, tr.ID
	f.Search = strings.TrimSpace(f.Search)

	bookings, total, err := e.store.ListBookings(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	if len(bookings) == 0 {
		return []BookingDetail{}, total, nil
	}

	slots, err := e.store.SlotsByTrainer(ctx, tr.TenantID, tr.ID)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[string]Slot, len(slots))
	for _, s := range slots {
		byID[s.ID] = s
	}
	memberIDs := make([]string, len(bookings))
	for i, b := range bookings {
		memberIDs[i] = b.MemberID
	}
	members := e.members(ctx, tr.TenantID, uniqueIDs(memberIDs))

	out := make([]BookingDetail, 0, len(bookings))
	for _, b := range bookings {
		d := BookingDetail{Booking: b, Slot: byID[b.SlotID]}
		if m, ok := members[b.MemberID]; ok {
			d.Member = &m
		}
		out = append(out, d)
	}
	return out, total, nil
}

// Update applies patch to a booking. Status changes follow CanTransition,
// slot changes are checked for conflicts, and measurements are replaced
// rather than merged.
func (e *BookingEngine) Update(ctx context.Context, actor Actor, trainerID, bookingID string, patch BookingPatch) (*BookingDetail, error) {
	if patch.SlotID != nil && patch.Slot != nil {
		return nil, validationErr("slotId and a new slot window are mutually exclusive")
	}
	if patch.Slot != nil {
		if err := patch.Slot.validate(); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, validationErr("unknown status %q", *patch.Status)
	}
	var measurements []Measurement
	if patch.Measurements != nil {
		ms, err := normalizeMeasurements(*patch.Measurements)
		if err != nil {
			return nil, err
		}
		measurements = ms
	}

	tr, err := e.trainerFor(ctx, actor, trainerID, true)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(tr.ID)
	defer unlock()

	var (
		detail  *BookingDetail
		changed bool
	)
	err = e.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		b, slot, err := e.load(ctx, tx, tr, bookingID)
		if err != nil {
			return err
		}

		// Only a booked evaluation owns its slot. Once attended or cancelled the
		// slot may belong to someone else.
		moving := patch.Slot != nil || (patch.SlotID != nil && strings.TrimSpace(*patch.SlotID) != b.SlotID)
		if moving && b.Status != StatusBooked {
			return validationErr("cannot move a %s booking to another slot", b.Status)
		}

		if patch.Status != nil && *patch.Status != b.Status {
			if !CanTransition(b.Status, *patch.Status) {
				return validationErr("cannot change status from %s to %s", b.Status, *patch.Status)
			}
			b.Status = *patch.Status
			if b.Status == StatusAttended && b.CheckInAt == nil {
				now := e.now()
				b.CheckInAt = &now
			}
			changed = true
		}

		if patch.SlotID != nil && strings.TrimSpace(*patch.SlotID) != b.SlotID {
			next, err := e.slots.ownedSlot(ctx, tx, tr, strings.TrimSpace(*patch.SlotID))
			if err != nil {
				return err
			}
			if b.Status.Live() {
				if err := e.ensureFree(ctx, tx, tr, next.ID); err != nil {
					return err
				}
			}
			b.SlotID = next.ID
			slot = next
		}
		if patch.Slot != nil {
			if err := e.slots.reschedule(ctx, tx, tr, slot, *patch.Slot); err != nil {
				return err
			}
		}

		if patch.Notes != nil {
			b.Notes = strings.TrimSpace(*patch.Notes)
		}
		if patch.Objectives != nil {
			b.Objectives = trimAll(*patch.Objectives)
		}
		if patch.Restrictions != nil {
			b.Restrictions = trimAll(*patch.Restrictions)
		}
		if patch.MedicalHistory != nil {
			b.MedicalHistory = strings.TrimSpace(*patch.MedicalHistory)
		}
		b.UpdatedAt = e.now()
		if err := tx.UpdateBooking(ctx, *b); err != nil {
			return err
		}

		if patch.Measurements != nil {
			if err := tx.ReplaceMeasurements(ctx, b.ID, measurements); err != nil {
				return err
			}
		} else if measurements, err = tx.Measurements(ctx, b.ID); err != nil {
			return err
		}
		detail = &BookingDetail{Booking: *b, Slot: *slot, Measurements: measurements}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if detail.Measurements == nil {
		detail.Measurements = []Measurement{}
	}
	if m, ok := e.members(ctx, tr.TenantID, []string{detail.Booking.MemberID})[detail.Booking.MemberID]; ok {
		detail.Member = &m
	}

	if changed {
		metrics.RecordBookingStatus(string(detail.Booking.Status))
		subject := EventEvaluationAttended
		if detail.Booking.Status == StatusCancelled {
			subject = EventEvaluationCancelled
		}
		e.publish(ctx, subject, tr, detail)
	}
	return detail, nil
}

// Cancel marks a booking cancelled, which frees its slot.
func (e *BookingEngine) Cancel(ctx context.Context, actor Actor, trainerID, bookingID string) (*BookingDetail, error) {
	status := StatusCancelled
	return e.Update(ctx, actor, trainerID, bookingID, BookingPatch{Status: &status})
}

// Delete removes a booking and its measurements permanently.
func (e *BookingEngine) Delete(ctx context.Context, actor Actor, trainerID, bookingID string) error {
	tr, err := e.trainerFor(ctx, actor, trainerID, true)
	if err != nil {
		return err
	}

	unlock := e.locks.Lock(tr.ID)
	defer unlock()

	b, slot, err := e.load(ctx, e.store, tr, bookingID)
	if err != nil {
		return err
	}
	if err := e.store.DeleteBooking(ctx, tr.TenantID, b.ID); err != nil {
		return err
	}
	e.publish(ctx, EventEvaluationDeleted, tr, &BookingDetail{Booking: *b, Slot: *slot})
	return nil
}

// load fetches a booking and its slot, checking the slot belongs to tr.
func (e *BookingEngine) load(ctx context.Context, st Store, tr *Trainer, bookingID string) (*Booking, *Slot, error) {
	if strings.TrimSpace(bookingID) == "" {
		return nil, nil, validationErr("booking id is required")
	}
	b, err := st.Booking(ctx, tr.TenantID, bookingID)
	if err != nil {
		return nil, nil, err
	}
	slot, err := st.Slot(ctx, tr.TenantID, b.SlotID)
	if err != nil {
		return nil, nil, err
	}
	if slot.TrainerID != tr.ID {
		return nil, nil, forbiddenErr("booking does not belong to this trainer")
	}
	return b, slot, nil
}

func (e *BookingEngine) ensureFree(ctx context.Context, st Store, tr *Trainer, slotID string) error {
	live, err := st.BookingsBySlots(ctx, tr.TenantID, []string{slotID}, liveStatuses...)
	if err != nil {
		return err
	}
	if len(live) > 0 {
		metrics.RecordConflict(metrics.ReasonSlotTaken)
		return conflictErr("this slot already has an active booking")
	}
	return nil
}

func (e *BookingEngine) publish(ctx context.Context, subject string, tr *Trainer, d *BookingDetail) {
	if e.events == nil {
		return
	}
	ev := BookingEvent{
		EventType: subject,
		BookingID: d.Booking.ID,
		SlotID:    d.Slot.ID,
		TrainerID: tr.ID,
		MemberID:  d.Booking.MemberID,
		TenantID:  tr.TenantID,
		Start:     d.Slot.Start,
		At:        e.now(),
	}
	if err := e.events.Publish(ctx, subject, ev); err != nil {
		e.log.Warn("publish booking event", zap.String("subject", subject),
			zap.String("booking_id", d.Booking.ID), zap.Error(err))
	}
}

// normalizeMeasurements trims and validates a measurement set and returns it
// ordered by type. Each type may appear once.
func normalizeMeasurements(in []Measurement) ([]Measurement, error) {
	out := make([]Measurement, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, m := range in {
		m.Type = strings.TrimSpace(m.Type)
		m.Unit = strings.TrimSpace(m.Unit)
		if m.Type == "" {
			return nil, validationErr("measurement type is required")
		}
		key := strings.ToLower(m.Type)
		if _, dup := seen[key]; dup {
			return nil, validationErr("measurement %q given more than once", m.Type)
		}
		seen[key] = struct{}{}
		if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) || m.Value < 0 {
			return nil, validationErr("measurement %q must be a non-negative number", m.Type)
		}
		out = append(out, m)
	}
	slices.SortFunc(out, func(x, y Measurement) int { return cmp.Compare(x.Type, y.Type) })
	return out, nil
}
