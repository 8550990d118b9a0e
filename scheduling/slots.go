package scheduling

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/padraicbc/trainagenda/metrics"
)

var liveStatuses = []BookingStatus{StatusBooked, StatusAttended}

// SlotInput describes an evaluation window.
type SlotInput struct {
	Start    time.Time
	End      time.Time
	Location string
}

func (in SlotInput) validate() error {
	if err := validateWindow(in.Start, in.End); err != nil {
		return err
	}
	if strings.TrimSpace(in.Location) == "" {
		return validationErr("location is required")
	}
	return nil
}

// SlotAllocator manages a trainer's evaluation windows.
type SlotAllocator struct {
	*deps
	bookings *BookingEngine
}

// Create persists a new slot unless it overlaps a slot that holds a live booking.
func (a *SlotAllocator) Create(ctx context.Context, actor Actor, trainerID string, in SlotInput) (*Slot, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	tr, err := a.trainerFor(ctx, actor, trainerID, true)
	if err != nil {
		return nil, err
	}

	unlock := a.locks.Lock(tr.ID)
	defer unlock()

	return a.create(ctx, a.store, tr, in)
}

// CreateWithBooking creates a slot together with its first booking. Either
// both are stored or neither is.
func (a *SlotAllocator) CreateWithBooking(ctx context.Context, actor Actor, trainerID string, in SlotInput, b BookingInput) (*BookingDetail, error) {
	return a.bookings.Create(ctx, actor, trainerID, CreateBookingInput{Slot: &in, BookingInput: b})
}

// Available lists the trainer's slots that hold no live booking, earliest first.
func (a *SlotAllocator) Available(ctx context.Context, actor Actor, trainerID string) ([]Slot, error) {
	tr, err := a.trainerFor(ctx, actor, trainerID, false)
	if err != nil {
		return nil, err
	}
	slots, err := a.store.SlotsByTrainer(ctx, tr.TenantID, tr.ID)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return []Slot{}, nil
	}

	ids := make([]string, len(slots))
	for i, s := range slots {
		ids[i] = s.ID
	}
	live, err := a.store.BookingsBySlots(ctx, tr.TenantID, ids, liveStatuses...)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(live))
	for _, b := range live {
		taken[b.SlotID] = struct{}{}
	}

	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if _, ok := taken[s.ID]; !ok {
			out = append(out, s)
		}
	}
	sortSlots(out)
	return out, nil
}

// Update moves or relocates a slot. The new window is checked against the
// trainer's other booked slots.
func (a *SlotAllocator) Update(ctx context.Context, actor Actor, trainerID, slotID string, in SlotInput) (*Slot, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	tr, err := a.trainerFor(ctx, actor, trainerID, true)
	if err != nil {
		return nil, err
	}

	unlock := a.locks.Lock(tr.ID)
	defer unlock()

	slot, err := a.ownedSlot(ctx, a.store, tr, slotID)
	if err != nil {
		return nil, err
	}
	if err := a.reschedule(ctx, a.store, tr, slot, in); err != nil {
		return nil, err
	}
	return slot, nil
}

// Delete removes a slot that no live booking depends on.
func (a *SlotAllocator) Delete(ctx context.Context, actor Actor, trainerID, slotID string) error {
	tr, err := a.trainerFor(ctx, actor, trainerID, true)
	if err != nil {
		return err
	}

	unlock := a.locks.Lock(tr.ID)
	defer unlock()

	slot, err := a.ownedSlot(ctx, a.store, tr, slotID)
	if err != nil {
		return err
	}
	live, err := a.store.BookingsBySlots(ctx, tr.TenantID, []string{slot.ID}, liveStatuses...)
	if err != nil {
		return err
	}
	if len(live) > 0 {
		metrics.RecordConflict(metrics.ReasonSlotInUse)
		return conflictErr("cannot delete a slot with an active evaluation")
	}
	return a.store.DeleteSlot(ctx, tr.TenantID, slot.ID)
}

func (a *SlotAllocator) create(ctx context.Context, st Store, tr *Trainer, in SlotInput) (*Slot, error) {
	start, end := in.Start.UTC(), in.End.UTC()
	if err := a.checkOverlap(ctx, st, tr, start, end, ""); err != nil {
		return nil, err
	}
	slot := Slot{
		ID:        a.newID(),
		TrainerID: tr.ID,
		TenantID:  tr.TenantID,
		Start:     start,
		End:       end,
		Location:  strings.TrimSpace(in.Location),
	}
	if err := st.CreateSlot(ctx, slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

// reschedule applies in to slot, re-running the overlap check only when the
// window actually changes.
func (a *SlotAllocator) reschedule(ctx context.Context, st Store, tr *Trainer, slot *Slot, in SlotInput) error {
	start, end := in.Start.UTC(), in.End.UTC()
	if !start.Equal(slot.Start) || !end.Equal(slot.End) {
		if err := a.checkOverlap(ctx, st, tr, start, end, slot.ID); err != nil {
			return err
		}
	}
	slot.Start, slot.End = start, end
	slot.Location = strings.TrimSpace(in.Location)
	return st.UpdateSlot(ctx, *slot)
}

func (a *SlotAllocator) checkOverlap(ctx context.Context, st Store, tr *Trainer, start, end time.Time, excludeID string) error {
	slots, err := st.SlotsByTrainer(ctx, tr.TenantID, tr.ID)
	if err != nil {
		return err
	}

	var candidates []Slot
	for _, s := range slots {
		if s.ID != excludeID && Overlaps(start, end, s.Start, s.End) {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	ids := make([]string, len(candidates))
	for i, s := range candidates {
		ids[i] = s.ID
	}
	live, err := st.BookingsBySlots(ctx, tr.TenantID, ids, liveStatuses...)
	if err != nil {
		return err
	}
	booked := make(map[string]struct{}, len(live))
	for _, b := range live {
		booked[b.SlotID] = struct{}{}
	}

	sortSlots(candidates)
	for _, s := range candidates {
		if _, ok := booked[s.ID]; ok {
			metrics.RecordConflict(metrics.ReasonSlotOverlap)
			return conflictErr("an active evaluation already occupies this time (%s to %s)",
				FormatInstant(s.Start), FormatInstant(s.End))
		}
	}
	return nil
}

func (a *SlotAllocator) ownedSlot(ctx context.Context, st Store, tr *Trainer, slotID string) (*Slot, error) {
	if strings.TrimSpace(slotID) == "" {
		return nil, validationErr("slot id is required")
	}
	slot, err := st.Slot(ctx, tr.TenantID, slotID)
	if err != nil {
		return nil, err
	}
	if slot.TrainerID != tr.ID {
		return nil, forbiddenErr("slot does not belong to this trainer")
	}
	return slot, nil
}

func sortSlots(slots []Slot) {
	slices.SortFunc(slots, func(x, y Slot) int {
		if c := x.Start.Compare(y.Start); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
}
