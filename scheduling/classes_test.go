package scheduling_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/trainagenda/scheduling"
)

func classInput(t *testing.T, from, to string, capacity *int) scheduling.ClassInput {
	return scheduling.ClassInput{
		Name:     "Morning HIIT",
		Type:     "hiit",
		Start:    at(t, from),
		End:      at(t, to),
		Location: "Studio A",
		Capacity: capacity,
	}
}

func TestSeatsAvailable(t *testing.T) {
	assert.Equal(t, 5, scheduling.SeatsAvailable(10, 5))
	assert.Equal(t, 0, scheduling.SeatsAvailable(2, 2))
	assert.Equal(t, 0, scheduling.SeatsAvailable(2, 5), "never negative")
	assert.Equal(t, 0, scheduling.SeatsAvailable(0, 0))
}

func TestClassSeatsNeverNegative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.svc.Classes.Create(ctx, owner, "tr-1", classInput(t, "07:00", "08:00", intp(2)))
	require.NoError(t, err)
	assert.Equal(t, 2, view.SeatsAvailable)
	id := view.Class.ID

	f.store.AddClassBooking(scheduling.ClassBooking{ID: "cb-1", ClassID: id, MemberID: "m-1", TenantID: tenantA, Status: scheduling.StatusBooked})
	f.store.AddClassBooking(scheduling.ClassBooking{ID: "cb-2", ClassID: id, MemberID: "m-2", TenantID: tenantA, Status: scheduling.StatusCancelled})

	view, err = f.svc.Classes.Get(ctx, trainer2, "tr-1", id)
	require.NoError(t, err)
	assert.Equal(t, 1, view.LiveBookings, "cancelled bookings do not take a seat")
	assert.Equal(t, 1, view.SeatsAvailable)

	f.store.AddClassBooking(scheduling.ClassBooking{ID: "cb-3", ClassID: id, MemberID: "m-3", TenantID: tenantA, Status: scheduling.StatusBooked})
	f.store.AddClassBooking(scheduling.ClassBooking{ID: "cb-4", ClassID: id, MemberID: "m-4", TenantID: tenantA, Status: scheduling.StatusAttended})

	view, err = f.svc.Classes.Get(ctx, owner, "tr-1", id)
	require.NoError(t, err)
	assert.Equal(t, 3, view.LiveBookings)
	assert.Equal(t, 0, view.SeatsAvailable)
}

func TestClassValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missingName := classInput(t, "07:00", "08:00", intp(10))
	missingName.Name = " "
	missingLocation := classInput(t, "07:00", "08:00", intp(10))
	missingLocation.Location = ""

	cases := map[string]scheduling.ClassInput{
		"no capacity":       classInput(t, "07:00", "08:00", nil),
		"negative capacity": classInput(t, "07:00", "08:00", intp(-1)),
		"end before start":  classInput(t, "08:00", "07:00", intp(10)),
		"missing name":      missingName,
		"missing location":  missingLocation,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Classes.Create(ctx, owner, "tr-1", in)
			assert.ErrorIs(t, err, scheduling.ErrValidation)
		})
	}

	_, err := f.svc.Classes.Create(ctx, owner, "tr-1", classInput(t, "07:00", "08:00", intp(0)))
	assert.NoError(t, err, "zero capacity is allowed")
}

func TestClassesMayOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Classes.Create(ctx, owner, "tr-1", classInput(t, "07:00", "08:00", intp(10)))
	require.NoError(t, err)
	_, err = f.svc.Classes.Create(ctx, owner, "tr-1", classInput(t, "07:30", "08:30", intp(10)))
	assert.NoError(t, err)
}

func TestClassUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.svc.Classes.Create(ctx, owner, "tr-1", classInput(t, "07:00", "08:00", intp(10)))
	require.NoError(t, err)
	f.store.AddClassBooking(scheduling.ClassBooking{ID: "cb-1", ClassID: view.Class.ID, TenantID: tenantA, Status: scheduling.StatusBooked})

	in := classInput(t, "18:00", "19:00", intp(1))
	in.Name = "Evening Yoga"
	updated, err := f.svc.Classes.Update(ctx, trainer1, "tr-1", view.Class.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Evening Yoga", updated.Class.Name)
	assert.Equal(t, at(t, "18:00"), updated.Class.Start)
	assert.Equal(t, 0, updated.SeatsAvailable)

	_, err = f.svc.Classes.Update(ctx, trainer2, "tr-1", view.Class.ID, in)
	assert.ErrorIs(t, err, scheduling.ErrForbidden)

	_, err = f.svc.Classes.Update(ctx, owner, "tr-2", view.Class.ID, in)
	assert.ErrorIs(t, err, scheduling.ErrForbidden)

	_, err = f.svc.Classes.Update(ctx, owner, "tr-1", "ghost", in)
	assert.ErrorIs(t, err, scheduling.ErrNotFound)
}

func TestClassDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	used, err := f.svc.Classes.Create(ctx, owner, "tr-1", classInput(t, "07:00", "08:00", intp(10)))
	require.NoError(t, err)
	f.store.AddClassBooking(scheduling.ClassBooking{ID: "cb-1", ClassID: used.Class.ID, TenantID: tenantA, Status: scheduling.StatusCancelled})

	err = f.svc.Classes.Delete(ctx, owner, "tr-1", used.Class.ID)
	assert.ErrorIs(t, err, scheduling.ErrConflict, "any booking blocks deletion, cancelled included")

	unused, err := f.svc.Classes.Create(ctx, owner, "tr-1", classInput(t, "09:00", "10:00", intp(10)))
	require.NoError(t, err)
	require.NoError(t, f.svc.Classes.Delete(ctx, owner, "tr-1", unused.Class.ID))

	_, err = f.svc.Classes.Get(ctx, owner, "tr-1", unused.Class.ID)
	assert.ErrorIs(t, err, scheduling.ErrNotFound)
}
