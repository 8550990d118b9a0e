package scheduling_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/padraicbc/trainagenda/scheduling"
)

func TestAgendaMergesClassesAndBookedEvaluations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	class, err := f.svc.Classes.Create(ctx, owner, "tr-1", classInput(t, "09:00", "10:00", intp(10)))
	require.NoError(t, err)
	f.store.AddClassBooking(scheduling.ClassBooking{ID: "cb-1", ClassID: class.Class.ID, TenantID: tenantA, Status: scheduling.StatusBooked})

	early := f.slot(t, "08:00", "08:30")
	earlyBooking := f.book(t, early.ID, "m-1")
	late := f.slot(t, "11:00", "11:30")
	f.book(t, late.ID, "m-2")
	f.slot(t, "12:00", "12:30") // free, not on the agenda
	cancelled := f.slot(t, "13:00", "13:30")
	d := f.book(t, cancelled.ID, "m-3")
	_, err = f.svc.Bookings.Cancel(ctx, owner, "tr-1", d.Booking.ID)
	require.NoError(t, err)

	events, total, err := f.svc.Agenda.Get(ctx, trainer2, "tr-1", scheduling.AgendaQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, events, 3)

	assert.Equal(t, scheduling.KindEvaluation, events[0].Kind)
	assert.Equal(t, early.ID, events[0].ID)
	assert.Equal(t, earlyBooking.Booking.ID, events[0].BookingID)
	assert.Equal(t, "m-1", events[0].MemberID)
	assert.Equal(t, "Physical evaluation: Bruno Silva", events[0].Title)
	assert.Nil(t, events[0].Capacity)

	assert.Equal(t, scheduling.KindClass, events[1].Kind)
	assert.Equal(t, "Morning HIIT", events[1].Title)
	require.NotNil(t, events[1].SeatsAvailable)
	assert.Equal(t, 10, *events[1].Capacity)
	assert.Equal(t, 9, *events[1].SeatsAvailable)

	assert.Equal(t, scheduling.KindEvaluation, events[2].Kind)
	assert.Equal(t, late.ID, events[2].ID)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Start.Before(events[i-1].Start), "sorted by start")
	}
}

func TestAgendaPaginatesAfterMerge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Classes.Create(ctx, owner, "tr-1", classInput(t, "09:00", "10:00", intp(10)))
	require.NoError(t, err)
	for _, w := range [][2]string{{"08:00", "08:30"}, {"11:00", "11:30"}} {
		s := f.slot(t, w[0], w[1])
		f.book(t, s.ID, "m-1")
	}

	events, total, err := f.svc.Agenda.Get(ctx, owner, "tr-1", scheduling.AgendaQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, events, 1)
	assert.Equal(t, at(t, "11:00"), events[0].Start)

	events, total, err = f.svc.Agenda.Get(ctx, owner, "tr-1", scheduling.AgendaQuery{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, events)
}

func TestAgendaHugePage(t *testing.T) {
	f := newFixture(t)
	s := f.slot(t, "08:00", "08:30")
	f.book(t, s.ID, "m-1")

	for _, page := range []int{math.MaxInt64 / 50, math.MaxInt} {
		events, total, err := f.svc.Agenda.Get(context.Background(), owner, "tr-1",
			scheduling.AgendaQuery{Page: page, Limit: 100})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Empty(t, events)
	}
}

func TestAgendaLimitIsCapped(t *testing.T) {
	f := newFixture(t, scheduling.WithAgendaMaxLimit(2))
	for _, w := range [][2]string{{"08:00", "08:30"}, {"09:00", "09:30"}, {"10:00", "10:30"}} {
		s := f.slot(t, w[0], w[1])
		f.book(t, s.ID, "m-1")
	}

	q := f.svc.Agenda.Normalize(scheduling.AgendaQuery{Limit: 10})
	assert.Equal(t, scheduling.AgendaQuery{Page: 1, Limit: 2}, q)

	events, total, err := f.svc.Agenda.Get(context.Background(), owner, "tr-1", scheduling.AgendaQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, events, 2)
}

type brokenProfiles struct{}

func (brokenProfiles) MembersByIDs(context.Context, string, []string) (map[string]scheduling.Member, error) {
	return nil, errors.New("profile service unavailable")
}

func TestAgendaDegradesWithoutProfiles(t *testing.T) {
	f := newFixture(t)
	s := f.slot(t, "10:00", "10:30")
	f.book(t, s.ID, "m-1")

	core, logs := observer.New(zap.WarnLevel)
	svc := scheduling.New(f.store, brokenProfiles{}, scheduling.WithLogger(zap.New(core)))

	events, total, err := svc.Agenda.Get(context.Background(), owner, "tr-1", scheduling.AgendaQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, events, 1)
	assert.Equal(t, "Physical evaluation", events[0].Title)
	assert.Equal(t, "m-1", events[0].MemberID)
	assert.Equal(t, 1, logs.Len())
}

func TestAgendaTenantMismatch(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.Agenda.Get(context.Background(), outsider, "tr-1", scheduling.AgendaQuery{})
	assert.ErrorIs(t, err, scheduling.ErrForbidden)

	_, _, err = f.svc.Agenda.Get(context.Background(), owner, "ghost", scheduling.AgendaQuery{})
	assert.ErrorIs(t, err, scheduling.ErrNotFound)
}
