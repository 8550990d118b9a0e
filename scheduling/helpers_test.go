package scheduling_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/padraicbc/trainagenda/db"
	"github.com/padraicbc/trainagenda/scheduling"
)

const (
	tenantA = "tenant-a"
	tenantB = "tenant-b"
	day     = "2025-03-10"
)

var (
	owner     = scheduling.Actor{UserID: "u-owner", TenantID: tenantA, Role: scheduling.RoleOwner}
	trainer1  = scheduling.Actor{UserID: "u-tr1", TenantID: tenantA, Role: scheduling.RoleTrainer}
	trainer2  = scheduling.Actor{UserID: "u-tr2", TenantID: tenantA, Role: scheduling.RoleTrainer}
	outsider  = scheduling.Actor{UserID: "u-x", TenantID: tenantB, Role: scheduling.RoleOwner}
	fixedTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
)

type fixture struct {
	store  *db.MemoryStore
	svc    *scheduling.Service
	events *recorder
}

func newFixture(t *testing.T, opts ...scheduling.Option) *fixture {
	t.Helper()
	st := db.NewMemoryStore()
	st.AddTrainer(scheduling.Trainer{ID: "tr-1", UserID: "u-tr1", TenantID: tenantA, Name: "Ana"})
	st.AddTrainer(scheduling.Trainer{ID: "tr-2", UserID: "u-tr2", TenantID: tenantA, Name: "Rui"})
	st.AddMember(scheduling.Member{ID: "m-1", TenantID: tenantA, Name: "Bruno Silva", Email: "bruno@example.com"})
	st.AddMember(scheduling.Member{ID: "m-2", TenantID: tenantA, Name: "Carla Souza"})
	st.AddMember(scheduling.Member{ID: "m-3", TenantID: tenantA, Name: "Diego Lima"})

	rec := &recorder{}
	opts = append([]scheduling.Option{
		scheduling.WithClock(func() time.Time { return fixedTime }),
		scheduling.WithPublisher(rec),
	}, opts...)
	return &fixture{store: st, svc: scheduling.New(st, st, opts...), events: rec}
}

// at returns the instant for clock on the fixture day.
func at(t *testing.T, clock string) time.Time {
	t.Helper()
	ts, err := scheduling.CombineDateTime(day, clock)
	require.NoError(t, err)
	return ts
}

func window(t *testing.T, from, to string) scheduling.SlotInput {
	return scheduling.SlotInput{Start: at(t, from), End: at(t, to), Location: "Room 1"}
}

func (f *fixture) slot(t *testing.T, from, to string) *scheduling.Slot {
	t.Helper()
	s, err := f.svc.Slots.Create(context.Background(), owner, "tr-1", window(t, from, to))
	require.NoError(t, err)
	return s
}

func (f *fixture) book(t *testing.T, slotID, memberID string) *scheduling.BookingDetail {
	t.Helper()
	d, err := f.svc.Bookings.Create(context.Background(), owner, "tr-1", scheduling.CreateBookingInput{
		SlotID:       slotID,
		BookingInput: scheduling.BookingInput{MemberID: memberID},
	})
	require.NoError(t, err)
	return d
}

type recorder struct {
	mu       sync.Mutex
	subjects []string
}

func (r *recorder) Publish(_ context.Context, subject string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	return nil
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.subjects...)
}

func intp(n int) *int { return &n }
