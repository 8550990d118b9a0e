package db

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/padraicbc/trainagenda/models"
	"github.com/padraicbc/trainagenda/scheduling"
)

// MemoryStore is an in-process scheduling.Store with the same filtering and
// cascade rules as Store. Writes made by a failed RunInTx are rolled back.
type MemoryStore struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users         map[string]models.User
	trainers      map[string]scheduling.Trainer
	members       map[string]scheduling.Member
	slots         map[string]scheduling.Slot
	bookings      map[string]scheduling.Booking
	measurements  map[string][]scheduling.Measurement
	classes       map[string]scheduling.Class
	classBookings map[string]scheduling.ClassBooking
}

var (
	_ scheduling.Store         = (*MemoryStore)(nil)
	_ scheduling.ProfileLookup = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         map[string]models.User{},
		trainers:      map[string]scheduling.Trainer{},
		members:       map[string]scheduling.Member{},
		slots:         map[string]scheduling.Slot{},
		bookings:      map[string]scheduling.Booking{},
		measurements:  map[string][]scheduling.Measurement{},
		classes:       map[string]scheduling.Class{},
		classBookings: map[string]scheduling.ClassBooking{},
	}
}

// SaveUser stores a login keyed by username.
func (m *MemoryStore) SaveUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[strings.TrimSpace(u.Username)] = *u
	return nil
}

func (m *MemoryStore) UserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[strings.TrimSpace(username)]
	if !ok {
		return nil, scheduling.NotFound("user")
	}
	return &u, nil
}

// AddTrainer seeds a trainer.
func (m *MemoryStore) AddTrainer(t scheduling.Trainer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainers[t.ID] = t
}

// AddMember seeds a member profile.
func (m *MemoryStore) AddMember(mem scheduling.Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[mem.ID] = mem
}

// AddClassBooking seeds a class booking; those are created by the member app.
func (m *MemoryStore) AddClassBooking(cb scheduling.ClassBooking) {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classBookings[cb.ID] = cb
}

func (m *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx scheduling.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(ctx, memTx{m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// memTx joins the running transaction instead of starting a nested one.
// Its writers skip txMu, which the transaction already holds.
type memTx struct{ *MemoryStore }

func (t memTx) RunInTx(ctx context.Context, fn func(ctx context.Context, tx scheduling.Store) error) error {
	return fn(ctx, t)
}

// write runs a single write outside any transaction. It waits for a running
// transaction so a rollback cannot discard it.
func (m *MemoryStore) write(fn func() error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn()
}

func (m *MemoryStore) CreateSlot(_ context.Context, slot scheduling.Slot) error {
	return m.write(func() error { return m.createSlot(slot) })
}

func (t memTx) CreateSlot(_ context.Context, slot scheduling.Slot) error {
	return t.createSlot(slot)
}

func (m *MemoryStore) UpdateSlot(_ context.Context, slot scheduling.Slot) error {
	return m.write(func() error { return m.updateSlot(slot) })
}

func (t memTx) UpdateSlot(_ context.Context, slot scheduling.Slot) error {
	return t.updateSlot(slot)
}

func (m *MemoryStore) DeleteSlot(_ context.Context, tenantID, slotID string) error {
	return m.write(func() error { return m.deleteSlot(tenantID, slotID) })
}

func (t memTx) DeleteSlot(_ context.Context, tenantID, slotID string) error {
	return t.deleteSlot(tenantID, slotID)
}

func (m *MemoryStore) CreateBooking(_ context.Context, b scheduling.Booking) error {
	return m.write(func() error { return m.createBooking(b) })
}

func (t memTx) CreateBooking(_ context.Context, b scheduling.Booking) error {
	return t.createBooking(b)
}

func (m *MemoryStore) UpdateBooking(_ context.Context, b scheduling.Booking) error {
	return m.write(func() error { return m.updateBooking(b) })
}

func (t memTx) UpdateBooking(_ context.Context, b scheduling.Booking) error {
	return t.updateBooking(b)
}

func (m *MemoryStore) DeleteBooking(_ context.Context, tenantID, bookingID string) error {
	return m.write(func() error { return m.deleteBooking(tenantID, bookingID) })
}

func (t memTx) DeleteBooking(_ context.Context, tenantID, bookingID string) error {
	return t.deleteBooking(tenantID, bookingID)
}

func (m *MemoryStore) ReplaceMeasurements(_ context.Context, bookingID string, ms []scheduling.Measurement) error {
	return m.write(func() error { return m.replaceMeasurements(bookingID, ms) })
}

func (t memTx) ReplaceMeasurements(_ context.Context, bookingID string, ms []scheduling.Measurement) error {
	return t.replaceMeasurements(bookingID, ms)
}

func (m *MemoryStore) CreateClass(_ context.Context, c scheduling.Class) error {
	return m.write(func() error { return m.createClass(c) })
}

func (t memTx) CreateClass(_ context.Context, c scheduling.Class) error {
	return t.createClass(c)
}

func (m *MemoryStore) UpdateClass(_ context.Context, c scheduling.Class) error {
	return m.write(func() error { return m.updateClass(c) })
}

func (t memTx) UpdateClass(_ context.Context, c scheduling.Class) error {
	return t.updateClass(c)
}

func (m *MemoryStore) DeleteClass(_ context.Context, tenantID, classID string) error {
	return m.write(func() error { return m.deleteClass(tenantID, classID) })
}

func (t memTx) DeleteClass(_ context.Context, tenantID, classID string) error {
	return t.deleteClass(tenantID, classID)
}

type memSnapshot struct {
	slots         map[string]scheduling.Slot
	bookings      map[string]scheduling.Booking
	measurements  map[string][]scheduling.Measurement
	classes       map[string]scheduling.Class
	classBookings map[string]scheduling.ClassBooking
}

func (m *MemoryStore) snapshot() memSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ms := make(map[string][]scheduling.Measurement, len(m.measurements))
	for k, v := range m.measurements {
		ms[k] = append([]scheduling.Measurement(nil), v...)
	}
	return memSnapshot{
		slots:         copyMap(m.slots),
		bookings:      copyMap(m.bookings),
		measurements:  ms,
		classes:       copyMap(m.classes),
		classBookings: copyMap(m.classBookings),
	}
}

func (m *MemoryStore) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots = s.slots
	m.bookings = s.bookings
	m.measurements = s.measurements
	m.classes = s.classes
	m.classBookings = s.classBookings
}

func copyMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *MemoryStore) Trainer(_ context.Context, trainerID string) (*scheduling.Trainer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trainers[trainerID]
	if !ok {
		return nil, scheduling.NotFound("trainer")
	}
	return &t, nil
}

func (m *MemoryStore) MembersByIDs(_ context.Context, tenantID string, ids []string) (map[string]scheduling.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]scheduling.Member, len(ids))
	for _, id := range ids {
		if mem, ok := m.members[id]; ok && mem.TenantID == tenantID {
			out[id] = mem
		}
	}
	return out, nil
}

func (m *MemoryStore) createSlot(slot scheduling.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[slot.ID]; ok {
		return scheduling.Conflict("slot conflicts with existing records")
	}
	if _, ok := m.trainers[slot.TrainerID]; !ok {
		return scheduling.NotFound("trainer")
	}
	m.slots[slot.ID] = slot
	return nil
}

func (m *MemoryStore) Slot(_ context.Context, tenantID, slotID string) (*scheduling.Slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.slots[slotID]
	if !ok || s.TenantID != tenantID {
		return nil, scheduling.NotFound("slot")
	}
	return &s, nil
}

func (m *MemoryStore) updateSlot(slot scheduling.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.slots[slot.ID]
	if !ok || cur.TenantID != slot.TenantID {
		return scheduling.NotFound("slot")
	}
	cur.Start, cur.End, cur.Location = slot.Start, slot.End, slot.Location
	m.slots[slot.ID] = cur
	return nil
}

// deleteSlot removes the slot together with its bookings and their
// measurements, like the ON DELETE CASCADE keys in Postgres.
func (m *MemoryStore) deleteSlot(tenantID, slotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[slotID]
	if !ok || s.TenantID != tenantID {
		return scheduling.NotFound("slot")
	}
	delete(m.slots, slotID)
	for id, b := range m.bookings {
		if b.SlotID == slotID {
			delete(m.bookings, id)
			delete(m.measurements, id)
		}
	}
	return nil
}

func (m *MemoryStore) SlotsByTrainer(_ context.Context, tenantID, trainerID string) ([]scheduling.Slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []scheduling.Slot
	for _, s := range m.slots {
		if s.TenantID == tenantID && s.TrainerID == trainerID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) createBooking(b scheduling.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[b.ID]; ok {
		return scheduling.Conflict("booking conflicts with existing records")
	}
	if _, ok := m.slots[b.SlotID]; !ok {
		return scheduling.NotFound("slot")
	}
	if b.Status.Live() && m.liveOnSlot(b.SlotID, b.ID) {
		return scheduling.Conflict("this slot already has an active booking")
	}
	m.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (m *MemoryStore) Booking(_ context.Context, tenantID, bookingID string) (*scheduling.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[bookingID]
	if !ok || b.TenantID != tenantID {
		return nil, scheduling.NotFound("booking")
	}
	b = cloneBooking(b)
	return &b, nil
}

func (m *MemoryStore) updateBooking(b scheduling.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.bookings[b.ID]
	if !ok || cur.TenantID != b.TenantID {
		return scheduling.NotFound("booking")
	}
	if _, ok := m.slots[b.SlotID]; !ok {
		return scheduling.NotFound("slot")
	}
	if b.Status.Live() && m.liveOnSlot(b.SlotID, b.ID) {
		return scheduling.Conflict("this slot already has an active booking")
	}
	b.CreatedAt = cur.CreatedAt
	m.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (m *MemoryStore) deleteBooking(tenantID, bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok || b.TenantID != tenantID {
		return scheduling.NotFound("booking")
	}
	delete(m.bookings, bookingID)
	delete(m.measurements, bookingID)
	return nil
}

// liveOnSlot mirrors the partial unique index on evaluation_bookings.
func (m *MemoryStore) liveOnSlot(slotID, except string) bool {
	for id, b := range m.bookings {
		if id != except && b.SlotID == slotID && b.Status.Live() {
			return true
		}
	}
	return false
}

func (m *MemoryStore) BookingsBySlots(_ context.Context, tenantID string, slotIDs []string, statuses ...scheduling.BookingStatus) ([]scheduling.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[string]bool, len(slotIDs))
	for _, id := range slotIDs {
		want[id] = true
	}
	var out []scheduling.Booking
	for _, b := range m.bookings {
		if b.TenantID != tenantID || !want[b.SlotID] || !hasStatus(statuses, b.Status) {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) ListBookings(_ context.Context, f scheduling.BookingFilter) ([]scheduling.Booking, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(f.Search)
	type row struct {
		b     scheduling.Booking
		start int64
	}
	var rows []row
	for _, b := range m.bookings {
		if b.TenantID != f.TenantID {
			continue
		}
		s, ok := m.slots[b.SlotID]
		if !ok || s.TrainerID != f.TrainerID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && s.Start.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !s.Start.Before(f.To) {
			continue
		}
		if search != "" {
			mem, ok := m.members[b.MemberID]
			if !ok || !strings.Contains(strings.ToLower(mem.Name), search) {
				continue
			}
		}
		rows = append(rows, row{b: b, start: s.Start.UnixNano()})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].start != rows[j].start {
			return rows[i].start > rows[j].start
		}
		return rows[i].b.ID < rows[j].b.ID
	})

	total := len(rows)
	lo := min(f.Offset(), total)
	hi := total
	if f.Limit > 0 {
		hi = min(lo+f.Limit, total)
	}
	out := make([]scheduling.Booking, 0, hi-lo)
	for _, r := range rows[lo:hi] {
		out = append(out, cloneBooking(r.b))
	}
	return out, total, nil
}

func (m *MemoryStore) Measurements(_ context.Context, bookingID string) ([]scheduling.Measurement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ms := append([]scheduling.Measurement{}, m.measurements[bookingID]...)
	sort.Slice(ms, func(i, j int) bool { return ms[i].Type < ms[j].Type })
	return ms, nil
}

func (m *MemoryStore) replaceMeasurements(bookingID string, ms []scheduling.Measurement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[bookingID]; !ok {
		return scheduling.NotFound("booking")
	}
	seen := make(map[string]bool, len(ms))
	for _, x := range ms {
		if seen[x.Type] {
			return scheduling.Conflict("measurement conflicts with existing records")
		}
		seen[x.Type] = true
	}
	if len(ms) == 0 {
		delete(m.measurements, bookingID)
		return nil
	}
	m.measurements[bookingID] = append([]scheduling.Measurement(nil), ms...)
	return nil
}

func (m *MemoryStore) createClass(c scheduling.Class) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.classes[c.ID]; ok {
		return scheduling.Conflict("class conflicts with existing records")
	}
	if _, ok := m.trainers[c.TrainerID]; !ok {
		return scheduling.NotFound("trainer")
	}
	m.classes[c.ID] = c
	return nil
}

func (m *MemoryStore) Class(_ context.Context, tenantID, classID string) (*scheduling.Class, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.classes[classID]
	if !ok || c.TenantID != tenantID {
		return nil, scheduling.NotFound("class")
	}
	return &c, nil
}

func (m *MemoryStore) updateClass(c scheduling.Class) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.classes[c.ID]
	if !ok || cur.TenantID != c.TenantID {
		return scheduling.NotFound("class")
	}
	c.TrainerID = cur.TrainerID
	m.classes[c.ID] = c
	return nil
}

func (m *MemoryStore) deleteClass(tenantID, classID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.classes[classID]
	if !ok || c.TenantID != tenantID {
		return scheduling.NotFound("class")
	}
	for _, cb := range m.classBookings {
		if cb.ClassID == classID {
			return scheduling.Conflict("class conflicts with existing records")
		}
	}
	delete(m.classes, classID)
	return nil
}

func (m *MemoryStore) ClassesByTrainer(_ context.Context, tenantID, trainerID string) ([]scheduling.Class, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []scheduling.Class
	for _, c := range m.classes {
		if c.TenantID == tenantID && c.TrainerID == trainerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) ClassBookingCounts(_ context.Context, tenantID string, classIDs []string) (map[string]scheduling.ClassBookingCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[string]bool, len(classIDs))
	for _, id := range classIDs {
		want[id] = true
	}
	out := make(map[string]scheduling.ClassBookingCount, len(classIDs))
	for _, cb := range m.classBookings {
		if cb.TenantID != tenantID || !want[cb.ClassID] {
			continue
		}
		c := out[cb.ClassID]
		c.Total++
		if cb.Status.Live() {
			c.Live++
		}
		out[cb.ClassID] = c
	}
	return out, nil
}

func hasStatus(statuses []scheduling.BookingStatus, s scheduling.BookingStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func cloneBooking(b scheduling.Booking) scheduling.Booking {
	b.Objectives = append([]string{}, b.Objectives...)
	b.Restrictions = append([]string{}, b.Restrictions...)
	if b.CheckInAt != nil {
		t := *b.CheckInAt
		b.CheckInAt = &t
	}
	return b
}
