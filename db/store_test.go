package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/padraicbc/trainagenda/scheduling"
)

const (
	tenantID  = "7b0f1f64-9a0e-4a47-8f57-7d1f6f3f0c01"
	trainerID = "0d3c1b1e-3f6a-4c7b-9a55-2b8f4b9d3e11"
	slotID    = "5e9a4c2d-1b7f-4e3a-8c6d-9f0e1a2b3c41"
	bookingID = "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c51"
	classID   = "c0ffee00-1234-4abc-9def-56789abcdef1"
	memberID  = "f00dbabe-4321-4cba-8fed-9876543210ab"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	bdb := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = bdb.Close()
	})
	return NewStore(bdb), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestStoreTrainer(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(q(`FROM "trainers" AS "t" WHERE (t.id = '` + trainerID + `')`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "tenant_id", "name"}).
			AddRow(trainerID, "u-1", tenantID, "Ana"))

	tr, err := st.Trainer(context.Background(), trainerID)
	require.NoError(t, err)
	assert.Equal(t, scheduling.Trainer{ID: trainerID, UserID: "u-1", TenantID: tenantID, Name: "Ana"}, *tr)
}

func TestStoreTrainerNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(q(`FROM "trainers" AS "t"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "tenant_id", "name"}))

	_, err := st.Trainer(context.Background(), trainerID)
	assert.ErrorIs(t, err, scheduling.ErrNotFound)

	// Ids that are not uuids never reach Postgres.
	_, err = st.Trainer(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, scheduling.ErrNotFound)
}

func TestStoreSlotsByTrainer(t *testing.T) {
	st, mock := newMockStore(t)
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q(`FROM "evaluation_slots" AS "s" WHERE (s.tenant_id = '`+tenantID+`') AND (s.trainer_id = '`+trainerID+`')`) + `.*` + q(`ORDER BY s.start_at ASC, s.id ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "trainer_id", "tenant_id", "start_at", "end_at", "location"}).
			AddRow(slotID, trainerID, tenantID, start, start.Add(30*time.Minute), "Room 1"))

	slots, err := st.SlotsByTrainer(context.Background(), tenantID, trainerID)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, scheduling.Slot{
		ID: slotID, TrainerID: trainerID, TenantID: tenantID,
		Start: start, End: start.Add(30 * time.Minute), Location: "Room 1",
	}, slots[0])
}

func TestStoreUpdateSlotMissingRow(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(q(`UPDATE "evaluation_slots" AS "s" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := st.UpdateSlot(context.Background(), scheduling.Slot{ID: slotID, TenantID: tenantID, Location: "x"})
	assert.ErrorIs(t, err, scheduling.ErrNotFound)
}

func TestStoreDeleteBooking(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(q(`DELETE FROM "evaluation_bookings" AS "b" WHERE (id = '`+bookingID+`') AND (tenant_id = '`+tenantID+`')`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, st.DeleteBooking(context.Background(), tenantID, bookingID))
}

func TestStoreBookingsBySlotsFiltersStatus(t *testing.T) {
	st, mock := newMockStore(t)
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q(`(b.slot_id IN ('`+slotID+`')) AND (b.status IN ('booked', 'attended'))`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slot_id", "member_id", "tenant_id", "status", "created_at", "updated_at"}).
			AddRow(bookingID, slotID, memberID, tenantID, "booked", created, created))

	got, err := st.BookingsBySlots(context.Background(), tenantID, []string{slotID, "junk"},
		scheduling.StatusBooked, scheduling.StatusAttended)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, scheduling.StatusBooked, got[0].Status)
	assert.Equal(t, []string{}, got[0].Objectives)
	assert.Nil(t, got[0].CheckInAt)
}

func TestStoreListBookings(t *testing.T) {
	st, mock := newMockStore(t)
	mock.MatchExpectationsInOrder(false)
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q(`SELECT count(*)`) + `.*` + q(`m.name ILIKE '%o\_a%'`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(q(`JOIN evaluation_slots AS s ON s.id = b.slot_id`) + `.*` +
		q(`(b.status = 'booked')`) + `.*` + q(`ORDER BY s.start_at DESC, b.id ASC LIMIT 5 OFFSET 5`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slot_id", "member_id", "tenant_id", "status", "created_at", "updated_at"}).
			AddRow(bookingID, slotID, memberID, tenantID, "booked", created, created))

	got, total, err := st.ListBookings(context.Background(), scheduling.BookingFilter{
		TenantID:  tenantID,
		TrainerID: trainerID,
		Status:    scheduling.StatusBooked,
		Search:    "o_a",
		Page:      2,
		Limit:     5,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, got, 1)
	assert.Equal(t, bookingID, got[0].ID)
}

func TestStoreClassBookingCounts(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(q(`count(*) FILTER (WHERE status <> 'cancelled') AS live`) + `.*GROUP BY`).
		WillReturnRows(sqlmock.NewRows([]string{"class_id", "total", "live"}).AddRow(classID, 4, 3))

	counts, err := st.ClassBookingCounts(context.Background(), tenantID, []string{classID})
	require.NoError(t, err)
	assert.Equal(t, scheduling.ClassBookingCount{Total: 4, Live: 3}, counts[classID])
}

func TestStoreMembersByIDs(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(q(`FROM "members" AS "m" WHERE (m.tenant_id = '`+tenantID+`') AND (m.id IN ('`+memberID+`'))`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "email"}).
			AddRow(memberID, tenantID, "Bruno Silva", nil))

	got, err := st.MembersByIDs(context.Background(), tenantID, []string{memberID})
	require.NoError(t, err)
	assert.Equal(t, scheduling.Member{ID: memberID, TenantID: tenantID, Name: "Bruno Silva"}, got[memberID])

	empty, err := st.MembersByIDs(context.Background(), tenantID, []string{"x"})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStoreRunInTx(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(q(`DELETE FROM "evaluation_measurements"`)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := st.RunInTx(ctx, func(ctx context.Context, tx scheduling.Store) error {
		return tx.ReplaceMeasurements(ctx, bookingID, nil)
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()
	boom := errors.New("boom")
	err = st.RunInTx(ctx, func(context.Context, scheduling.Store) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestTranslate(t *testing.T) {
	assert.ErrorIs(t, translate(fmt.Errorf("scan: %w", sql.ErrNoRows), "slot"), scheduling.ErrNotFound)

	boom := errors.New("connection reset")
	err := translate(boom, "slot")
	assert.ErrorIs(t, err, boom)
	assert.EqualError(t, err, "slot: connection reset")
	assert.False(t, errors.Is(err, scheduling.ErrConflict))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_x\\`, escapeLike(`50% off_x\`))
}
