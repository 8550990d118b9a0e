package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/padraicbc/trainagenda/models"
	"github.com/padraicbc/trainagenda/scheduling"
)

// Store implements scheduling.Store and scheduling.ProfileLookup on bun.
type Store struct {
	db bun.IDB
}

var (
	_ scheduling.Store         = (*Store)(nil)
	_ scheduling.ProfileLookup = (*Store)(nil)
)

// NewStore wraps a bun database or transaction.
func NewStore(db bun.IDB) *Store {
	return &Store{db: db}
}

// RunInTx runs fn in a database transaction. Inside a transaction fn simply
// joins it.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx scheduling.Store) error) error {
	bdb, ok := s.db.(*bun.DB)
	if !ok {
		return fn(ctx, s)
	}
	return bdb.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Store{db: tx})
	})
}

func (s *Store) Trainer(ctx context.Context, trainerID string) (*scheduling.Trainer, error) {
	if !validID(trainerID) {
		return nil, scheduling.NotFound("trainer")
	}
	var row models.Trainer
	if err := s.db.NewSelect().Model(&row).Where("t.id = ?", trainerID).Scan(ctx); err != nil {
		return nil, translate(err, "trainer")
	}
	t := toTrainer(row)
	return &t, nil
}

func (s *Store) MembersByIDs(ctx context.Context, tenantID string, ids []string) (map[string]scheduling.Member, error) {
	ids = validIDs(ids)
	out := make(map[string]scheduling.Member, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Member
	err := s.db.NewSelect().Model(&rows).
		Where("m.tenant_id = ?", tenantID).
		Where("m.id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("members: %w", err)
	}
	for _, r := range rows {
		out[r.ID] = toMember(r)
	}
	return out, nil
}

func (s *Store) CreateSlot(ctx context.Context, slot scheduling.Slot) error {
	row := fromSlot(slot)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return translate(err, "slot")
	}
	return nil
}

func (s *Store) Slot(ctx context.Context, tenantID, slotID string) (*scheduling.Slot, error) {
	if !validID(slotID) {
		return nil, scheduling.NotFound("slot")
	}
	var row models.EvaluationSlot
	err := s.db.NewSelect().Model(&row).
		Where("s.id = ?", slotID).
		Where("s.tenant_id = ?", tenantID).
		Scan(ctx)
	if err != nil {
		return nil, translate(err, "slot")
	}
	slot := toSlot(row)
	return &slot, nil
}

func (s *Store) UpdateSlot(ctx context.Context, slot scheduling.Slot) error {
	row := fromSlot(slot)
	res, err := s.db.NewUpdate().Model(&row).
		Column("start_at", "end_at", "location").
		WherePK().
		Where("s.tenant_id = ?", slot.TenantID).
		Exec(ctx)
	return affected(res, err, "slot")
}

func (s *Store) DeleteSlot(ctx context.Context, tenantID, slotID string) error {
	if !validID(slotID) {
		return scheduling.NotFound("slot")
	}
	res, err := s.db.NewDelete().Model((*models.EvaluationSlot)(nil)).
		Where("id = ?", slotID).
		Where("tenant_id = ?", tenantID).
		Exec(ctx)
	return affected(res, err, "slot")
}

func (s *Store) SlotsByTrainer(ctx context.Context, tenantID, trainerID string) ([]scheduling.Slot, error) {
	var rows []models.EvaluationSlot
	err := s.db.NewSelect().Model(&rows).
		Where("s.tenant_id = ?", tenantID).
		Where("s.trainer_id = ?", trainerID).
		OrderExpr("s.start_at ASC, s.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("slots: %w", err)
	}
	out := make([]scheduling.Slot, len(rows))
	for i, r := range rows {
		out[i] = toSlot(r)
	}
	return out, nil
}

func (s *Store) CreateBooking(ctx context.Context, b scheduling.Booking) error {
	row := fromBooking(b)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return translate(err, "booking")
	}
	return nil
}

func (s *Store) Booking(ctx context.Context, tenantID, bookingID string) (*scheduling.Booking, error) {
	if !validID(bookingID) {
		return nil, scheduling.NotFound("booking")
	}
	var row models.EvaluationBooking
	err := s.db.NewSelect().Model(&row).
		Where("b.id = ?", bookingID).
		Where("b.tenant_id = ?", tenantID).
		Scan(ctx)
	if err != nil {
		return nil, translate(err, "booking")
	}
	b := toBooking(row)
	return &b, nil
}

func (s *Store) UpdateBooking(ctx context.Context, b scheduling.Booking) error {
	row := fromBooking(b)
	res, err := s.db.NewUpdate().Model(&row).
		ExcludeColumn("id", "tenant_id", "created_at").
		WherePK().
		Where("b.tenant_id = ?", b.TenantID).
		Exec(ctx)
	return affected(res, err, "booking")
}

func (s *Store) DeleteBooking(ctx context.Context, tenantID, bookingID string) error {
	if !validID(bookingID) {
		return scheduling.NotFound("booking")
	}
	res, err := s.db.NewDelete().Model((*models.EvaluationBooking)(nil)).
		Where("id = ?", bookingID).
		Where("tenant_id = ?", tenantID).
		Exec(ctx)
	return affected(res, err, "booking")
}

func (s *Store) BookingsBySlots(ctx context.Context, tenantID string, slotIDs []string, statuses ...scheduling.BookingStatus) ([]scheduling.Booking, error) {
	slotIDs = validIDs(slotIDs)
	if len(slotIDs) == 0 {
		return nil, nil
	}
	var rows []models.EvaluationBooking
	q := s.db.NewSelect().Model(&rows).
		Where("b.tenant_id = ?", tenantID).
		Where("b.slot_id IN (?)", bun.In(slotIDs))
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, st := range statuses {
			names[i] = string(st)
		}
		q = q.Where("b.status IN (?)", bun.In(names))
	}
	if err := q.OrderExpr("b.created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("bookings: %w", err)
	}
	out := make([]scheduling.Booking, len(rows))
	for i, r := range rows {
		out[i] = toBooking(r)
	}
	return out, nil
}

// ListBookings filters on the slot start: From inclusive, To exclusive.
func (s *Store) ListBookings(ctx context.Context, f scheduling.BookingFilter) ([]scheduling.Booking, int, error) {
	var rows []models.EvaluationBooking
	q := s.db.NewSelect().Model(&rows).
		Join("JOIN evaluation_slots AS s ON s.id = b.slot_id").
		Where("b.tenant_id = ?", f.TenantID).
		Where("s.trainer_id = ?", f.TrainerID)
	if f.Status != "" {
		q = q.Where("b.status = ?", string(f.Status))
	}
	if !f.From.IsZero() {
		q = q.Where("s.start_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("s.start_at < ?", f.To)
	}
	if f.Search != "" {
		q = q.Join("LEFT JOIN members AS m ON m.id = b.member_id").
			Where("m.name ILIKE ?", "%"+escapeLike(f.Search)+"%")
	}
	total, err := q.OrderExpr("s.start_at DESC, b.id ASC").
		Limit(f.Limit).
		Offset(f.Offset()).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	out := make([]scheduling.Booking, len(rows))
	for i, r := range rows {
		out[i] = toBooking(r)
	}
	return out, total, nil
}

func (s *Store) Measurements(ctx context.Context, bookingID string) ([]scheduling.Measurement, error) {
	var rows []models.Measurement
	err := s.db.NewSelect().Model(&rows).
		Where("em.booking_id = ?", bookingID).
		OrderExpr("em.type ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("measurements: %w", err)
	}
	out := make([]scheduling.Measurement, len(rows))
	for i, r := range rows {
		out[i] = toMeasurement(r)
	}
	return out, nil
}

// ReplaceMeasurements deletes the booking's measurements and inserts ms. Run
// it inside RunInTx so readers never see a half-replaced set.
func (s *Store) ReplaceMeasurements(ctx context.Context, bookingID string, ms []scheduling.Measurement) error {
	_, err := s.db.NewDelete().Model((*models.Measurement)(nil)).
		Where("booking_id = ?", bookingID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clear measurements: %w", err)
	}
	if len(ms) == 0 {
		return nil
	}
	rows := make([]models.Measurement, len(ms))
	for i, m := range ms {
		rows[i] = fromMeasurement(bookingID, m)
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return translate(err, "measurement")
	}
	return nil
}

func (s *Store) CreateClass(ctx context.Context, class scheduling.Class) error {
	row := fromClass(class)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return translate(err, "class")
	}
	return nil
}

func (s *Store) Class(ctx context.Context, tenantID, classID string) (*scheduling.Class, error) {
	if !validID(classID) {
		return nil, scheduling.NotFound("class")
	}
	var row models.Class
	err := s.db.NewSelect().Model(&row).
		Where("c.id = ?", classID).
		Where("c.tenant_id = ?", tenantID).
		Scan(ctx)
	if err != nil {
		return nil, translate(err, "class")
	}
	c := toClass(row)
	return &c, nil
}

func (s *Store) UpdateClass(ctx context.Context, class scheduling.Class) error {
	row := fromClass(class)
	res, err := s.db.NewUpdate().Model(&row).
		ExcludeColumn("id", "trainer_id", "tenant_id").
		WherePK().
		Where("c.tenant_id = ?", class.TenantID).
		Exec(ctx)
	return affected(res, err, "class")
}

func (s *Store) DeleteClass(ctx context.Context, tenantID, classID string) error {
	if !validID(classID) {
		return scheduling.NotFound("class")
	}
	res, err := s.db.NewDelete().Model((*models.Class)(nil)).
		Where("id = ?", classID).
		Where("tenant_id = ?", tenantID).
		Exec(ctx)
	return affected(res, err, "class")
}

func (s *Store) ClassesByTrainer(ctx context.Context, tenantID, trainerID string) ([]scheduling.Class, error) {
	var rows []models.Class
	err := s.db.NewSelect().Model(&rows).
		Where("c.tenant_id = ?", tenantID).
		Where("c.trainer_id = ?", trainerID).
		OrderExpr("c.start_at ASC, c.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("classes: %w", err)
	}
	out := make([]scheduling.Class, len(rows))
	for i, r := range rows {
		out[i] = toClass(r)
	}
	return out, nil
}

func (s *Store) ClassBookingCounts(ctx context.Context, tenantID string, classIDs []string) (map[string]scheduling.ClassBookingCount, error) {
	classIDs = validIDs(classIDs)
	out := make(map[string]scheduling.ClassBookingCount, len(classIDs))
	if len(classIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ClassID string `bun:"class_id"`
		Total   int    `bun:"total"`
		Live    int    `bun:"live"`
	}
	err := s.db.NewSelect().Model((*models.ClassBooking)(nil)).
		Column("class_id").
		ColumnExpr("count(*) AS total").
		ColumnExpr("count(*) FILTER (WHERE status <> ?) AS live", string(scheduling.StatusCancelled)).
		Where("tenant_id = ?", tenantID).
		Where("class_id IN (?)", bun.In(classIDs)).
		Group("class_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("class booking counts: %w", err)
	}
	for _, r := range rows {
		out[r.ClassID] = scheduling.ClassBookingCount{Total: r.Total, Live: r.Live}
	}
	return out, nil
}

// translate maps driver errors onto scheduling error kinds.
func translate(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return scheduling.NotFound(what)
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
		if pgErr.Field('n') == "evaluation_bookings_live_slot" {
			return scheduling.Conflict("this slot already has an active booking")
		}
		return scheduling.Conflict(what + " conflicts with existing records")
	}
	return fmt.Errorf("%s: %w", what, err)
}

func affected(res sql.Result, err error, what string) error {
	if err != nil {
		return translate(err, what)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return scheduling.NotFound(what)
	}
	return nil
}

// validID rejects ids Postgres would refuse to cast to uuid.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			out = append(out, id)
		}
	}
	return out
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
