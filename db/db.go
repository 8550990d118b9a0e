package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/padraicbc/trainagenda/config"
	"github.com/padraicbc/trainagenda/models"
)

// Setup opens a PostgreSQL connection using the provided config.
func Setup(cfg *config.Config) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.PostgresDSN())))
	db := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(context.Background()); err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	return db
}

// CreateTables creates all tables in dependency order.
func CreateTables(ctx context.Context, db *bun.DB) error {
	tables := []struct {
		model any
		fks   []string
	}{
		{model: (*models.User)(nil)},
		{model: (*models.Trainer)(nil)},
		{model: (*models.Member)(nil)},
		{model: (*models.EvaluationSlot)(nil), fks: []string{
			`("trainer_id") REFERENCES "trainers" ("id") ON DELETE CASCADE`,
		}},
		{model: (*models.EvaluationBooking)(nil), fks: []string{
			`("slot_id") REFERENCES "evaluation_slots" ("id") ON DELETE CASCADE`,
			`("member_id") REFERENCES "members" ("id")`,
		}},
		{model: (*models.Measurement)(nil), fks: []string{
			`("booking_id") REFERENCES "evaluation_bookings" ("id") ON DELETE CASCADE`,
		}},
		{model: (*models.Class)(nil), fks: []string{
			`("trainer_id") REFERENCES "trainers" ("id") ON DELETE CASCADE`,
		}},
		{model: (*models.ClassBooking)(nil), fks: []string{
			`("class_id") REFERENCES "classes" ("id")`,
		}},
	}

	for _, t := range tables {
		q := db.NewCreateTable().Model(t.model).IfNotExists()
		for _, fk := range t.fks {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", t.model, err)
		}
	}

	constraints := []string{
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'evaluation_slots_window') THEN ALTER TABLE evaluation_slots ADD CONSTRAINT evaluation_slots_window CHECK (start_at < end_at); END IF; END $$`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'classes_window') THEN ALTER TABLE classes ADD CONSTRAINT classes_window CHECK (start_at < end_at); END IF; END $$`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'classes_capacity') THEN ALTER TABLE classes ADD CONSTRAINT classes_capacity CHECK (capacity >= 0); END IF; END $$`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'evaluation_bookings_status') THEN ALTER TABLE evaluation_bookings ADD CONSTRAINT evaluation_bookings_status CHECK (status IN ('booked', 'attended', 'cancelled')); END IF; END $$`,
		// At most one live booking per slot, whatever races the service lets through.
		`CREATE UNIQUE INDEX IF NOT EXISTS evaluation_bookings_live_slot ON evaluation_bookings (slot_id) WHERE status <> 'cancelled'`,
		`CREATE INDEX IF NOT EXISTS evaluation_slots_trainer ON evaluation_slots (tenant_id, trainer_id, start_at)`,
		`CREATE INDEX IF NOT EXISTS classes_trainer ON classes (tenant_id, trainer_id, start_at)`,
		`CREATE INDEX IF NOT EXISTS class_bookings_class ON class_bookings (class_id)`,
	}
	for _, stmt := range constraints {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Printf("constraint: %v", err)
		}
	}

	return nil
}
