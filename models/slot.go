package models

import (
	"time"

	"github.com/uptrace/bun"
)

// EvaluationSlot is a time window a trainer offers for physical evaluations.
type EvaluationSlot struct {
	bun.BaseModel `bun:"table:evaluation_slots,alias:s"`

	ID        string    `bun:"id,pk,type:uuid" json:"id"`
	TrainerID string    `bun:"trainer_id,notnull,type:uuid" json:"trainerId"`
	TenantID  string    `bun:"tenant_id,notnull,type:uuid" json:"tenantId"`
	StartAt   time.Time `bun:"start_at,notnull,type:timestamptz" json:"startAt"`
	EndAt     time.Time `bun:"end_at,notnull,type:timestamptz" json:"endAt"`
	Location  string    `bun:"location,notnull" json:"location"`
}
