package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Class is a capacity-bounded group session run by a trainer.
type Class struct {
	bun.BaseModel `bun:"table:classes,alias:c"`

	ID        string    `bun:"id,pk,type:uuid" json:"id"`
	TrainerID string    `bun:"trainer_id,notnull,type:uuid" json:"trainerId"`
	TenantID  string    `bun:"tenant_id,notnull,type:uuid" json:"tenantId"`
	Name      string    `bun:"name,notnull" json:"name"`
	Type      string    `bun:"type,notnull" json:"type"`
	StartAt   time.Time `bun:"start_at,notnull,type:timestamptz" json:"startAt"`
	EndAt     time.Time `bun:"end_at,notnull,type:timestamptz" json:"endAt"`
	Location  string    `bun:"location,notnull" json:"location"`
	Capacity  int       `bun:"capacity,notnull" json:"capacity"`
}

// ClassBooking is a member's seat in a class. Rows are written by the
// member-facing app; this service only counts them.
type ClassBooking struct {
	bun.BaseModel `bun:"table:class_bookings,alias:cb"`

	ID       string `bun:"id,pk,type:uuid" json:"id"`
	ClassID  string `bun:"class_id,notnull,type:uuid" json:"classId"`
	MemberID string `bun:"member_id,notnull,type:uuid" json:"memberId"`
	TenantID string `bun:"tenant_id,notnull,type:uuid" json:"tenantId"`
	Status   string `bun:"status,notnull" json:"status"`
}
