package models

import (
	"time"

	"github.com/uptrace/bun"
)

// EvaluationBooking is a member's reservation of an evaluation slot.
type EvaluationBooking struct {
	bun.BaseModel `bun:"table:evaluation_bookings,alias:b"`

	ID             string     `bun:"id,pk,type:uuid" json:"id"`
	SlotID         string     `bun:"slot_id,notnull,type:uuid" json:"slotId"`
	MemberID       string     `bun:"member_id,notnull,type:uuid" json:"memberId"`
	TenantID       string     `bun:"tenant_id,notnull,type:uuid" json:"tenantId"`
	Status         string     `bun:"status,notnull" json:"status"`
	CheckInAt      *time.Time `bun:"check_in_at,type:timestamptz" json:"checkInAt,omitempty"`
	Notes          string     `bun:"notes,notnull,default:''" json:"notes"`
	Objectives     []string   `bun:"objectives,array" json:"objectives"`
	Restrictions   []string   `bun:"restrictions,array" json:"restrictions"`
	MedicalHistory string     `bun:"medical_history,notnull,default:''" json:"medicalHistory"`
	CreatedAt      time.Time  `bun:"created_at,notnull,type:timestamptz" json:"createdAt"`
	UpdatedAt      time.Time  `bun:"updated_at,notnull,type:timestamptz" json:"updatedAt"`
}

// Measurement is one typed value recorded during an evaluation.
type Measurement struct {
	bun.BaseModel `bun:"table:evaluation_measurements,alias:em"`

	ID        int64   `bun:"id,pk,autoincrement" json:"id"`
	BookingID string  `bun:"booking_id,notnull,type:uuid,unique:measurement_type_per_booking" json:"bookingId"`
	Type      string  `bun:"type,notnull,unique:measurement_type_per_booking" json:"type"`
	Value     float64 `bun:"value,notnull" json:"value"`
	Unit      string  `bun:"unit,notnull,default:''" json:"unit"`
}
