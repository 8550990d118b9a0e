package models

import "github.com/uptrace/bun"

// Trainer is a tenant's trainer. UserID links the login that manages it.
type Trainer struct {
	bun.BaseModel `bun:"table:trainers,alias:t"`

	ID       string  `bun:"id,pk,type:uuid" json:"id"`
	UserID   *string `bun:"user_id,type:uuid" json:"userId,omitempty"`
	TenantID string  `bun:"tenant_id,notnull,type:uuid" json:"tenantId"`
	Name     string  `bun:"name,notnull" json:"name"`
}
