package models

import "github.com/uptrace/bun"

// Member is the profile of a gym member, read for booking display.
type Member struct {
	bun.BaseModel `bun:"table:members,alias:m"`

	ID       string  `bun:"id,pk,type:uuid" json:"id"`
	TenantID string  `bun:"tenant_id,notnull,type:uuid" json:"tenantId"`
	Name     string  `bun:"name,notnull" json:"name"`
	Email    *string `bun:"email" json:"email,omitempty"`
}
