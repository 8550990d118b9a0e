package models

import "github.com/uptrace/bun"

// User is an API user with bcrypt-hashed password.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID       string `bun:"id,pk,type:uuid" json:"id"`
	Username string `bun:"username,notnull,unique" json:"username"`
	Password string `bun:"password,notnull" json:"-"`
	Role     string `bun:"role,notnull" json:"role"`
	TenantID string `bun:"tenant_id,notnull,type:uuid" json:"tenantId"`
}
