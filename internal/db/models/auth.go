package models

import (
	"time"

	"github.com/uptrace/bun"
)

// StaffUser represents a member of staff who logs in with a username.
type StaffUser struct {
	bun.BaseModel `bun:"table:staff_users,alias:su"`

	ID           string     `bun:"id,pk,type:varchar(36)"`
	Username     string     `bun:"username,notnull,unique"` // normalized (lower-case)
	DisplayName  string     `bun:"display_name,notnull"`
	Role         string     `bun:"role,notnull"` // master, admin or worker
	PasswordHash string     `bun:"password_hash,notnull"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	LastLoginAt  *time.Time `bun:"last_login_at"`
	DisabledAt   *time.Time `bun:"disabled_at"`
}

// Client represents a customer who logs in with a phone number.
type Client struct {
	bun.BaseModel `bun:"table:clients,alias:c"`

	ID           string     `bun:"id,pk,type:varchar(36)"`
	Phone        string     `bun:"phone,notnull,unique"` // normalized: digits with optional leading +
	Name         string     `bun:"name,notnull"`
	Email        *string    `bun:"email"`
	PasswordHash string     `bun:"password_hash,notnull"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	DisabledAt   *time.Time `bun:"disabled_at"`
}

// Session is the SQL rendition of a server-side session. Only the SHA-256 hash
// of the cookie token is stored. The principal is snapshotted at login.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:sess"`

	ID            string    `bun:"id,pk,type:varchar(36)"`
	TokenHash     string    `bun:"token_hash,notnull,unique"`
	PrincipalID   string    `bun:"principal_id,notnull"`
	PrincipalType string    `bun:"principal_type,notnull"`
	DisplayName   string    `bun:"display_name,notnull"`
	ContactHandle string    `bun:"contact_handle,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	ExpiresAt     time.Time `bun:"expires_at,notnull"`
}
