package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Profile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"` // "user" | "admin"
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the profile bypasses the credit gate.
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}
