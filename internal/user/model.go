package user

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin          Role = "admin"
	RolePropertyOwner  Role = "property_owner"
	RolePropertySeeker Role = "property_seeker"
)

// Roles lists every role in display order
var Roles = []Role{RoleAdmin, RolePropertyOwner, RolePropertySeeker}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePropertyOwner, RolePropertySeeker:
		return true
	}
	return false
}

type User struct {
	ID                         uuid.UUID  `json:"id"`
	Name                       string     `json:"name"`
	Email                      string     `json:"email"`
	PasswordHash               string     `json:"-"` // Never expose password hash in JSON
	Role                       Role       `json:"role"`
	IsVerified                 bool       `json:"isVerified"`
	VerificationToken          *string    `json:"-"`
	VerificationTokenExpiresAt *time.Time `json:"-"`
	CreatedAt                  time.Time  `json:"createdAt"`
	UpdatedAt                  time.Time  `json:"updatedAt"`
}

// Summary is the public projection embedded in property and bid views
type Summary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (u *User) Summary() *Summary {
	if u == nil {
		return nil
	}
	return &Summary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// CreateParams holds the fields needed to insert a user
type CreateParams struct {
	Name                  string
	Email                 string
	PasswordHash          string
	Role                  Role
	VerificationToken     string
	VerificationExpiresAt time.Time
}

// ListFilter narrows the admin user listing
type ListFilter struct {
	Role   Role
	Search string
	Page   int
	Limit  int
}

// AdminUpdate carries the fields an admin may change. Nil means unchanged.
type AdminUpdate struct {
	Role       *Role
	IsVerified *bool
}

// RoleCount is one row of the users-by-role breakdown
type RoleCount struct {
	Role  Role  `json:"role" bun:"role"`
	Count int64 `json:"count" bun:"count"`
}
