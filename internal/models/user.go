package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles. ADMIN is a strict superset of USER.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// ValidRole reports whether s is one of the known roles.
func ValidRole(s string) bool {
	return s == RoleUser || s == RoleAdmin
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         *string   `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserWithCounts augments a user with owned/assigned task totals for
// the admin listing.
type UserWithCounts struct {
	User
	TaskCount     int `json:"taskCount"`
	AssignedCount int `json:"assignedCount"`
}
