package dto

import (
	"time"

	"github.com/google/uuid"
)

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UserWithCountsResponse struct {
	UserResponse
	TaskCount     int `json:"taskCount"`
	AssignedCount int `json:"assignedCount"`
}

type CreateUserRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
	Role     string  `json:"role"`
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

type PromoteAdminRequest struct {
	Email     string `json:"email"`
	SecretKey string `json:"secretKey"`
}

type PromoteAdminResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}
