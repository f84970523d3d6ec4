package handlers

import (
	"context"
	"errors"

	"github.com/dimitrije/taskhub-api/internal/authz"
	"github.com/dimitrije/taskhub-api/internal/config"
	"github.com/dimitrije/taskhub-api/internal/middleware"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/dimitrije/taskhub-api/internal/services"
	"github.com/dimitrije/taskhub-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type UserHandler struct {
	cfg         *config.Config
	userService UserServiceInterface
}

func NewUserHandler(cfg *config.Config, userService UserServiceInterface) *UserHandler {
	return &UserHandler{cfg: cfg, userService: userService}
}

func (h *UserHandler) List(c *drift.Context) {
	users, err := h.userService.List(context.Background())
	if err != nil {
		c.InternalServerError("failed to fetch users")
		return
	}

	response := make([]dto.UserWithCountsResponse, len(users))
	for i, u := range users {
		response[i] = dto.UserWithCountsResponse{
			UserResponse:  toUserResponse(&u.User),
			TaskCount:     u.TaskCount,
			AssignedCount: u.AssignedCount,
		}
	}

	_ = c.JSON(200, response)
}

func (h *UserHandler) Create(c *drift.Context) {
	var req dto.CreateUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		c.BadRequest("email and password are required")
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		c.BadRequest("invalid role: " + role)
		return
	}

	user, err := h.userService.Create(context.Background(), req.Email, req.Password, req.Name, role)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			_ = c.JSON(409, map[string]string{"error": "user already exists"})
			return
		}
		c.InternalServerError("failed to create user")
		return
	}

	_ = c.JSON(201, toUserResponse(user))
}

func (h *UserHandler) UpdateRole(c *drift.Context) {
	actor := middleware.GetActor(c)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	// RequireAdmin already gates this route; the remaining case is an
	// admin targeting themselves.
	if !authz.CanChangeRole(actor, userID) {
		c.BadRequest("cannot change your own role")
		return
	}

	var req dto.UpdateRoleRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if !models.ValidRole(req.Role) {
		c.BadRequest("invalid role: " + req.Role)
		return
	}

	user, err := h.userService.UpdateRole(context.Background(), userID, req.Role)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.NotFound("user not found")
			return
		}
		c.InternalServerError("failed to update role")
		return
	}

	_ = c.JSON(200, toUserResponse(user))
}

func (h *UserHandler) Delete(c *drift.Context) {
	actor := middleware.GetActor(c)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	if !authz.CanDeleteUser(actor, userID) {
		c.BadRequest("cannot delete your own account")
		return
	}

	if err := h.userService.Delete(context.Background(), userID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.NotFound("user not found")
			return
		}
		c.InternalServerError("failed to delete user")
		return
	}

	c.Response.WriteHeader(204)
}

// PromoteAdmin is the unauthenticated bootstrap path for the first
// admin. The secret is only checked when the caller supplies one.
func (h *UserHandler) PromoteAdmin(c *drift.Context) {
	var req dto.PromoteAdminRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Email == "" {
		c.BadRequest("email is required")
		return
	}

	if req.SecretKey != "" && req.SecretKey != h.cfg.AdminSecretKey {
		c.Forbidden("invalid secret key")
		return
	}

	user, alreadyAdmin, err := h.userService.PromoteToAdmin(context.Background(), req.Email)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.NotFound("user not found")
			return
		}
		c.InternalServerError("failed to promote user")
		return
	}

	message := "User promoted to admin successfully"
	if alreadyAdmin {
		message = "User is already an admin"
	}

	_ = c.JSON(200, dto.PromoteAdminResponse{
		Message: message,
		User:    toUserResponse(user),
	})
}

func (h *UserHandler) GetMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	user, err := h.userService.GetByID(context.Background(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.NotFound("user not found")
			return
		}
		c.InternalServerError("failed to fetch user")
		return
	}

	_ = c.JSON(200, toUserResponse(user))
}

func (h *UserHandler) UpdateMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == nil && req.Password == nil {
		c.BadRequest("nothing to update")
		return
	}

	user, err := h.userService.UpdateProfile(context.Background(), userID, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.NotFound("user not found")
			return
		}
		c.InternalServerError("failed to update profile")
		return
	}

	_ = c.JSON(200, toUserResponse(user))
}

func toUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
