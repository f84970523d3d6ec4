package handlers

import (
	"context"

	"github.com/dimitrije/taskhub-api/internal/authz"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/dimitrije/taskhub-api/internal/oauth"
	"github.com/dimitrije/taskhub-api/internal/services"
	"github.com/google/uuid"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	Register(ctx context.Context, email, password string, name *string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, email, password string, name *string, role string) (*models.User, error)
	List(ctx context.Context) ([]models.UserWithCounts, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	PromoteToAdmin(ctx context.Context, email string) (*models.User, bool, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, password *string) (*models.User, error)
}

// TaskServiceInterface defines the methods used by handlers from TaskService
type TaskServiceInterface interface {
	List(ctx context.Context, scope authz.Scope, p services.ListTasksParams) ([]models.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Create(ctx context.Context, p services.CreateTaskParams) (*models.Task, error)
	Update(ctx context.Context, id uuid.UUID, p services.UpdateTaskParams) (*models.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	Generate(userID uuid.UUID, email, role string) (string, error)
}
