package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dimitrije/taskhub-api/internal/database"
	"github.com/dimitrije/taskhub-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	name := fmt.Sprintf("Test User %d", f.counter)
	user := &models.User{
		Email: fmt.Sprintf("user%d@example.com", f.counter),
		Name:  &name,
		Role:  models.RoleUser,
	}

	password := "test-password"

	for _, opt := range opts {
		opt(user, &password)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	ctx := context.Background()
	err = f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password_hash, name, role, created_at, updated_at
	`, user.Email, string(hash), user.Name, user.Role).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name,
		&user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User, *string)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User, _ *string) {
		u.Email = email
	}
}

// WithName sets the user's name
func WithName(name string) UserOption {
	return func(u *models.User, _ *string) {
		u.Name = &name
	}
}

// WithRole sets the user's role
func WithRole(role string) UserOption {
	return func(u *models.User, _ *string) {
		u.Role = role
	}
}

// WithPassword sets the user's password
func WithPassword(password string) UserOption {
	return func(_ *models.User, p *string) {
		*p = password
	}
}

// CreateAdmin creates a test user with the ADMIN role
func (f *Fixtures) CreateAdmin(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	return f.CreateUser(t, append([]UserOption{WithRole(models.RoleAdmin)}, opts...)...)
}

// CreateTask creates a test task owned by the given user
func (f *Fixtures) CreateTask(t *testing.T, owner *models.User, opts ...TaskOption) *models.Task {
	t.Helper()
	f.counter++

	task := &models.Task{
		Title:       fmt.Sprintf("Test Task %d", f.counter),
		Description: fmt.Sprintf("Description for task %d", f.counter),
		Status:      models.StatusPending,
		OwnerID:     owner.ID,
	}

	for _, opt := range opts {
		opt(task)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, status, due_date, owner_id, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, title, description, status, due_date, owner_id, assigned_to, created_at, updated_at
	`, task.Title, task.Description, task.Status, task.DueDate, task.OwnerID, task.AssignedTo).Scan(
		&task.ID, &task.Title, &task.Description, &task.Status, &task.DueDate,
		&task.OwnerID, &task.AssignedTo, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	return task
}

// TaskOption configures a test task
type TaskOption func(*models.Task)

// WithTitle sets the task's title
func WithTitle(title string) TaskOption {
	return func(t *models.Task) {
		t.Title = title
	}
}

// WithStatus sets the task's status
func WithStatus(status string) TaskOption {
	return func(t *models.Task) {
		t.Status = status
	}
}

// WithDueDate sets the task's due date
func WithDueDate(due time.Time) TaskOption {
	return func(t *models.Task) {
		t.DueDate = &due
	}
}

// WithAssignee assigns the task to the given user
func WithAssignee(user *models.User) TaskOption {
	return func(t *models.Task) {
		t.AssignedTo = &user.ID
	}
}
