package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/taskhub-api/internal/authz"
	"github.com/dimitrije/taskhub-api/internal/database"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrAssigneeNotFound = errors.New("assignee does not exist")
)

type TaskService struct {
	db *database.DB
}

func NewTaskService(db *database.DB) *TaskService {
	return &TaskService{db: db}
}

type ListTasksParams struct {
	// Status narrows to a single status when set.
	Status *string
	// Descending flips the due-date sort; default is ascending.
	Descending bool
}

const taskColumns = `id, title, description, status, due_date, owner_id, assigned_to, created_at, updated_at`

// List returns the tasks visible under scope, ordered by due date in
// the requested direction. Tasks without a due date sort last; ties
// break on created_at then id so the order is fully deterministic.
func (s *TaskService) List(ctx context.Context, scope authz.Scope, p ListTasksParams) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := []any{}
	where := ""

	if !scope.All {
		args = append(args, scope.UserID)
		where = fmt.Sprintf(" WHERE (owner_id = $%d OR assigned_to = $%d)", len(args), len(args))
	}
	if p.Status != nil {
		args = append(args, *p.Status)
		if where == "" {
			where = fmt.Sprintf(" WHERE status = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND status = $%d", len(args))
		}
	}

	dir := "ASC"
	if p.Descending {
		dir = "DESC"
	}
	order := fmt.Sprintf(" ORDER BY due_date %s NULLS LAST, created_at %s, id %s", dir, dir, dir)

	rows, err := s.db.Pool.Query(ctx, query+where+order, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.Status, &t.DueDate,
			&t.OwnerID, &t.AssignedTo, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *TaskService) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var t models.Task
	err := s.db.Pool.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = $1
	`, id).Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.DueDate,
		&t.OwnerID, &t.AssignedTo, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &t, nil
}

type CreateTaskParams struct {
	Title       string
	Description string
	DueDate     *time.Time
	OwnerID     uuid.UUID
	AssignedTo  *uuid.UUID
}

func (s *TaskService) Create(ctx context.Context, p CreateTaskParams) (*models.Task, error) {
	var t models.Task
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, due_date, owner_id, assigned_to)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+taskColumns+`
	`, p.Title, p.Description, p.DueDate, p.OwnerID, p.AssignedTo).Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.DueDate,
		&t.OwnerID, &t.AssignedTo, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrAssigneeNotFound
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &t, nil
}

type UpdateTaskParams struct {
	Title       *string
	Description *string
	Status      *string
	DueDate     *time.Time
	AssignedTo  *uuid.UUID
}

// Update applies a partial update; nil fields keep their stored value.
// Like the rest of the API, a due date or assignee can be set but not
// cleared through this path.
func (s *TaskService) Update(ctx context.Context, id uuid.UUID, p UpdateTaskParams) (*models.Task, error) {
	var t models.Task
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE tasks SET
			title = COALESCE($1, title),
			description = COALESCE($2, description),
			status = COALESCE($3, status),
			due_date = COALESCE($4, due_date),
			assigned_to = COALESCE($5, assigned_to),
			updated_at = NOW()
		WHERE id = $6
		RETURNING `+taskColumns+`
	`, p.Title, p.Description, p.Status, p.DueDate, p.AssignedTo, id).Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.DueDate,
		&t.OwnerID, &t.AssignedTo, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		if isForeignKeyViolation(err) {
			return nil, ErrAssigneeNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}
