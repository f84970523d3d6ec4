package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/dimitrije/taskhub-api/internal/authz"
	"github.com/dimitrije/taskhub-api/internal/middleware"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/dimitrije/taskhub-api/internal/services"
	"github.com/dimitrije/taskhub-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type TaskHandler struct {
	taskService TaskServiceInterface
}

func NewTaskHandler(taskService TaskServiceInterface) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) List(c *drift.Context) {
	actor := middleware.GetActor(c)
	if actor.ID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	params := services.ListTasksParams{}

	if status := c.QueryParam("status"); status != "" {
		if !models.ValidStatus(status) {
			c.BadRequest("invalid status: " + status)
			return
		}
		params.Status = &status
	}

	switch order := c.QueryParam("order"); order {
	case "", "asc":
	case "desc":
		params.Descending = true
	default:
		c.BadRequest("invalid order: " + order)
		return
	}

	tasks, err := h.taskService.List(context.Background(), authz.TaskScope(actor), params)
	if err != nil {
		c.InternalServerError("failed to fetch tasks")
		return
	}

	response := make([]dto.TaskResponse, len(tasks))
	for i, t := range tasks {
		response[i] = toTaskResponse(&t)
	}

	_ = c.JSON(200, response)
}

func (h *TaskHandler) Get(c *drift.Context) {
	actor := middleware.GetActor(c)
	if actor.ID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	task, err := h.taskService.GetByID(context.Background(), taskID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			c.NotFound("task not found")
			return
		}
		c.InternalServerError("failed to get task")
		return
	}

	if !authz.CanViewTask(actor, task) {
		c.Forbidden("not allowed to view this task")
		return
	}

	_ = c.JSON(200, toTaskResponse(task))
}

func (h *TaskHandler) Create(c *drift.Context) {
	actor := middleware.GetActor(c)
	if actor.ID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Title == "" || req.Description == "" {
		c.BadRequest("title and description are required")
		return
	}

	// Assigning at creation is admin-only; the same request without an
	// assignee would succeed.
	if req.AssignedTo != nil && !authz.CanAssignTasks(actor) {
		c.Forbidden("assigning tasks requires admin")
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		c.BadRequest("invalid due date")
		return
	}

	task, err := h.taskService.Create(context.Background(), services.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		OwnerID:     actor.ID,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		if errors.Is(err, services.ErrAssigneeNotFound) {
			c.BadRequest("assignee does not exist")
			return
		}
		c.InternalServerError("failed to create task")
		return
	}

	_ = c.JSON(201, toTaskResponse(task))
}

func (h *TaskHandler) Update(c *drift.Context) {
	actor := middleware.GetActor(c)
	if actor.ID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	ctx := context.Background()

	// Permission is decided against the pre-update record.
	existing, err := h.taskService.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			c.NotFound("task not found")
			return
		}
		c.InternalServerError("failed to get task")
		return
	}

	if !authz.CanUpdateTask(actor, existing) {
		c.Forbidden("not allowed to update this task")
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.AssignedTo != nil && !authz.CanAssignTasks(actor) {
		c.Forbidden("assigning tasks requires admin")
		return
	}

	if req.Status != nil && !models.ValidStatus(*req.Status) {
		c.BadRequest("invalid status: " + *req.Status)
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		c.BadRequest("invalid due date")
		return
	}

	task, err := h.taskService.Update(ctx, taskID, services.UpdateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     dueDate,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			c.NotFound("task not found")
			return
		}
		if errors.Is(err, services.ErrAssigneeNotFound) {
			c.BadRequest("assignee does not exist")
			return
		}
		c.InternalServerError("failed to update task")
		return
	}

	_ = c.JSON(200, toTaskResponse(task))
}

func (h *TaskHandler) Delete(c *drift.Context) {
	actor := middleware.GetActor(c)
	if actor.ID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	ctx := context.Background()

	existing, err := h.taskService.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			c.NotFound("task not found")
			return
		}
		c.InternalServerError("failed to get task")
		return
	}

	if !authz.CanDeleteTask(actor, existing) {
		c.Forbidden("not allowed to delete this task")
		return
	}

	if err := h.taskService.Delete(ctx, taskID); err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			c.NotFound("task not found")
			return
		}
		c.InternalServerError("failed to delete task")
		return
	}

	c.Response.WriteHeader(204)
}

// parseDueDate accepts RFC 3339 timestamps and bare dates, the two
// formats the frontend sends.
func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, *raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toTaskResponse(t *models.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		DueDate:     t.DueDate,
		OwnerID:     t.OwnerID,
		AssignedTo:  t.AssignedTo,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
