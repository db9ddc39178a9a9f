package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/ideahub/backend/internal/middleware"
	"github.com/huangang/ideahub/backend/internal/services"
	"github.com/huangang/ideahub/backend/pkg/response"
	"gorm.io/gorm"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(db *gorm.DB) *TaskHandler {
	return &TaskHandler{taskService: services.NewTaskService(db)}
}

// Board returns a project's tasks by column
// GET /api/projects/:id/tasks
func (h *TaskHandler) Board(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	board, err := h.taskService.Board(projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, board)
}

// POST /api/projects/:id/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Create(projectID, middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, task)
}

// UpdateStatus moves a task between columns
// PUT /api/tasks/:id/status
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.SetStatus(taskID, middleware.GetUserID(c), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, task)
}
