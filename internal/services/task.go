package services

import (
	"strings"

	"github.com/huangang/ideahub/backend/internal/models"
	"github.com/huangang/ideahub/backend/pkg/logger"
	"github.com/huangang/ideahub/backend/pkg/metrics"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type TaskService struct {
	db *gorm.DB
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{db: db}
}

type CreateTaskRequest struct {
	Title      string `json:"title" binding:"required,max=200"`
	Status     string `json:"status"`
	AssignedTo *uint  `json:"assigned_to"`
	Priority   string `json:"priority"`
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type TaskColumn struct {
	Status string        `json:"status"`
	Count  int           `json:"count"`
	Tasks  []models.Task `json:"tasks"`
}

// TaskBoard is a project's tasks grouped into kanban columns.
type TaskBoard struct {
	ProjectID uint         `json:"project_id"`
	Total     int          `json:"total"`
	Columns   []TaskColumn `json:"columns"`
}

// Create adds a task to a project, in To Do unless another column is given. Only participants may create tasks
// and the assignee, when set, must be a participant too.
func (s *TaskService) Create(projectID, creatorID uint, req *CreateTaskRequest) (*models.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, validationf("title is required")
	}
	status := req.Status
	if status == "" {
		status = models.TaskToDo
	}
	if !models.IsValidTaskStatus(status) {
		return nil, validationf("status must be one of %s", strings.Join(models.TaskStatuses, ", "))
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.IsValidPriority(priority) {
		return nil, validationf("priority must be Low, Medium or High")
	}

	project, err := loadProject(s.db, projectID)
	if err != nil {
		return nil, err
	}
	if err := requireParticipant(s.db, project, creatorID); err != nil {
		return nil, err
	}

	if req.AssignedTo != nil {
		ok, err := isParticipant(s.db, project, *req.AssignedTo)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, validationf("assignee must be a project participant")
		}
	}

	task := models.Task{
		ProjectID:  projectID,
		AssignedTo: req.AssignedTo,
		CreatedBy:  creatorID,
		Title:      title,
		Status:     status,
		Priority:   priority,
	}
	if err := s.db.Create(&task).Error; err != nil {
		return nil, err
	}

	logger.Info().Uint("task_id", task.ID).Uint("project_id", projectID).Msg("task created")
	return &task, nil
}

// SetStatus moves a task to any column.
func (s *TaskService) SetStatus(taskID, requesterID uint, status string) (*models.Task, error) {
	if !models.IsValidTaskStatus(status) {
		return nil, validationf("status must be one of %s", strings.Join(models.TaskStatuses, ", "))
	}

	var task models.Task
	if err := s.db.First(&task, taskID).Error; err != nil {
		return nil, lookupErr(err, "task")
	}

	project, err := loadProject(s.db, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := requireParticipant(s.db, project, requesterID); err != nil {
		return nil, err
	}

	if task.Status != status {
		if err := s.db.Model(&task).Update("status", status).Error; err != nil {
			return nil, err
		}
		metrics.TaskStatusChanges.WithLabelValues(status).Inc()
	}
	task.Status = status
	return &task, nil
}

// Board lists a project's tasks by column in To Do, In Progress, Done order.
func (s *TaskService) Board(projectID uint) (*TaskBoard, error) {
	if _, err := loadProject(s.db, projectID); err != nil {
		return nil, err
	}

	var tasks []models.Task
	if err := s.db.Where("project_id = ?", projectID).
		Preload("Assignee").
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}

	grouped := lo.GroupBy(tasks, func(t models.Task) string { return t.Status })
	board := &TaskBoard{ProjectID: projectID, Total: len(tasks)}
	for _, status := range models.TaskStatuses {
		column := grouped[status]
		if column == nil {
			column = []models.Task{}
		}
		board.Columns = append(board.Columns, TaskColumn{Status: status, Count: len(column), Tasks: column})
	}
	return board, nil
}
