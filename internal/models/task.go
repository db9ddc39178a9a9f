package models

import "time"

// Kanban columns. Any status may move to any other.
const (
	TaskToDo       = "To Do"
	TaskInProgress = "In Progress"
	TaskDone       = "Done"
)

const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

var TaskStatuses = []string{TaskToDo, TaskInProgress, TaskDone}

type Task struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProjectID  uint      `gorm:"index;not null" json:"project_id"`
	AssignedTo *uint     `gorm:"index" json:"assigned_to"`
	Assignee   *User     `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	CreatedBy  uint      `json:"created_by"`
	Title      string    `gorm:"size:200;not null" json:"title"`
	Status     string    `gorm:"size:50;not null;index" json:"status"`
	Priority   string    `gorm:"size:20;not null" json:"priority"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Task) TableName() string { return "tasks" }

func IsValidTaskStatus(status string) bool {
	switch status {
	case TaskToDo, TaskInProgress, TaskDone:
		return true
	}
	return false
}

func IsValidPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
