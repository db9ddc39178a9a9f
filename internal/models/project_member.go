package models

import "time"

// ProjectMember grants a user a role on a project. Rows are only written by
// accepting an application.
type ProjectMember struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProjectID     uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"project_id"`
	UserID        uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"user_id"`
	User          *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role          string    `gorm:"size:100;not null" json:"role"` // e.g. Frontend Lead
	ApplicationID uint      `gorm:"index" json:"application_id"`
	CreatedAt     time.Time `json:"joined_at"`
}

func (ProjectMember) TableName() string { return "project_members" }
