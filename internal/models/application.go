package models

import "time"

const (
	ApplicationPending  = "Pending"
	ApplicationAccepted = "Accepted"
	ApplicationRejected = "Rejected"
)

// Application is a request to join a project in a given role.
// Status only ever moves Pending -> Accepted or Pending -> Rejected.
type Application struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ProjectID      uint       `gorm:"index;not null" json:"project_id"`
	Project        *Project   `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	ApplicantID    uint       `gorm:"index;not null" json:"applicant_id"`
	Applicant      *User      `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`
	RoleAppliedFor string     `gorm:"size:100;not null" json:"role_applied_for"`
	Message        string     `gorm:"type:text" json:"message"`
	Status         string     `gorm:"size:20;not null;index" json:"status"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Application) TableName() string { return "applications" }

func (a *Application) IsTerminal() bool {
	return a.Status == ApplicationAccepted || a.Status == ApplicationRejected
}
