package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project stages, in maturity order.
const (
	StageIdea      = "Idea"
	StagePrototype = "Prototype"
	StageMVP       = "MVP"
)

var Stages = []string{StageIdea, StagePrototype, StageMVP}

// Project is a posted idea. OwnerID is set once at creation.
type Project struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	OwnerID       uint                        `gorm:"index;not null" json:"owner_id"`
	Owner         *User                       `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Title         string                      `gorm:"size:200;not null" json:"title"`
	Description   string                      `gorm:"type:text;not null" json:"description"`
	Domain        string                      `gorm:"size:100" json:"domain"`     // e.g. Web Development
	Difficulty    string                      `gorm:"size:50" json:"difficulty"`  // e.g. Beginner
	Stage         string                      `gorm:"size:50;index" json:"stage"` // Idea, Prototype, MVP
	Tags          datatypes.JSONSlice[string] `json:"tags"`
	RequiredRoles datatypes.JSONSlice[string] `json:"required_roles"`
	RepoLink      string                      `gorm:"size:255" json:"repo_link"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
	DeletedAt     gorm.DeletedAt              `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }

func IsValidStage(stage string) bool {
	for _, s := range Stages {
		if s == stage {
			return true
		}
	}
	return false
}
