package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	UserRoleStudent   = "Student"
	UserRoleDeveloper = "Developer"
	UserRoleMentor    = "Mentor"
	UserRoleAdmin     = "Admin" // seeded only, never chosen at signup

	AuthTypeLocal = "local"
	AuthTypeLDAP  = "ldap"
)

// User is a platform account. ID and Email never change after signup.
type User struct {
	ID             uint                        `gorm:"primaryKey" json:"id"`
	Email          string                      `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password       string                      `gorm:"size:255" json:"-"` // Hashed password, empty for LDAP users
	FullName       string                      `gorm:"size:100;not null" json:"full_name"`
	Role           string                      `gorm:"size:50;default:Student;index" json:"role"`
	Skills         datatypes.JSONSlice[string] `json:"skills"`
	Bio            string                      `gorm:"type:text" json:"bio"`
	PortfolioLinks datatypes.JSONSlice[string] `json:"portfolio_links"`
	AvatarURL      string                      `gorm:"size:500" json:"avatar_url"`
	PhoneNumber    string                      `gorm:"size:20" json:"phone_number"`
	AuthType       string                      `gorm:"size:20;default:local" json:"auth_type"`
	IsActive       bool                        `gorm:"default:true" json:"is_active"`
	LastLogin      *time.Time                  `json:"last_login"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func IsValidUserRole(role string) bool {
	switch role {
	case UserRoleStudent, UserRoleDeveloper, UserRoleMentor:
		return true
	}
	return false
}
