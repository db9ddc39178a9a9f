package services

import (
	"github.com/huangang/ideahub/backend/internal/models"
	"gorm.io/gorm"
)

// UserBrief is the public slice of a profile joined into listings.
type UserBrief struct {
	ID        uint   `json:"id"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url"`
}

func briefOf(u *models.User) UserBrief {
	if u == nil {
		return UserBrief{}
	}
	return UserBrief{ID: u.ID, FullName: u.FullName, Role: u.Role, AvatarURL: u.AvatarURL}
}

func loadProject(db *gorm.DB, id uint) (*models.Project, error) {
	var project models.Project
	if err := db.First(&project, id).Error; err != nil {
		return nil, lookupErr(err, "project")
	}
	return &project, nil
}

func ensureUserExists(db *gorm.DB, id uint) (*models.User, error) {
	if id == 0 {
		return nil, notFound("user")
	}
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, lookupErr(err, "user")
	}
	return &user, nil
}

// isParticipant reports whether userID owns or is a member of project.
func isParticipant(db *gorm.DB, project *models.Project, userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	if project.OwnerID == userID {
		return true, nil
	}
	return isMember(db, project.ID, userID)
}

func isMember(db *gorm.DB, projectID, userID uint) (bool, error) {
	var count int64
	if err := db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func requireParticipant(db *gorm.DB, project *models.Project, userID uint) error {
	ok, err := isParticipant(db, project, userID)
	if err != nil {
		return err
	}
	if !ok {
		return forbidden("only project participants can do this")
	}
	return nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// clampPage keeps offset paging in range for callers that skip request binding.
func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
