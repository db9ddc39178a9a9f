package services

import (
	"strings"

	"github.com/huangang/ideahub/backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type UserListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Role     string `form:"role"`
	Skill    string `form:"skill"`
	Search   string `form:"search"`
}

type UserListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.User `json:"items"`
}

type UpdateProfileRequest struct {
	FullName       *string   `json:"full_name"`
	Role           *string   `json:"role"`
	Skills         *[]string `json:"skills"`
	Bio            *string   `json:"bio"`
	PortfolioLinks *[]string `json:"portfolio_links"`
	AvatarURL      *string   `json:"avatar_url"`
	PhoneNumber    *string   `json:"phone_number"`
}

// List browses active profiles, optionally by role or skill.
func (s *UserService) List(req *UserListRequest) (*UserListResponse, error) {
	req.Page, req.PageSize = clampPage(req.Page, req.PageSize)

	query := s.db.Model(&models.User{}).Where("is_active = ?", true)
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if skill := strings.TrimSpace(req.Skill); skill != "" {
		query = query.Where(datatypes.JSONArrayQuery("skills").Contains(skill))
	}
	if search := strings.TrimSpace(req.Search); search != "" {
		query = query.Where("full_name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var users []models.User
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}

	return &UserListResponse{Total: total, Page: req.Page, PageSize: req.PageSize, Items: users}, nil
}

func (s *UserService) Get(id uint) (*models.User, error) {
	return ensureUserExists(s.db, id)
}

// UpdateProfile edits the caller's own profile. Email and ID never change.
func (s *UserService) UpdateProfile(id, requesterID uint, req *UpdateProfileRequest) (*models.User, error) {
	if id != requesterID {
		return nil, forbidden("users can only edit their own profile")
	}
	user, err := ensureUserExists(s.db, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, validationf("full_name cannot be empty")
		}
		updates["full_name"] = name
	}
	if req.Role != nil {
		// Admin is never self-assigned; an admin keeps the role by omitting it.
		if !models.IsValidUserRole(*req.Role) {
			return nil, validationf("role must be Student, Developer or Mentor")
		}
		updates["role"] = *req.Role
	}
	if req.Skills != nil {
		updates["skills"] = normalizeList(*req.Skills)
	}
	if req.PortfolioLinks != nil {
		updates["portfolio_links"] = normalizeList(*req.PortfolioLinks)
	}
	if req.Bio != nil {
		updates["bio"] = strings.TrimSpace(*req.Bio)
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*req.AvatarURL)
	}
	if req.PhoneNumber != nil {
		updates["phone_number"] = strings.TrimSpace(*req.PhoneNumber)
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return ensureUserExists(s.db, id)
}
