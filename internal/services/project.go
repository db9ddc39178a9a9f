package services

import (
	"strings"
	"time"

	"github.com/huangang/ideahub/backend/internal/models"
	"github.com/huangang/ideahub/backend/pkg/logger"
	"github.com/huangang/ideahub/backend/pkg/metrics"
	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type ProjectListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Mine     bool   `form:"mine"`
	Tag      string `form:"tag"`
}

type ProjectListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []ProjectItem `json:"items"`
}

// ProjectItem is a project with its owner's display fields.
type ProjectItem struct {
	models.Project
	OwnerName   string `json:"owner_name"`
	OwnerAvatar string `json:"owner_avatar"`
}

type MemberView struct {
	ID       uint      `json:"id"`
	UserID   uint      `json:"user_id"`
	FullName string    `json:"full_name"`
	Avatar   string    `json:"avatar_url"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type ProjectDetail struct {
	Project ProjectItem   `json:"project"`
	Members []MemberView  `json:"members"`
	Tasks   []models.Task `json:"tasks"`
}

type CreateProjectRequest struct {
	Title         string   `json:"title" binding:"required,max=200"`
	Description   string   `json:"description" binding:"required"`
	Domain        string   `json:"domain" binding:"required,max=100"`
	Difficulty    string   `json:"difficulty" binding:"required,max=50"`
	Tags          []string `json:"tags"`
	RequiredRoles []string `json:"required_roles"`
	RepoLink      string   `json:"repo_link" binding:"omitempty,url"`
}

// UpdateProjectRequest: a nil field is left unchanged. Tags and roles are
// replaced wholesale when present, so clients never re-read to preserve them.
type UpdateProjectRequest struct {
	Title         *string   `json:"title"`
	Description   *string   `json:"description"`
	Domain        *string   `json:"domain"`
	Difficulty    *string   `json:"difficulty"`
	Stage         *string   `json:"stage"`
	Tags          *[]string `json:"tags"`
	RequiredRoles *[]string `json:"required_roles"`
	RepoLink      *string   `json:"repo_link"`
}

// normalizeList trims, drops blanks and de-duplicates while keeping order.
func normalizeList(values []string) datatypes.JSONSlice[string] {
	trimmed := lo.Map(values, func(v string, _ int) string { return strings.TrimSpace(v) })
	return datatypes.JSONSlice[string](lo.Uniq(lo.Compact(trimmed)))
}

// List returns paginated projects, newest first. Mine narrows to requesterID.
func (s *ProjectService) List(req *ProjectListRequest, requesterID uint) (*ProjectListResponse, error) {
	req.Page, req.PageSize = clampPage(req.Page, req.PageSize)

	query := s.db.Model(&models.Project{})

	if req.Mine {
		if requesterID == 0 {
			return nil, validationf("mine filter needs an acting user")
		}
		query = query.Where("owner_id = ?", requesterID)
	}
	if tag := strings.TrimSpace(req.Tag); tag != "" {
		query = query.Where(datatypes.JSONArrayQuery("tags").Contains(tag))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var projects []models.Project
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Owner").
		Offset(offset).Limit(req.PageSize).
		Order("created_at DESC").Order("id DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}

	return &ProjectListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    lo.Map(projects, func(p models.Project, _ int) ProjectItem { return toProjectItem(p) }),
	}, nil
}

func toProjectItem(p models.Project) ProjectItem {
	item := ProjectItem{Project: p}
	if p.Owner != nil {
		item.OwnerName = p.Owner.FullName
		item.OwnerAvatar = p.Owner.AvatarURL
	}
	item.Project.Owner = nil
	return item
}

// GetByID returns a project without joins.
func (s *ProjectService) GetByID(id uint) (*models.Project, error) {
	return loadProject(s.db, id)
}

// GetDetail returns a project with its members and tasks.
func (s *ProjectService) GetDetail(id uint) (*ProjectDetail, error) {
	var project models.Project
	if err := s.db.Preload("Owner").First(&project, id).Error; err != nil {
		return nil, lookupErr(err, "project")
	}

	var members []models.ProjectMember
	if err := s.db.Where("project_id = ?", id).Preload("User").Order("id ASC").Find(&members).Error; err != nil {
		return nil, err
	}

	var tasks []models.Task
	if err := s.db.Where("project_id = ?", id).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}

	return &ProjectDetail{
		Project: toProjectItem(project),
		Members: lo.Map(members, func(m models.ProjectMember, _ int) MemberView {
			view := MemberView{
				ID:       m.ID,
				UserID:   m.UserID,
				Role:     m.Role,
				JoinedAt: m.CreatedAt,
			}
			if m.User != nil {
				view.FullName = m.User.FullName
				view.Avatar = m.User.AvatarURL
			}
			return view
		}),
		Tasks: tasks,
	}, nil
}

// Create creates a new project owned by ownerID, always at the Idea stage.
func (s *ProjectService) Create(req *CreateProjectRequest, ownerID uint) (*models.Project, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	domain := strings.TrimSpace(req.Domain)
	difficulty := strings.TrimSpace(req.Difficulty)

	switch {
	case title == "":
		return nil, validationf("title is required")
	case description == "":
		return nil, validationf("description is required")
	case domain == "":
		return nil, validationf("domain is required")
	case difficulty == "":
		return nil, validationf("difficulty is required")
	}

	if _, err := ensureUserExists(s.db, ownerID); err != nil {
		return nil, err
	}

	project := models.Project{
		OwnerID:       ownerID,
		Title:         title,
		Description:   description,
		Domain:        domain,
		Difficulty:    difficulty,
		Stage:         models.StageIdea,
		Tags:          normalizeList(req.Tags),
		RequiredRoles: normalizeList(req.RequiredRoles),
		RepoLink:      strings.TrimSpace(req.RepoLink),
	}

	if err := s.db.Create(&project).Error; err != nil {
		return nil, err
	}

	metrics.ProjectsCreated.Inc()
	logger.Info().Uint("project_id", project.ID).Uint("owner_id", ownerID).Msg("project created")
	return &project, nil
}

// Update applies the non-nil fields of req. Only the owner may update.
func (s *ProjectService) Update(id, requesterID uint, req *UpdateProjectRequest) (*models.Project, error) {
	project, err := loadProject(s.db, id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != requesterID {
		return nil, forbidden("only the project owner can edit it")
	}

	updates := make(map[string]interface{})

	required := []struct {
		column string
		value  *string
	}{
		{"title", req.Title},
		{"description", req.Description},
		{"domain", req.Domain},
		{"difficulty", req.Difficulty},
	}
	for _, f := range required {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if v == "" {
			return nil, validationf("%s cannot be empty", f.column)
		}
		updates[f.column] = v
	}

	if req.Stage != nil {
		if !models.IsValidStage(*req.Stage) {
			return nil, validationf("stage must be one of %s", strings.Join(models.Stages, ", "))
		}
		updates["stage"] = *req.Stage
	}
	if req.Tags != nil {
		updates["tags"] = normalizeList(*req.Tags)
	}
	if req.RequiredRoles != nil {
		updates["required_roles"] = normalizeList(*req.RequiredRoles)
	}
	if req.RepoLink != nil {
		updates["repo_link"] = strings.TrimSpace(*req.RepoLink)
	}

	if len(updates) > 0 {
		if err := s.db.Model(project).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return loadProject(s.db, id)
}

// Delete removes a project and everything scoped to it in one transaction.
func (s *ProjectService) Delete(id, requesterID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := loadProject(tx, id)
		if err != nil {
			return err
		}
		if project.OwnerID != requesterID {
			return forbidden("only the project owner can delete it")
		}

		for _, model := range []interface{}{
			&models.Task{},
			&models.Application{},
			&models.ProjectMember{},
			&models.ChatMessage{},
		} {
			if err := tx.Where("project_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}

		return tx.Delete(project).Error
	})
	if err != nil {
		return err
	}

	metrics.ProjectsDeleted.Inc()
	logger.Info().Uint("project_id", id).Uint("owner_id", requesterID).Msg("project deleted")
	return nil
}
