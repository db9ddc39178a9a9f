package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/huangang/ideahub/backend/internal/models"
	"github.com/huangang/ideahub/backend/pkg/logger"
	"github.com/huangang/ideahub/backend/pkg/metrics"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

const welcomeTemplate = "Congratulations %s! Your application has been accepted. Welcome to the team! Let's start building."

// WelcomeMessage is the direct message the owner sends on acceptance.
func WelcomeMessage(fullName string) string {
	return fmt.Sprintf(welcomeTemplate, fullName)
}

type ApplicationService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewApplicationService(db *gorm.DB, notifier *NotificationService) *ApplicationService {
	return &ApplicationService{db: db, notifier: notifier}
}

type SubmitApplicationRequest struct {
	RoleAppliedFor string `json:"role_applied_for" binding:"required,max=100"`
	Message        string `json:"message"`
}

type DecideApplicationRequest struct {
	Status string `json:"status" binding:"required"`
}

// ApplicationView is what a project owner sees when reviewing applicants.
type ApplicationView struct {
	ID             uint       `json:"id"`
	ProjectID      uint       `json:"project_id"`
	ApplicantID    uint       `json:"applicant_id"`
	FullName       string     `json:"full_name"`
	Email          string     `json:"email"`
	Skills         []string   `json:"skills"`
	Bio            string     `json:"bio"`
	AvatarURL      string     `json:"avatar_url"`
	RoleAppliedFor string     `json:"role_applied_for"`
	Message        string     `json:"message"`
	Status         string     `json:"status"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// MyApplicationView is an applicant's own application with the project title.
type MyApplicationView struct {
	ID             uint       `json:"id"`
	ProjectID      uint       `json:"project_id"`
	ProjectTitle   string     `json:"project_title"`
	RoleAppliedFor string     `json:"role_applied_for"`
	Message        string     `json:"message"`
	Status         string     `json:"status"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Submit files a Pending application from applicantID to projectID.
func (s *ApplicationService) Submit(projectID, applicantID uint, req *SubmitApplicationRequest) (*models.Application, error) {
	role := strings.TrimSpace(req.RoleAppliedFor)
	if role == "" {
		return nil, validationf("role_applied_for is required")
	}

	var app models.Application
	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := loadProject(tx, projectID)
		if err != nil {
			return err
		}
		if _, err := ensureUserExists(tx, applicantID); err != nil {
			return err
		}
		if project.OwnerID == applicantID {
			return validationf("owners cannot apply to their own project")
		}
		if len(project.RequiredRoles) > 0 && !lo.Contains([]string(project.RequiredRoles), role) {
			return validationf("role must be one of %s", strings.Join(project.RequiredRoles, ", "))
		}

		member, err := isMember(tx, projectID, applicantID)
		if err != nil {
			return err
		}
		if member {
			return fmt.Errorf("%w: already a member of this project", ErrConflict)
		}

		var pending int64
		if err := tx.Model(&models.Application{}).
			Where("project_id = ? AND applicant_id = ? AND status = ?", projectID, applicantID, models.ApplicationPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return fmt.Errorf("%w: an application is already pending", ErrConflict)
		}

		app = models.Application{
			ProjectID:      projectID,
			ApplicantID:    applicantID,
			RoleAppliedFor: role,
			Message:        strings.TrimSpace(req.Message),
			Status:         models.ApplicationPending,
		}
		return tx.Create(&app).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.ApplicationsSubmitted.Inc()
	logger.Info().Uint("application_id", app.ID).Uint("project_id", projectID).Uint("applicant_id", applicantID).Msg("application submitted")
	return &app, nil
}

// Decide moves a Pending application to Accepted or Rejected. Acceptance
// creates the membership and the welcome message in the same transaction.
func (s *ApplicationService) Decide(appID, requesterID uint, decision string) (*models.Application, error) {
	if decision != models.ApplicationAccepted && decision != models.ApplicationRejected {
		return nil, validationf("status must be %s or %s", models.ApplicationAccepted, models.ApplicationRejected)
	}

	var (
		app       models.Application
		project   *models.Project
		applicant *models.User
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&app, appID).Error; err != nil {
			return lookupErr(err, "application")
		}

		var err error
		project, err = loadProject(tx, app.ProjectID)
		if err != nil {
			return err
		}
		if project.OwnerID != requesterID {
			return forbidden("only the project owner can decide applications")
		}
		if app.IsTerminal() {
			return fmt.Errorf("%w: application is already %s", ErrInvalidTransition, app.Status)
		}

		now := time.Now()
		// The status guard makes concurrent deciders race on a single row.
		res := tx.Model(&models.Application{}).
			Where("id = ? AND status = ?", appID, models.ApplicationPending).
			Updates(map[string]interface{}{"status": decision, "decided_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: application was decided concurrently", ErrInvalidTransition)
		}
		app.Status = decision
		app.DecidedAt = &now

		applicant, err = ensureUserExists(tx, app.ApplicantID)
		if err != nil {
			return err
		}

		if decision != models.ApplicationAccepted {
			return nil
		}

		member := models.ProjectMember{
			ProjectID:     app.ProjectID,
			UserID:        app.ApplicantID,
			Role:          app.RoleAppliedFor,
			ApplicationID: app.ID,
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("create membership: %w", err)
		}

		if _, err := insertDirectMessage(tx, project.OwnerID, app.ApplicantID, WelcomeMessage(applicant.FullName)); err != nil {
			return fmt.Errorf("send welcome message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ApplicationDecisions.WithLabelValues(decision).Inc()
	if decision == models.ApplicationAccepted {
		metrics.MessagesPosted.WithLabelValues("direct").Inc()
	}
	logger.Info().Uint("application_id", appID).Uint("project_id", app.ProjectID).Str("decision", decision).Msg("application decided")

	s.notifier.NotifyDecision(&app, project, applicant)
	return &app, nil
}

// ListForProject returns a project's applications, oldest first. Owner only.
func (s *ApplicationService) ListForProject(projectID, requesterID uint) ([]ApplicationView, error) {
	project, err := loadProject(s.db, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != requesterID {
		return nil, forbidden("only the project owner can view applications")
	}

	var apps []models.Application
	if err := s.db.Where("project_id = ?", projectID).
		Preload("Applicant").
		Order("created_at ASC").Order("id ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}

	return lo.Map(apps, func(a models.Application, _ int) ApplicationView {
		view := ApplicationView{
			ID:             a.ID,
			ProjectID:      a.ProjectID,
			ApplicantID:    a.ApplicantID,
			RoleAppliedFor: a.RoleAppliedFor,
			Message:        a.Message,
			Status:         a.Status,
			DecidedAt:      a.DecidedAt,
			CreatedAt:      a.CreatedAt,
			Skills:         []string{},
		}
		if a.Applicant != nil {
			view.FullName = a.Applicant.FullName
			view.Email = a.Applicant.Email
			view.Bio = a.Applicant.Bio
			view.AvatarURL = a.Applicant.AvatarURL
			if a.Applicant.Skills != nil {
				view.Skills = a.Applicant.Skills
			}
		}
		return view
	}), nil
}

// ListMine returns every application applicantID has filed, newest first.
func (s *ApplicationService) ListMine(applicantID uint) ([]MyApplicationView, error) {
	var apps []models.Application
	if err := s.db.Where("applicant_id = ?", applicantID).
		Preload("Project", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("created_at DESC").Order("id DESC").
		Find(&apps).Error; err != nil {
		return nil, err
	}

	return lo.Map(apps, func(a models.Application, _ int) MyApplicationView {
		view := MyApplicationView{
			ID:             a.ID,
			ProjectID:      a.ProjectID,
			RoleAppliedFor: a.RoleAppliedFor,
			Message:        a.Message,
			Status:         a.Status,
			DecidedAt:      a.DecidedAt,
			CreatedAt:      a.CreatedAt,
		}
		if a.Project != nil {
			view.ProjectTitle = a.Project.Title
		}
		return view
	}), nil
}
