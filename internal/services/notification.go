package services

import (
	"github.com/huangang/ideahub/backend/internal/models"
	"github.com/huangang/ideahub/backend/pkg/logger"
)

// NotificationService turns committed application decisions into queued
// email tasks. Delivery failures never reach the caller.
type NotificationService struct {
	queue TaskQueue
}

func NewNotificationService(queue TaskQueue) *NotificationService {
	return &NotificationService{queue: queue}
}

func (s *NotificationService) NotifyDecision(app *models.Application, project *models.Project, applicant *models.User) {
	if s == nil || s.queue == nil {
		return
	}

	task := &NotificationTask{
		ApplicationID: app.ID,
		ProjectID:     project.ID,
		ProjectTitle:  project.Title,
		Role:          app.RoleAppliedFor,
		Decision:      app.Status,
	}
	if applicant != nil {
		task.ApplicantEmail = applicant.Email
		task.ApplicantName = applicant.FullName
	}

	if err := s.queue.Enqueue(task); err != nil {
		logger.Warn().Err(err).Uint("application_id", app.ID).Msg("[Notification] enqueue failed")
	}
}
