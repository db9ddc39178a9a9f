package services

import (
	"context"
	"fmt"

	"github.com/huangang/ideahub/backend/internal/config"
	"github.com/huangang/ideahub/backend/internal/models"
	"github.com/huangang/ideahub/backend/pkg/logger"
	"github.com/huangang/ideahub/backend/pkg/metrics"
	"gopkg.in/gomail.v2"
)

// Mailer is the slice of gomail's dialer the email service needs.
type Mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailService struct {
	cfg    *config.SMTPConfig
	mailer Mailer
}

func NewEmailService(cfg *config.SMTPConfig) *EmailService {
	return &EmailService{
		cfg:    cfg,
		mailer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// NewEmailServiceWithMailer is used by tests to swap the SMTP transport.
func NewEmailServiceWithMailer(cfg *config.SMTPConfig, mailer Mailer) *EmailService {
	return &EmailService{cfg: cfg, mailer: mailer}
}

// ProcessNotification is the TaskQueue / Worker processor.
func (s *EmailService) ProcessNotification(ctx context.Context, task *NotificationTask) error {
	if !s.cfg.Enabled || s.cfg.Host == "" {
		logger.Debug().Uint("application_id", task.ApplicationID).Msg("[Email] SMTP disabled, skipping notification")
		metrics.NotificationsSent.WithLabelValues("skipped").Inc()
		return nil
	}
	if task.ApplicantEmail == "" {
		metrics.NotificationsSent.WithLabelValues("skipped").Inc()
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := s.buildMessage(task)
	if err := s.mailer.DialAndSend(m); err != nil {
		metrics.NotificationsSent.WithLabelValues("failed").Inc()
		return fmt.Errorf("send decision email for application %d: %w", task.ApplicationID, err)
	}

	metrics.NotificationsSent.WithLabelValues("sent").Inc()
	logger.Info().Uint("application_id", task.ApplicationID).Str("decision", task.Decision).Msg("[Email] decision notification sent")
	return nil
}

func (s *EmailService) buildMessage(task *NotificationTask) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetAddressHeader("To", task.ApplicantEmail, task.ApplicantName)
	m.SetHeader("Subject", decisionSubject(task))
	m.SetBody("text/plain", decisionBody(task))
	return m
}

func decisionSubject(task *NotificationTask) string {
	if task.Decision == models.ApplicationAccepted {
		return fmt.Sprintf("You're in: %s", task.ProjectTitle)
	}
	return fmt.Sprintf("Update on your application to %s", task.ProjectTitle)
}

func decisionBody(task *NotificationTask) string {
	if task.Decision == models.ApplicationAccepted {
		return fmt.Sprintf("Hi %s,\n\nYour application for the %s role on \"%s\" was accepted. "+
			"Open the project to meet the team and pick up your first task.\n", task.ApplicantName, task.Role, task.ProjectTitle)
	}
	return fmt.Sprintf("Hi %s,\n\nYour application for the %s role on \"%s\" was not accepted this time. "+
		"You are welcome to apply again or explore other ideas.\n", task.ApplicantName, task.Role, task.ProjectTitle)
}
