package services

import (
	"encoding/json"
	"time"

	"github.com/huangang/ideahub/backend/internal/models"
	"github.com/huangang/ideahub/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

var globalDB *gorm.DB

func InitSystemLogger(db *gorm.DB) {
	globalDB = db
}

// LogEntry is the request context attached to an audit row.
type LogEntry struct {
	UserID    *uint
	RequestID string
	IP        string
	UserAgent string
	Extra     interface{}
}

func LogInfo(module, action, message string, entry LogEntry) {
	writeLog("info", module, action, message, entry)
}

func LogWarning(module, action, message string, entry LogEntry) {
	writeLog("warning", module, action, message, entry)
}

func LogError(module, action, message string, entry LogEntry) {
	writeLog("error", module, action, message, entry)
}

func writeLog(level, module, action, message string, entry LogEntry) {
	if globalDB == nil {
		return
	}

	var extraStr string
	if entry.Extra != nil {
		if b, err := json.Marshal(entry.Extra); err == nil {
			extraStr = string(b)
		}
	}

	row := &models.SystemLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		UserID:    entry.UserID,
		RequestID: entry.RequestID,
		IP:        entry.IP,
		UserAgent: entry.UserAgent,
		Extra:     extraStr,
		CreatedAt: time.Now(),
	}
	if err := globalDB.Create(row).Error; err != nil {
		logger.Warn().Err(err).Str("module", module).Str("action", action).Msg("[SystemLog] write failed")
	}
}

type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

type SystemLogListRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Level     string `form:"level"`
	Module    string `form:"module"`
	Action    string `form:"action"`
	RequestID string `form:"request_id"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Search    string `form:"search"`
}

type SystemLogListResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Items    []models.SystemLog `json:"items"`
}

func (s *SystemLogService) List(req *SystemLogListRequest) (*SystemLogListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var logs []models.SystemLog
	var total int64

	query := s.db.Model(&models.SystemLog{})

	if req.Level != "" {
		query = query.Where("level = ?", req.Level)
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action LIKE ?", "%"+req.Action+"%")
	}
	if req.RequestID != "" {
		query = query.Where("request_id = ?", req.RequestID)
	}
	if req.StartDate != "" {
		query = query.Where("created_at >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("created_at <= ?", req.EndDate+" 23:59:59")
	}
	if req.Search != "" {
		query = query.Where("message LIKE ?", "%"+req.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Order("id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return &SystemLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

func (s *SystemLogService) GetModules() ([]string, error) {
	var modules []string
	if err := s.db.Model(&models.SystemLog{}).Distinct("module").Pluck("module", &modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

// CleanupOldLogs deletes logs older than retentionDays and returns how many.
func (s *SystemLogService) CleanupOldLogs(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoffTime := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoffTime).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// LogCleanupScheduler prunes old system logs on a cron schedule.
type LogCleanupScheduler struct {
	service       *SystemLogService
	retentionDays int
	cron          *cron.Cron
}

func NewLogCleanupScheduler(db *gorm.DB, spec string, retentionDays int) (*LogCleanupScheduler, error) {
	if spec == "" {
		spec = "@daily"
	}
	s := &LogCleanupScheduler{
		service:       NewSystemLogService(db),
		retentionDays: retentionDays,
		cron:          cron.New(),
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, err
	}
	return s, nil
}

// Start runs one cleanup immediately, then follows the schedule.
func (s *LogCleanupScheduler) Start() {
	go s.run()
	s.cron.Start()
}

func (s *LogCleanupScheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *LogCleanupScheduler) run() {
	if s.retentionDays <= 0 {
		logger.Info().Msg("[SystemLog] Log cleanup disabled (retention_days <= 0)")
		return
	}

	deleted, err := s.service.CleanupOldLogs(s.retentionDays)
	if err != nil {
		logger.Error().Err(err).Msg("[SystemLog] Failed to cleanup old logs")
		return
	}

	if deleted > 0 {
		logger.Info().Int64("deleted", deleted).Int("retention_days", s.retentionDays).Msg("[SystemLog] Cleaned up old logs")
	}
}
