package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/ideahub/backend/internal/middleware"
	"github.com/huangang/ideahub/backend/internal/services"
	"github.com/huangang/ideahub/backend/pkg/response"
	"gorm.io/gorm"
)

type ApplicationHandler struct {
	applicationService *services.ApplicationService
}

func NewApplicationHandler(db *gorm.DB, notifier *services.NotificationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: services.NewApplicationService(db, notifier)}
}

// Submit applies to join a project
// POST /api/projects/:id/applications
func (h *ApplicationHandler) Submit(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	app, err := h.applicationService.Submit(projectID, middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, app)
}

// ListForProject is the owner's review queue
// GET /api/projects/:id/applications
func (h *ApplicationHandler) ListForProject(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	apps, err := h.applicationService.ListForProject(projectID, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, apps)
}

// ListMine returns the caller's own applications
// GET /api/users/me/applications
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	apps, err := h.applicationService.ListMine(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, apps)
}

// Decide accepts or rejects a pending application
// PUT /api/applications/:id/status
func (h *ApplicationHandler) Decide(c *gin.Context) {
	appID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.DecideApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	app, err := h.applicationService.Decide(appID, userID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	services.LogInfo("Applications", "Decide", "application "+app.Status, services.LogEntry{
		UserID:    &userID,
		RequestID: middleware.GetRequestID(c),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Extra:     map[string]uint{"application_id": app.ID, "project_id": app.ProjectID},
	})
	response.Success(c, app)
}
