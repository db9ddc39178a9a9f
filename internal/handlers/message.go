package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/ideahub/backend/internal/config"
	"github.com/huangang/ideahub/backend/internal/middleware"
	"github.com/huangang/ideahub/backend/internal/services"
	"github.com/huangang/ideahub/backend/pkg/response"
	"gorm.io/gorm"
)

type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(db *gorm.DB, cfg *config.ChatConfig) *MessageHandler {
	return &MessageHandler{messageService: services.NewMessageService(db, cfg)}
}

// SendDirect
// POST /api/messages
func (h *MessageHandler) SendDirect(c *gin.Context) {
	var req services.DirectMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.messageService.PostDirect(middleware.GetUserID(c), req.ReceiverID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, msg)
}

// Conversation pages the thread with another user and marks it read
// GET /api/messages/:userID?after_id=&limit=
func (h *MessageHandler) Conversation(c *gin.Context) {
	otherID, ok := parseID(c, "userID")
	if !ok {
		return
	}

	var req services.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	page, err := h.messageService.Conversation(middleware.GetUserID(c), otherID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, page)
}

// GET /api/messages/conversations
func (h *MessageHandler) Conversations(c *gin.Context) {
	inbox, err := h.messageService.Conversations(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, inbox)
}

// PostChat
// POST /api/projects/:id/chat
func (h *MessageHandler) PostChat(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.messageService.PostProjectChat(projectID, middleware.GetUserID(c), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, msg)
}

// ListChat pages project chat forward from after_id
// GET /api/projects/:id/chat
func (h *MessageHandler) ListChat(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	page, err := h.messageService.ListProjectChat(projectID, middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, page)
}
