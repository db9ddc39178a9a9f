package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/ideahub/backend/internal/middleware"
	"github.com/huangang/ideahub/backend/internal/services"
	"github.com/huangang/ideahub/backend/pkg/response"
	"gorm.io/gorm"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{userService: services.NewUserService(db)}
}

// List browses profiles
// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	var req services.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.userService.List(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, resp)
}

// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, user)
}

// Update edits the caller's own profile
// PUT /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(id, middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, user)
}
