package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangang/ideahub/backend/internal/config"
	"github.com/huangang/ideahub/backend/internal/middleware"
	"github.com/huangang/ideahub/backend/internal/services"
	"github.com/huangang/ideahub/backend/pkg/response"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService *services.AuthService
	ldapEnabled bool
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: services.NewAuthService(db, &cfg.JWT, &cfg.LDAP),
		ldapEnabled: cfg.LDAP.Enabled,
	}
}

// Signup registers a local account
// POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.authService.Signup(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	services.LogInfo("Auth", "Signup", "user signed up", services.LogEntry{
		UserID:    &res.User.ID,
		RequestID: middleware.GetRequestID(c),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	response.Created(c, res)
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.authService.Login(&req)
	if err != nil {
		services.LogWarning("Auth", "Login", "login failed", services.LogEntry{
			RequestID: middleware.GetRequestID(c),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Extra:     map[string]string{"email": req.Email},
		})
		respondError(c, err)
		return
	}

	response.Success(c, res)
}

// Refresh exchanges a refresh token for a new pair
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req services.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, res)
}

// Logout revokes the presented refresh token
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req services.RefreshRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.authService.RevokeRefreshToken(req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "logged out successfully"})
}

// GetCurrentUser returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.authService.GetUserByID(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, user)
}

// ChangePassword
// PUT /api/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.ChangePassword(middleware.GetUserID(c), &req); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "password changed"})
}

// GetAuthConfig returns authentication configuration
// GET /api/auth/config
func (h *AuthHandler) GetAuthConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ldap_enabled": h.ldapEnabled,
	})
}

// CreateAdminIfNotExists creates default admin user
func (h *AuthHandler) CreateAdminIfNotExists() error {
	return h.authService.CreateAdminIfNotExists()
}
