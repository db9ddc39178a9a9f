package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangang/ideahub/backend/internal/config"
	"github.com/huangang/ideahub/backend/internal/models"
	"github.com/huangang/ideahub/backend/internal/utils"
	"github.com/huangang/ideahub/backend/pkg/logger"
	"gorm.io/gorm"
)

const defaultAdminEmail = "admin@ideahub.local"

type AuthService struct {
	db          *gorm.DB
	ldapService *LDAPService
	jwtConfig   *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, ldapCfg *config.LDAPConfig) *AuthService {
	if ldapCfg == nil {
		ldapCfg = &config.LDAPConfig{}
	}
	return &AuthService{
		db:          db,
		ldapService: NewLDAPService(ldapCfg),
		jwtConfig:   jwtCfg,
	}
}

type SignupRequest struct {
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=6"`
	FullName string   `json:"full_name" binding:"required,max=100"`
	Role     string   `json:"role"`
	Skills   []string `json:"skills"`
	Bio      string   `json:"bio"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	AuthType string `json:"auth_type"` // local, ldap
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LoginResult carries both tokens; the handler decides how to expose them.
type LoginResult struct {
	AccessToken     string       `json:"token"`
	AccessExpireAt  time.Time    `json:"expire_at"`
	RefreshToken    string       `json:"refresh_token"`
	RefreshExpireAt time.Time    `json:"refresh_expire_at"`
	User            *models.User `json:"user"`
}

// Signup registers a local account and signs it in.
func (s *AuthService) Signup(req *SignupRequest) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.FullName)
	if email == "" || name == "" {
		return nil, validationf("email and full_name are required")
	}
	if len(req.Password) < 6 {
		return nil, validationf("password must be at least 6 characters")
	}

	role := req.Role
	if role == "" {
		role = models.UserRoleStudent
	}
	if !models.IsValidUserRole(role) {
		return nil, validationf("role must be Student, Developer or Mentor")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:    email,
		Password: hashed,
		FullName: name,
		Role:     role,
		Skills:   normalizeList(req.Skills),
		Bio:      strings.TrimSpace(req.Bio),
		AuthType: models.AuthTypeLocal,
		IsActive: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	logger.Info().Uint("user_id", user.ID).Str("role", role).Msg("user signed up")
	return s.issue(&user)
}

// Login authenticates a user and returns an access/refresh token pair.
func (s *AuthService) Login(req *LoginRequest) (*LoginResult, error) {
	var user *models.User
	var err error

	if req.AuthType == "" {
		req.AuthType = models.AuthTypeLocal
	}

	switch req.AuthType {
	case models.AuthTypeLocal:
		user, err = s.localAuth(strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	case models.AuthTypeLDAP:
		user, err = s.ldapAuth(req.Email, req.Password)
	default:
		return nil, validationf("invalid auth type")
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.db.Model(user).Update("last_login", now).Error; err != nil {
		logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to record last login")
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*LoginResult, error) {
	accessHours := s.jwtConfig.ExpireHour
	token, err := utils.GenerateToken(user.ID, user.Email, user.Role, accessHours)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	record := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: refreshHash,
		ExpiresAt: time.Now().Add(time.Duration(s.refreshHours()) * time.Hour),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:     token,
		AccessExpireAt:  time.Now().Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    refreshToken,
		RefreshExpireAt: record.ExpiresAt,
		User:            user,
	}, nil
}

// Refresh rotates a refresh token: the old one is revoked and linked to
// its replacement in one transaction.
func (s *AuthService) Refresh(refreshToken string) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, unauthorized("refresh token required")
	}

	var result *LoginResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var stored models.RefreshToken
		if err := tx.Where("token_hash = ?", hashRefreshToken(refreshToken)).First(&stored).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return unauthorized("invalid refresh token")
			}
			return err
		}
		now := time.Now()
		if !stored.Usable(now) {
			return unauthorized("refresh token expired or revoked")
		}

		var user models.User
		if err := tx.First(&user, stored.UserID).Error; err != nil {
			return lookupErr(err, "user")
		}
		if !user.IsActive {
			return unauthorized("user is disabled")
		}

		token, err := utils.GenerateToken(user.ID, user.Email, user.Role, s.jwtConfig.ExpireHour)
		if err != nil {
			return err
		}
		newToken, newHash, err := generateRefreshToken()
		if err != nil {
			return err
		}

		replacement := models.RefreshToken{
			UserID:    user.ID,
			TokenHash: newHash,
			ExpiresAt: now.Add(time.Duration(s.refreshHours()) * time.Hour),
		}
		if err := tx.Create(&replacement).Error; err != nil {
			return err
		}
		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked_at IS NULL", stored.ID).
			Updates(map[string]interface{}{
				"revoked_at":           now,
				"replaced_by_token_id": replacement.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return unauthorized("refresh token already used")
		}

		result = &LoginResult{
			AccessToken:     token,
			AccessExpireAt:  now.Add(time.Duration(s.jwtConfig.ExpireHour) * time.Hour),
			RefreshToken:    newToken,
			RefreshExpireAt: replacement.ExpiresAt,
			User:            &user,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RevokeRefreshToken is idempotent; unknown tokens are ignored.
func (s *AuthService) RevokeRefreshToken(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", hashRefreshToken(refreshToken)).
		Update("revoked_at", time.Now()).Error
}

func (s *AuthService) refreshHours() int {
	if s.jwtConfig.RefreshExpireHour <= 0 {
		return 720
	}
	return s.jwtConfig.RefreshExpireHour
}

func generateRefreshToken() (token string, tokenHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err = rand.Read(randomBytes); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(randomBytes)
	tokenHash = hashRefreshToken(token)
	return token, tokenHash, nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *AuthService) localAuth(email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ? AND auth_type = ?", email, models.AuthTypeLocal).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unauthorized("invalid email or password")
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, unauthorized("user is disabled")
	}

	if !utils.CheckPassword(password, user.Password) {
		return nil, unauthorized("invalid email or password")
	}

	return &user, nil
}

func (s *AuthService) ldapAuth(username, password string) (*models.User, error) {
	ldapUser, err := s.ldapService.Authenticate(username, password)
	if err != nil {
		return nil, unauthorized(err.Error())
	}
	if ldapUser.Email == "" {
		return nil, unauthorized("directory entry has no mail attribute")
	}

	var user models.User
	err = s.db.Where("email = ? AND auth_type = ?", ldapUser.Email, models.AuthTypeLDAP).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Email:    ldapUser.Email,
			FullName: ldapUser.FullName,
			Role:     models.UserRoleStudent,
			AuthType: models.AuthTypeLDAP,
			IsActive: true,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, unauthorized("user is disabled")
	}

	if ldapUser.FullName != "" && ldapUser.FullName != user.FullName {
		user.FullName = ldapUser.FullName
		s.db.Model(&user).Update("full_name", user.FullName)
	}

	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	return ensureUserExists(s.db, id)
}

// CreateAdminIfNotExists seeds the operator account used for system logs.
func (s *AuthService) CreateAdminIfNotExists() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := utils.HashPassword("admin")
	if err != nil {
		return err
	}

	admin := models.User{
		Email:    defaultAdminEmail,
		Password: hashedPassword,
		FullName: "Administrator",
		Role:     models.UserRoleAdmin,
		AuthType: models.AuthTypeLocal,
		IsActive: true,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	logger.Warn().Str("email", defaultAdminEmail).Msg("default admin created, change its password")
	return nil
}

func (s *AuthService) IsLDAPEnabled() bool {
	return s.ldapService.IsEnabled()
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func (s *AuthService) ChangePassword(userID uint, req *ChangePasswordRequest) error {
	user, err := ensureUserExists(s.db, userID)
	if err != nil {
		return err
	}

	if user.AuthType != models.AuthTypeLocal {
		return validationf("LDAP users cannot change password here")
	}

	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return validationf("incorrect old password")
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	return s.db.Model(user).Update("password", hashedPassword).Error
}
