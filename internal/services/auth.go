package services

import (
	"errors"
	"time"

	"github.com/huangang/caseeval/internal/config"
	"github.com/huangang/caseeval/internal/models"
	"github.com/huangang/caseeval/internal/utils"
	"github.com/huangang/caseeval/pkg/logger"
	"github.com/huangang/caseeval/pkg/response"
	"gorm.io/gorm"
)

const (
	AuthTypeLocal = "local"
	AuthTypeLDAP  = "ldap"
)

var errInvalidCredentials = response.NewUnauthorized("invalid username or password")

type AuthService struct {
	db          *gorm.DB
	ldapService *LDAPService
	jwtConfig   *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, ldapCfg *config.LDAPConfig) *AuthService {
	return &AuthService{
		db:          db,
		ldapService: NewLDAPService(ldapCfg),
		jwtConfig:   jwtCfg,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	AuthType string `json:"auth_type" binding:"omitempty,oneof=local ldap"`
}

type LoginResponse struct {
	Token    string       `json:"token"`
	User     *models.User `json:"user"`
	ExpireAt time.Time    `json:"expire_at"`
}

func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	var user *models.User
	var err error

	if req.AuthType == "" {
		req.AuthType = AuthTypeLocal
	}

	switch req.AuthType {
	case AuthTypeLocal:
		user, err = s.localAuth(req.Username, req.Password)
	case AuthTypeLDAP:
		user, err = s.ldapAuth(req.Username, req.Password)
	default:
		return nil, response.NewBadRequest("invalid auth type")
	}
	if err != nil {
		return nil, err
	}

	expireHours := s.jwtConfig.ExpireHour
	if expireHours <= 0 {
		expireHours = 24
	}
	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, expireHours)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.Model(user).Update("last_login", now).Error; err != nil {
		logger.Warn().Err(err).Uint("user_id", user.ID).Msg("[Auth] failed to record last login")
	}
	user.LastLogin = &now

	return &LoginResponse{
		Token:    token,
		User:     user,
		ExpireAt: now.Add(time.Duration(expireHours) * time.Hour),
	}, nil
}

func (s *AuthService) localAuth(username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ? AND auth_type = ?", username, AuthTypeLocal).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, response.NewForbidden("user is disabled")
	}

	if !utils.CheckPassword(password, user.Password) {
		return nil, errInvalidCredentials
	}

	return &user, nil
}

// ldapAuth verifies the credentials against LDAP and keeps a local user row
// in sync with the directory entry. New LDAP users get the user role.
func (s *AuthService) ldapAuth(username, password string) (*models.User, error) {
	ldapUser, err := s.ldapService.Authenticate(username, password)
	if err != nil {
		logger.Warn().Err(err).Str("username", username).Msg("[Auth] LDAP authentication failed")
		return nil, errInvalidCredentials
	}

	var user models.User
	err = s.db.Where("username = ? AND auth_type = ?", ldapUser.Username, AuthTypeLDAP).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Username:   ldapUser.Username,
			Email:      ldapUser.Email,
			Nickname:   ldapUser.Nickname,
			Department: ldapUser.Department,
			Role:       models.RoleUser,
			AuthType:   AuthTypeLDAP,
			IsActive:   true,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, response.NewForbidden("user is disabled")
	}

	err = s.db.Model(&user).Updates(map[string]interface{}{
		"email":      ldapUser.Email,
		"nickname":   ldapUser.Nickname,
		"department": ldapUser.Department,
	}).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateAdminIfNotExists creates the bootstrap admin account when no admin exists.
func (s *AuthService) CreateAdminIfNotExists(password string) error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		password = "admin"
		logger.Warn().Msg("[Auth] Creating default admin with the built-in password; change it after first login")
	}
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Username: "admin",
		Password: hashedPassword,
		Nickname: "Administrator",
		Role:     models.RoleAdmin,
		AuthType: AuthTypeLocal,
		IsActive: true,
	}
	return s.db.Create(&admin).Error
}

func (s *AuthService) IsLDAPEnabled() bool {
	return s.ldapService.IsEnabled()
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func (s *AuthService) ChangePassword(userID uint, req *ChangePasswordRequest) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if user.AuthType != AuthTypeLocal {
		return response.NewBadRequest("LDAP users cannot change password here")
	}

	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return response.NewBadRequest("incorrect old password")
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	return s.db.Model(user).Update("password", hashedPassword).Error
}
