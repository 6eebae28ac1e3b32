package services

import (
	"errors"

	"github.com/huangang/caseeval/internal/models"
	"github.com/huangang/caseeval/internal/utils"
	"github.com/huangang/caseeval/pkg/response"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type UserListRequest struct {
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Username   string `form:"username"`
	Role       string `form:"role"`
	Department string `form:"department"`
}

type UserListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.User `json:"items"`
}

type CreateUserRequest struct {
	Username   string `json:"username" binding:"required,min=3,max=100"`
	Password   string `json:"password" binding:"required,min=6"`
	Email      string `json:"email" binding:"omitempty,email"`
	Nickname   string `json:"nickname" binding:"max=100"`
	Department string `json:"department" binding:"max=100"`
	Role       string `json:"role" binding:"omitempty,oneof=admin user"`
}

type UpdateUserRequest struct {
	Role       *string `json:"role" binding:"omitempty,oneof=admin user"`
	IsActive   *bool   `json:"is_active"`
	Nickname   *string `json:"nickname"`
	Department *string `json:"department"`
}

func (s *UserService) List(req *UserListRequest) (*UserListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var users []models.User
	var total int64

	query := s.db.Model(&models.User{})
	if req.Username != "" {
		query = query.Where("username LIKE ?", "%"+req.Username+"%")
	}
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.Department != "" {
		query = query.Where("department = ?", req.Department)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("id ASC").Offset(offset).Limit(req.PageSize).Find(&users).Error; err != nil {
		return nil, err
	}

	return &UserListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    users,
	}, nil
}

func (s *UserService) Create(req *CreateUserRequest) (*models.User, error) {
	var existing models.User
	err := s.db.Unscoped().Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		return nil, response.NewConflict("username already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	user := &models.User{
		Username:   req.Username,
		Password:   hash,
		Email:      req.Email,
		Nickname:   req.Nickname,
		Department: req.Department,
		Role:       role,
		AuthType:   AuthTypeLocal,
		IsActive:   true,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Update changes another user's account. Admins cannot edit themselves here
// so that the last admin cannot lock themselves out.
func (s *UserService) Update(id, currentUserID uint, req *UpdateUserRequest) (*models.User, error) {
	if id == currentUserID {
		return nil, response.NewBadRequest("cannot modify your own account")
	}

	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Nickname != nil {
		updates["nickname"] = *req.Nickname
	}
	if req.Department != nil {
		updates["department"] = *req.Department
	}
	if len(updates) == 0 {
		return nil, response.NewBadRequest("no fields to update")
	}

	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Delete(id, currentUserID uint) error {
	if id == currentUserID {
		return response.NewBadRequest("cannot delete your own account")
	}
	result := s.db.Delete(&models.User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("user not found")
	}
	return nil
}
