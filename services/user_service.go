package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tavrezsi/tavrezsi-api/models"
	"github.com/tavrezsi/tavrezsi-api/utils"
	"gorm.io/gorm"
)

// UserService manages accounts and verifies credentials
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a user service over db
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// CreateUserInput holds the fields of a new account
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Name     string
	Role     string
}

// Authenticate returns the activated user matching username and password
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActivated {
		return nil, ErrAccountNotActivated
	}
	return &user, nil
}

// Get returns a user by id
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// List returns all users, optionally filtered by role
func (s *UserService) List(ctx context.Context, caller Caller, role string) ([]models.User, error) {
	if err := requireAdmin(caller, "list users"); err != nil {
		return nil, err
	}
	if role != "" && !models.IsValidRole(role) {
		return nil, invalid("role", "role must be one of admin, owner, tenant")
	}

	query := s.db.WithContext(ctx).Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	users := []models.User{}
	if err := query.Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Create adds an activated account with the given password
func (s *UserService) Create(ctx context.Context, caller Caller, input CreateUserInput) (*models.User, error) {
	if err := requireAdmin(caller, "create users"); err != nil {
		return nil, err
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = utils.NormalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)

	if input.Username == "" {
		return nil, invalid("username", "username is required")
	}
	if !utils.IsValidEmail(input.Email) {
		return nil, invalid("email", "a valid email address is required")
	}
	if input.Name == "" {
		return nil, invalid("name", "name is required")
	}
	if !models.IsValidRole(input.Role) {
		return nil, invalid("role", "role must be one of admin, owner, tenant")
	}
	if err := validatePassword("password", input.Password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		Role:         input.Role,
		IsActivated:  true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Resource: "user", Message: "username or email already in use"}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// UpdateProfileInput holds the editable fields of the caller's own account.
// Empty fields are left unchanged.
type UpdateProfileInput struct {
	Name  string
	Email string
}

// UpdateProfile changes the caller's name or email
func (s *UserService) UpdateProfile(ctx context.Context, caller Caller, input UpdateProfileInput) (*models.User, error) {
	user, err := s.Get(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name := strings.TrimSpace(input.Name); name != "" {
		updates["name"] = name
	}
	if input.Email != "" {
		email := utils.NormalizeEmail(input.Email)
		if !utils.IsValidEmail(email) {
			return nil, invalid("email", "a valid email address is required")
		}
		updates["email"] = email
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Resource: "user", Message: "a user with this email already exists"}
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return s.Get(ctx, caller.ID)
}
