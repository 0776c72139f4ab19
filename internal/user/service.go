package user

import (
	"canvas-editor/internal/domain"
	"canvas-editor/internal/errors"
	"context"
	defError "errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service defines the interface for user business logic
type Service interface {
	Register(ctx context.Context, user *domain.User) error
	Login(ctx context.Context, username, password string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uint64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	IncreaseTokenVersion(ctx context.Context, id uint64) error
}

type DefaultService struct {
	repository UserRepository
}

func NewService(repository UserRepository) Service {
	return &DefaultService{repository: repository}
}

// Register hashes the password and stores a new active user
func (s *DefaultService) Register(ctx context.Context, user *domain.User) error {
	user.Username = strings.TrimSpace(user.Username)

	_, err := s.repository.FindByUsername(ctx, user.Username)
	if err != nil && !defError.Is(err, gorm.ErrRecordNotFound) {
		return errors.Internal(err)
	}
	if err == nil {
		return errors.Conflict("A user with that username already exists", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.UnprocessableEntity("Can't use this password", err)
	}
	user.PasswordHash = string(hashedPassword)
	user.IsActive = true

	if err := s.repository.Create(ctx, user); err != nil {
		if defError.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Conflict("A user with that username already exists", err)
		}
		return errors.Internal(err)
	}
	return nil
}

func (s *DefaultService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.repository.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, errors.Unauthorized("Invalid username or password", err)
	}

	if !user.IsActive {
		return nil, errors.Unauthorized("User is not active", nil)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return nil, errors.Unauthorized("Invalid username or password", err)
	}

	return user, nil
}

func (s *DefaultService) GetUserByID(ctx context.Context, id uint64) (*domain.User, error) {
	user, err := s.repository.FindByID(ctx, id)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("User not found", err)
		}
		return nil, errors.Internal(err)
	}
	return user, nil
}

func (s *DefaultService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.repository.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("User not found", err)
		}
		return nil, errors.Internal(err)
	}
	return user, nil
}

// IncreaseTokenVersion invalidates every token issued so far
func (s *DefaultService) IncreaseTokenVersion(ctx context.Context, id uint64) error {
	return s.repository.IncreaseTokenVersion(ctx, id)
}
