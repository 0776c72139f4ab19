package project

import (
	"canvas-editor/internal/domain"
	"canvas-editor/internal/errors"
	"canvas-editor/internal/logger"
	"canvas-editor/internal/storage"
	"canvas-editor/redis"
	"context"
	defError "errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

const listCacheTTL = 24 * time.Hour

type Service interface {
	ListProjects(ctx context.Context, userID uint64) (*ProjectList, error)
	CreateProject(ctx context.Context, userID uint64, title string) (*ProjectSummary, error)
	RenameProject(ctx context.Context, projectID uint64, userID uint64, title string) (*domain.Project, error)
	GetOwnedProject(ctx context.Context, projectID uint64, userID uint64) (*domain.Project, error)
	DeleteProject(ctx context.Context, projectID uint64, userID uint64) error
	ResolveRole(ctx context.Context, projectID uint64, userID uint64) (string, error)
	OpenEditor(ctx context.Context, projectID uint64, userID uint64) (*EditorView, error)
	AddViewer(ctx context.Context, projectID uint64, ownerID uint64, username string) (*ShareResult, error)
}

type UserProvider interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

type DefaultService struct {
	repository   ProjectRepository
	userProvider UserProvider
	store        storage.Store
	cache        *redis.Cache
}

func NewService(
	repository ProjectRepository,
	userProvider UserProvider,
	store storage.Store,
	cache *redis.Cache,
) Service {
	return &DefaultService{
		repository:   repository,
		userProvider: userProvider,
		store:        store,
		cache:        cache,
	}
}

func versionKey(userID uint64) string {
	return fmt.Sprintf("user:%d:projects:version", userID)
}

// invalidate bumps the listing version of every given user
func (s *DefaultService) invalidate(ctx context.Context, userIDs ...uint64) {
	for _, id := range userIDs {
		s.cache.IncrementVersion(ctx, versionKey(id))
	}
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errors.UnprocessableEntity("Title cannot be empty", nil)
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return "", errors.UnprocessableEntity(
			fmt.Sprintf("Title must be at most %d characters", domain.MaxTitleLength), nil)
	}
	return title, nil
}

func notFound(err error) error {
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("Project not found", err)
	}
	return errors.Internal(err)
}

type ProjectList struct {
	Projects []ProjectSummary `json:"projects"`
}

// ListProjects returns owned projects followed by projects shared with the
// user as a viewer. A project the user owns is never listed twice.
func (s *DefaultService) ListProjects(ctx context.Context, userID uint64) (*ProjectList, error) {
	v := s.cache.GetVersion(ctx, versionKey(userID))
	cacheKey := fmt.Sprintf("projects:u:%d:v:%d", userID, v)

	var result ProjectList
	found, err := s.cache.Get(ctx, cacheKey, &result)
	if err != nil {
		logger.Log.Warn().Err(err).Str("key", cacheKey).Msg("read project list cache")
	}
	if found {
		return &result, nil
	}

	owned, err := s.repository.ListOwned(ctx, userID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	shared, err := s.repository.ListShared(ctx, userID, domain.RoleViewer)
	if err != nil {
		return nil, errors.Internal(err)
	}

	seen := make(map[uint64]struct{}, len(owned))
	projects := make([]ProjectSummary, 0, len(owned)+len(shared))
	for _, p := range owned {
		seen[p.ID] = struct{}{}
		projects = append(projects, p)
	}
	for _, p := range shared {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		projects = append(projects, p)
	}
	result = ProjectList{Projects: projects}

	if err := s.cache.Set(ctx, cacheKey, result, listCacheTTL); err != nil {
		logger.Log.Warn().Err(err).Str("key", cacheKey).Msg("write project list cache")
	}

	return &result, nil
}

func (s *DefaultService) CreateProject(ctx context.Context, userID uint64, title string) (*ProjectSummary, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	project := &domain.Project{
		Title:   title,
		OwnerID: userID,
	}
	if err := s.repository.Create(ctx, project); err != nil {
		return nil, errors.Internal(err)
	}
	s.invalidate(ctx, userID)

	return &ProjectSummary{
		ID:        project.ID,
		Title:     project.Title,
		OwnerID:   project.OwnerID,
		Role:      domain.RoleOwner,
		CreatedAt: project.CreatedAt,
		UpdatedAt: project.UpdatedAt,
	}, nil
}

func (s *DefaultService) RenameProject(ctx context.Context, projectID uint64, userID uint64, title string) (*domain.Project, error) {
	if _, err := s.repository.FindOwned(ctx, projectID, userID); err != nil {
		return nil, notFound(err)
	}

	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	project, err := s.repository.UpdateTitle(ctx, projectID, userID, title)
	if err != nil {
		return nil, notFound(err)
	}

	s.invalidate(ctx, userID)
	if grantees, err := s.repository.ListGranteeIDs(ctx, projectID); err == nil {
		s.invalidate(ctx, grantees...)
	} else {
		logger.Log.Warn().Err(err).Uint64("project_id", projectID).Msg("list grantees")
	}

	return project, nil
}

func (s *DefaultService) GetOwnedProject(ctx context.Context, projectID uint64, userID uint64) (*domain.Project, error) {
	project, err := s.repository.FindOwned(ctx, projectID, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return project, nil
}

// DeleteProject removes the project, its elements, its grants and every
// file its image elements point to, all or nothing.
func (s *DefaultService) DeleteProject(ctx context.Context, projectID uint64, userID uint64) error {
	grantees, err := s.repository.ListGranteeIDs(ctx, projectID)
	if err != nil {
		return errors.Internal(err)
	}

	err = s.repository.Delete(ctx, projectID, userID, func(elements []domain.EditorElement) error {
		return s.removeFiles(ctx, elements)
	})
	if err != nil {
		var apiErr *errors.APIError
		if defError.As(err, &apiErr) {
			return apiErr
		}
		return notFound(err)
	}

	s.invalidate(ctx, userID)
	s.invalidate(ctx, grantees...)
	return nil
}

func (s *DefaultService) removeFiles(ctx context.Context, elements []domain.EditorElement) error {
	removed := make(map[string]struct{})
	for i := range elements {
		el := &elements[i]
		if !el.HasStoredFile() {
			continue
		}
		if _, ok := removed[*el.File]; ok {
			continue
		}
		if err := s.store.Remove(ctx, *el.File); err != nil {
			return errors.Internal(fmt.Errorf("remove %s: %w", *el.File, err))
		}
		removed[*el.File] = struct{}{}
	}
	return nil
}

// ResolveRole returns owner, the granted role, or none.
func (s *DefaultService) ResolveRole(ctx context.Context, projectID uint64, userID uint64) (string, error) {
	project, err := s.repository.FindByID(ctx, projectID)
	if err != nil {
		return "", notFound(err)
	}
	return s.resolveRole(ctx, project, userID)
}

func (s *DefaultService) resolveRole(ctx context.Context, project *domain.Project, userID uint64) (string, error) {
	if project.OwnerID == userID {
		return domain.RoleOwner, nil
	}

	role, err := s.repository.GetUserRole(ctx, project.ID, userID)
	if err != nil {
		return "", errors.Internal(err)
	}
	if role == "" {
		return domain.RoleNone, nil
	}
	return role, nil
}

type EditorView struct {
	Project  ProjectSummary      `json:"project"`
	Elements []domain.ElementDTO `json:"elements"`
	Role     string              `json:"role"`
	// CanEdit is true only for the owner: element and project mutations
	// are gated on ownership, editor grants included.
	CanEdit bool `json:"can_edit"`
}

func (s *DefaultService) OpenEditor(ctx context.Context, projectID uint64, userID uint64) (*EditorView, error) {
	project, err := s.repository.FindByID(ctx, projectID)
	if err != nil {
		return nil, notFound(err)
	}

	role, err := s.resolveRole(ctx, project, userID)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleNone {
		// same answer as a missing project so existence doesn't leak
		return nil, errors.NotFound("Project not found", nil)
	}

	elements, err := s.repository.ListElements(ctx, projectID)
	if err != nil {
		return nil, errors.Internal(err)
	}

	dtos := make([]domain.ElementDTO, 0, len(elements))
	for i := range elements {
		dtos = append(dtos, elements[i].ToDTO(s.store.URL))
	}

	return &EditorView{
		Project: ProjectSummary{
			ID:        project.ID,
			Title:     project.Title,
			OwnerID:   project.OwnerID,
			OwnerName: project.Owner.Username,
			Role:      role,
			CreatedAt: project.CreatedAt,
			UpdatedAt: project.UpdatedAt,
		},
		Elements: dtos,
		Role:     role,
		CanEdit:  role == domain.RoleOwner,
	}, nil
}

type ShareResult struct {
	Message string `json:"message"`
	Role    string `json:"role"`
	Created bool   `json:"created"`
}

// AddViewer grants username viewer access. A user who already has a grant
// keeps it unchanged.
func (s *DefaultService) AddViewer(ctx context.Context, projectID uint64, ownerID uint64, username string) (*ShareResult, error) {
	if _, err := s.repository.FindOwned(ctx, projectID, ownerID); err != nil {
		return nil, notFound(err)
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.UnprocessableEntity("Username is required", nil)
	}

	target, err := s.userProvider.GetUserByUsername(ctx, username)
	if err != nil {
		var apiErr *errors.APIError
		if defError.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, errors.NotFound("User not found", err)
	}

	if target.ID == ownerID {
		return nil, errors.UnprocessableEntity("You already own this project", nil)
	}

	grant, created, err := s.repository.GrantRole(ctx, projectID, target.ID, domain.RoleViewer)
	if err != nil {
		return nil, errors.Internal(err)
	}

	if !created {
		return &ShareResult{
			Message: fmt.Sprintf("%s already has %s access", target.Username, grant.Role),
			Role:    grant.Role,
		}, nil
	}

	s.invalidate(ctx, target.ID)
	return &ShareResult{
		Message: fmt.Sprintf("%s added as viewer", target.Username),
		Role:    grant.Role,
		Created: true,
	}, nil
}
