package project

import (
	"canvas-editor/internal/domain"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	ListOwned(ctx context.Context, ownerID uint64) ([]ProjectSummary, error)
	ListShared(ctx context.Context, userID uint64, role string) ([]ProjectSummary, error)
	FindByID(ctx context.Context, id uint64) (*domain.Project, error)
	FindOwned(ctx context.Context, id uint64, ownerID uint64) (*domain.Project, error)
	UpdateTitle(ctx context.Context, id uint64, ownerID uint64, title string) (*domain.Project, error)
	Delete(ctx context.Context, id uint64, ownerID uint64, cleanup func(elements []domain.EditorElement) error) error
	GetUserRole(ctx context.Context, projectID uint64, userID uint64) (string, error)
	GrantRole(ctx context.Context, projectID uint64, userID uint64, role string) (*domain.ProjectUserRole, bool, error)
	ListGranteeIDs(ctx context.Context, projectID uint64) ([]uint64, error)
	ListElements(ctx context.Context, projectID uint64) ([]domain.EditorElement, error)
}

type ProjectRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) ProjectRepository {
	return &ProjectRepositoryImpl{db: db}
}

func (r *ProjectRepositoryImpl) Create(ctx context.Context, project *domain.Project) error {
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(project).Error
}

// ProjectSummary is a project row as seen by one user.
type ProjectSummary struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	OwnerID   uint64    `json:"owner_id"`
	OwnerName string    `json:"owner_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *ProjectRepositoryImpl) ListOwned(ctx context.Context, ownerID uint64) ([]ProjectSummary, error) {
	rows := []ProjectSummary{}
	err := r.db.WithContext(ctx).
		Table("projects").
		Select(`projects.id, projects.title, projects.owner_id, users.username AS owner_name,
			? AS role, projects.created_at, projects.updated_at`, domain.RoleOwner).
		Joins("JOIN users ON users.id = projects.owner_id").
		Where("projects.owner_id = ?", ownerID).
		Order("projects.id ASC").
		Scan(&rows).Error
	return rows, err
}

// ListShared returns projects granted to userID with role, leaving out
// projects the user owns.
func (r *ProjectRepositoryImpl) ListShared(ctx context.Context, userID uint64, role string) ([]ProjectSummary, error) {
	rows := []ProjectSummary{}
	err := r.db.WithContext(ctx).
		Table("projects").
		Select(`projects.id, projects.title, projects.owner_id, users.username AS owner_name,
			project_user_roles.role AS role, projects.created_at, projects.updated_at`).
		Joins("JOIN project_user_roles ON project_user_roles.project_id = projects.id").
		Joins("JOIN users ON users.id = projects.owner_id").
		Where("project_user_roles.user_id = ? AND project_user_roles.role = ?", userID, role).
		Where("projects.owner_id <> ?", userID).
		Order("projects.id ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *ProjectRepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).Preload("Owner").First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepositoryImpl) FindOwned(ctx context.Context, id uint64, ownerID uint64) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepositoryImpl) UpdateTitle(ctx context.Context, id uint64, ownerID uint64, title string) (*domain.Project, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Project{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]any{"title": title, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindOwned(ctx, id, ownerID)
}

// Delete removes the project with its elements and grants in one
// transaction. cleanup runs last, before commit, with the deleted
// elements; an error from it rolls everything back.
func (r *ProjectRepositoryImpl) Delete(
	ctx context.Context,
	id uint64,
	ownerID uint64,
	cleanup func(elements []domain.EditorElement) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project domain.Project
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND owner_id = ?", id, ownerID).
			First(&project).Error; err != nil {
			return err
		}

		var elements []domain.EditorElement
		if err := tx.Where("project_id = ?", id).Find(&elements).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", id).Delete(&domain.EditorElement{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&domain.ProjectUserRole{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&project).Error; err != nil {
			return err
		}

		if cleanup != nil {
			return cleanup(elements)
		}
		return nil
	})
}

// GetUserRole returns the granted role or "" when there is no grant.
func (r *ProjectRepositoryImpl) GetUserRole(ctx context.Context, projectID uint64, userID uint64) (string, error) {
	var grant domain.ProjectUserRole
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return grant.Role, nil
}

// GrantRole creates the (project, user) grant unless one already exists.
// An existing grant is returned untouched with created=false.
func (r *ProjectRepositoryImpl) GrantRole(
	ctx context.Context,
	projectID uint64,
	userID uint64,
	role string,
) (*domain.ProjectUserRole, bool, error) {
	grant := domain.ProjectUserRole{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&grant)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return &grant, true, nil
	}

	var existing domain.ProjectUserRole
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&existing).Error; err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

func (r *ProjectRepositoryImpl) ListGranteeIDs(ctx context.Context, projectID uint64) ([]uint64, error) {
	ids := []uint64{}
	err := r.db.WithContext(ctx).
		Model(&domain.ProjectUserRole{}).
		Where("project_id = ?", projectID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *ProjectRepositoryImpl) ListElements(ctx context.Context, projectID uint64) ([]domain.EditorElement, error) {
	elements := []domain.EditorElement{}
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&elements).Error
	return elements, err
}
