package element

import (
	"canvas-editor/internal/domain"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ElementRepository interface {
	FindOwnedProject(ctx context.Context, projectID uint64, ownerID uint64) (*domain.Project, error)
	Create(ctx context.Context, element *domain.EditorElement) error
	FindOwned(ctx context.Context, elementID uint64, ownerID uint64) (*domain.EditorElement, error)
	UpdateFields(ctx context.Context, elementID uint64, fields map[string]any) error
	Delete(ctx context.Context, elementID uint64) error
	CountFileReferences(ctx context.Context, key string) (int64, error)
}

type ElementRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) ElementRepository {
	return &ElementRepositoryImpl{db: db}
}

func (r *ElementRepositoryImpl) FindOwnedProject(ctx context.Context, projectID uint64, ownerID uint64) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", projectID, ownerID).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ElementRepositoryImpl) Create(ctx context.Context, element *domain.EditorElement) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(element).Error
}

// FindOwned loads an element whose project belongs to ownerID.
func (r *ElementRepositoryImpl) FindOwned(ctx context.Context, elementID uint64, ownerID uint64) (*domain.EditorElement, error) {
	var element domain.EditorElement
	err := r.db.WithContext(ctx).
		Joins("JOIN projects ON projects.id = editor_elements.project_id").
		Where("editor_elements.id = ? AND projects.owner_id = ?", elementID, ownerID).
		First(&element).Error
	if err != nil {
		return nil, err
	}
	return &element, nil
}

func (r *ElementRepositoryImpl) UpdateFields(ctx context.Context, elementID uint64, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&domain.EditorElement{}).
		Where("id = ?", elementID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ElementRepositoryImpl) Delete(ctx context.Context, elementID uint64) error {
	res := r.db.WithContext(ctx).Delete(&domain.EditorElement{}, elementID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountFileReferences counts the elements still pointing at key. Duplicated
// image elements share one stored file.
func (r *ElementRepositoryImpl) CountFileReferences(ctx context.Context, key string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.EditorElement{}).
		Where("file = ?", key).
		Count(&count).Error
	return count, err
}
