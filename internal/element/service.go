package element

import (
	"canvas-editor/internal/domain"
	"canvas-editor/internal/errors"
	"canvas-editor/internal/logger"
	"canvas-editor/internal/storage"
	"canvas-editor/internal/worker"
	"context"
	defError "errors"
	"fmt"
	"io"
	"math"
	"strings"

	"gorm.io/gorm"
)

type Service interface {
	AddText(ctx context.Context, projectID uint64, userID uint64, text string) (*domain.ElementDTO, error)
	UploadImage(ctx context.Context, projectID uint64, userID uint64, upload *Upload) (*domain.ElementDTO, error)
	UpdateProperties(ctx context.Context, elementID uint64, userID uint64, update PropertyUpdate) error
	DeleteElement(ctx context.Context, elementID uint64, userID uint64) error
	DuplicateElement(ctx context.Context, elementID uint64, userID uint64) (*domain.ElementDTO, error)
}

// TaskSubmitter runs file cleanup off the request path.
type TaskSubmitter interface {
	Submit(name string, t worker.Task) bool
}

// Upload is a file received from the client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// PropertyUpdate holds the geometry fields present in a request. A nil
// field is left unchanged.
type PropertyUpdate struct {
	PositionX *float64
	PositionY *float64
	Width     *float64
	Height    *float64
}

type DefaultService struct {
	repository ElementRepository
	store      storage.Store
	tasks      TaskSubmitter
}

func NewService(repository ElementRepository, store storage.Store, tasks TaskSubmitter) Service {
	return &DefaultService{
		repository: repository,
		store:      store,
		tasks:      tasks,
	}
}

func projectNotFound(err error) error {
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("Project not found", err)
	}
	return errors.Internal(err)
}

func elementNotFound(err error) error {
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("Element not found", err)
	}
	return errors.Internal(err)
}

func (s *DefaultService) toDTO(element *domain.EditorElement) *domain.ElementDTO {
	dto := element.ToDTO(s.store.URL)
	return &dto
}

func (s *DefaultService) AddText(ctx context.Context, projectID uint64, userID uint64, text string) (*domain.ElementDTO, error) {
	if _, err := s.repository.FindOwnedProject(ctx, projectID, userID); err != nil {
		return nil, projectNotFound(err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.UnprocessableEntity("No text provided", nil)
	}

	element := domain.NewEditorElement(projectID, domain.ElementText)
	element.TextContent = text
	if err := s.repository.Create(ctx, element); err != nil {
		return nil, errors.Internal(err)
	}

	return s.toDTO(element), nil
}

// UploadImage stores the file and creates an image element for it. Only
// declared image/* content types are accepted.
func (s *DefaultService) UploadImage(ctx context.Context, projectID uint64, userID uint64, upload *Upload) (*domain.ElementDTO, error) {
	if _, err := s.repository.FindOwnedProject(ctx, projectID, userID); err != nil {
		return nil, projectNotFound(err)
	}

	if upload == nil || upload.Reader == nil {
		return nil, errors.UnprocessableEntity("No file uploaded", nil)
	}
	if !strings.HasPrefix(strings.ToLower(upload.ContentType), "image/") {
		return nil, errors.UnprocessableEntity("Unsupported file type", nil)
	}

	key := storage.NewKey(upload.ContentType, upload.Filename)
	if err := s.store.Save(ctx, key, upload.Reader, upload.Size, upload.ContentType); err != nil {
		return nil, errors.Internal(fmt.Errorf("save %s: %w", key, err))
	}

	element := domain.NewEditorElement(projectID, domain.ElementImage)
	element.File = &key
	if err := s.repository.Create(ctx, element); err != nil {
		if rmErr := s.store.Remove(ctx, key); rmErr != nil {
			logger.Log.Error().Err(rmErr).Str("key", key).Msg("remove file after failed insert")
		}
		return nil, errors.Internal(err)
	}

	logger.Log.Info().
		Uint64("project_id", projectID).
		Uint64("element_id", element.ID).
		Str("key", key).
		Msg("image uploaded")

	return s.toDTO(element), nil
}

func (s *DefaultService) UpdateProperties(ctx context.Context, elementID uint64, userID uint64, update PropertyUpdate) error {
	if _, err := s.repository.FindOwned(ctx, elementID, userID); err != nil {
		return elementNotFound(err)
	}

	fields := make(map[string]any, 4)
	for column, value := range map[string]*float64{
		"position_x": update.PositionX,
		"position_y": update.PositionY,
		"width":      update.Width,
		"height":     update.Height,
	} {
		if value == nil {
			continue
		}
		if math.IsNaN(*value) || math.IsInf(*value, 0) {
			return errors.UnprocessableEntity(column+" must be a finite number", nil)
		}
		fields[column] = *value
	}

	if len(fields) == 0 {
		return nil
	}

	if err := s.repository.UpdateFields(ctx, elementID, fields); err != nil {
		return elementNotFound(err)
	}
	return nil
}

// DeleteElement removes the element row. Its stored file goes too once no
// other element references it.
func (s *DefaultService) DeleteElement(ctx context.Context, elementID uint64, userID uint64) error {
	element, err := s.repository.FindOwned(ctx, elementID, userID)
	if err != nil {
		return elementNotFound(err)
	}

	if err := s.repository.Delete(ctx, elementID); err != nil {
		return elementNotFound(err)
	}

	if !element.HasStoredFile() {
		return nil
	}

	key := *element.File
	cleanup := func(ctx context.Context) error {
		return s.removeOrphanedFile(ctx, key)
	}
	if s.tasks == nil || !s.tasks.Submit("remove element file", cleanup) {
		if err := cleanup(ctx); err != nil {
			logger.Log.Error().Err(err).Str("key", key).Msg("remove element file")
		}
	}
	return nil
}

func (s *DefaultService) removeOrphanedFile(ctx context.Context, key string) error {
	refs, err := s.repository.CountFileReferences(ctx, key)
	if err != nil {
		return fmt.Errorf("count references to %s: %w", key, err)
	}
	if refs > 0 {
		return nil
	}
	return s.store.Remove(ctx, key)
}

func (s *DefaultService) DuplicateElement(ctx context.Context, elementID uint64, userID uint64) (*domain.ElementDTO, error) {
	source, err := s.repository.FindOwned(ctx, elementID, userID)
	if err != nil {
		return nil, elementNotFound(err)
	}

	copied := source.Duplicate()
	if err := s.repository.Create(ctx, copied); err != nil {
		return nil, errors.Internal(err)
	}

	return s.toDTO(copied), nil
}
