package domain

import (
	"time"
)

const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
	RoleViewer = "viewer"
	RoleNone   = "none"
)

const (
	ElementText  = "text"
	ElementImage = "image"
	// ElementSVG is no longer created but rows may still carry it.
	ElementSVG = "svg"
)

const (
	DefaultPositionX = 0.5
	DefaultPositionY = 0.5
	DefaultWidth     = 50
	DefaultHeight    = 50

	// DuplicateOffset is added to both coordinates of a copied element.
	DuplicateOffset = 10

	MaxTitleLength = 100
)

type User struct {
	ID           uint64    `gorm:"primaryKey"`
	Username     string    `gorm:"size:150;uniqueIndex;not null"`
	Password     string    `gorm:"-"` // input only, not stored in db
	PasswordHash string    `gorm:"not null"`
	TokenVersion uint64    `gorm:"default:0"`
	IsActive     bool      `gorm:"default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SafeUser struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

func (u *User) ToSafeUser() SafeUser {
	return SafeUser{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
		IsActive:  u.IsActive,
	}
}

type Project struct {
	ID        uint64 `gorm:"primaryKey"`
	Title     string `gorm:"size:100;not null"`
	OwnerID   uint64 `gorm:"not null;index"`
	Owner     User   `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Elements []EditorElement   `gorm:"constraint:OnDelete:CASCADE"`
	Roles    []ProjectUserRole `gorm:"constraint:OnDelete:CASCADE"`
}

type ProjectUserRole struct {
	ID        uint64 `gorm:"primaryKey"`
	ProjectID uint64 `gorm:"not null;uniqueIndex:idx_project_user"`
	UserID    uint64 `gorm:"not null;uniqueIndex:idx_project_user"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Role      string `gorm:"size:10;not null;check:role IN ('viewer', 'editor')"`
	CreatedAt time.Time
}

// EditorElement carries no column defaults: gorm leaves zero values out of
// an INSERT when the field has one, which would rewrite 0 on a copy.
type EditorElement struct {
	ID          uint64  `gorm:"primaryKey"`
	ProjectID   uint64  `gorm:"not null;index"`
	Type        string  `gorm:"size:10;not null"`
	TextContent string  `gorm:"type:text"`
	File        *string `gorm:"size:255"`
	PositionX   float64 `gorm:"not null"`
	PositionY   float64 `gorm:"not null"`
	Width       float64 `gorm:"not null"`
	Height      float64 `gorm:"not null"`
}

// NewEditorElement returns an element placed at the default position and size.
func NewEditorElement(projectID uint64, elementType string) *EditorElement {
	return &EditorElement{
		ProjectID: projectID,
		Type:      elementType,
		PositionX: DefaultPositionX,
		PositionY: DefaultPositionY,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
	}
}

// HasStoredFile reports whether the element owns a file in blob storage.
func (e *EditorElement) HasStoredFile() bool {
	if e.File == nil || *e.File == "" {
		return false
	}
	return e.Type == ElementImage || e.Type == ElementSVG
}

// Duplicate copies every field except the id and shifts the position.
func (e *EditorElement) Duplicate() *EditorElement {
	cp := *e
	cp.ID = 0
	if e.File != nil {
		file := *e.File
		cp.File = &file
	}
	cp.PositionX += DuplicateOffset
	cp.PositionY += DuplicateOffset
	return &cp
}

// ElementDTO is the JSON shape the editor script works with.
type ElementDTO struct {
	ID          uint64  `json:"id"`
	Type        string  `json:"type"`
	TextContent string  `json:"text_content,omitempty"`
	FileURL     string  `json:"file_url,omitempty"`
	PositionX   float64 `json:"position_x"`
	PositionY   float64 `json:"position_y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
}

// ToDTO converts the element; fileURL maps a storage key to its public URL.
func (e *EditorElement) ToDTO(fileURL func(key string) string) ElementDTO {
	dto := ElementDTO{
		ID:        e.ID,
		Type:      e.Type,
		PositionX: e.PositionX,
		PositionY: e.PositionY,
		Width:     e.Width,
		Height:    e.Height,
	}
	if e.Type == ElementText {
		dto.TextContent = e.TextContent
	}
	if e.File != nil && *e.File != "" && fileURL != nil {
		dto.FileURL = fileURL(*e.File)
	}
	return dto
}
