package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEditorElement_Defaults(t *testing.T) {
	el := NewEditorElement(7, ElementText)

	assert.Equal(t, uint64(7), el.ProjectID)
	assert.Equal(t, 0.5, el.PositionX)
	assert.Equal(t, 0.5, el.PositionY)
	assert.Equal(t, 50.0, el.Width)
	assert.Equal(t, 50.0, el.Height)
}

func TestDuplicate_OffsetsPositionAndKeepsSource(t *testing.T) {
	file := "editor_uploads/a.png"
	src := &EditorElement{
		ID: 3, ProjectID: 1, Type: ElementImage, File: &file,
		PositionX: 12.5, PositionY: 4, Width: 80, Height: 20,
	}

	cp := src.Duplicate()

	assert.Equal(t, uint64(0), cp.ID)
	assert.Equal(t, 22.5, cp.PositionX)
	assert.Equal(t, 14.0, cp.PositionY)
	assert.Equal(t, src.Width, cp.Width)
	assert.Equal(t, src.Height, cp.Height)
	assert.Equal(t, src.Type, cp.Type)
	assert.Equal(t, *src.File, *cp.File)
	assert.NotSame(t, src.File, cp.File)

	assert.Equal(t, uint64(3), src.ID)
	assert.Equal(t, 12.5, src.PositionX)
	assert.Equal(t, 4.0, src.PositionY)
}

func TestHasStoredFile(t *testing.T) {
	file := "editor_uploads/a.png"
	empty := ""

	assert.True(t, (&EditorElement{Type: ElementImage, File: &file}).HasStoredFile())
	assert.True(t, (&EditorElement{Type: ElementSVG, File: &file}).HasStoredFile())
	assert.False(t, (&EditorElement{Type: ElementImage}).HasStoredFile())
	assert.False(t, (&EditorElement{Type: ElementImage, File: &empty}).HasStoredFile())
	assert.False(t, (&EditorElement{Type: ElementText, File: &file}).HasStoredFile())
}

func TestToDTO(t *testing.T) {
	file := "editor_uploads/a.png"
	img := &EditorElement{ID: 2, Type: ElementImage, File: &file, PositionX: 1, PositionY: 2, Width: 3, Height: 4}
	txt := &EditorElement{ID: 3, Type: ElementText, TextContent: "Hello", PositionX: 0.5, PositionY: 0.5}

	url := func(key string) string { return "/media/" + key }

	imgDTO := img.ToDTO(url)
	assert.Equal(t, "/media/editor_uploads/a.png", imgDTO.FileURL)
	assert.Empty(t, imgDTO.TextContent)
	assert.Equal(t, 3.0, imgDTO.Width)

	txtDTO := txt.ToDTO(url)
	assert.Equal(t, "Hello", txtDTO.TextContent)
	assert.Empty(t, txtDTO.FileURL)
}
