package element

import (
	"canvas-editor/internal/errors"
	defError "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type TextForm struct {
	Text string `form:"text" json:"text"`
}

type PropertyForm struct {
	PositionX *float64 `form:"position_x" json:"position_x"`
	PositionY *float64 `form:"position_y" json:"position_y"`
	Width     *float64 `form:"width" json:"width"`
	Height    *float64 `form:"height" json:"height"`
}

var propertyFields = []string{"position_x", "position_y", "width", "height"}

// emptyProperty returns the first geometry field sent with an empty value.
// Form binding would otherwise read it as 0.
func emptyProperty(c *gin.Context) (string, bool) {
	for _, field := range propertyFields {
		if values, ok := c.Request.PostForm[field]; ok && len(values) > 0 && strings.TrimSpace(values[0]) == "" {
			return field, true
		}
	}
	return "", false
}

func parseID(c *gin.Context, param, message string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil {
		return 0, errors.NotFound(message, err)
	}
	return id, nil
}

func (h *Handler) AddText(c *gin.Context) {
	projectID, err := parseID(c, "id", "Project not found")
	if err != nil {
		c.Error(err)
		return
	}

	var form TextForm
	if err := c.ShouldBind(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID := c.GetUint64("user_id")

	element, err := h.service.AddText(c.Request.Context(), projectID, userID, form.Text)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "element": element})
}

func (h *Handler) Upload(c *gin.Context) {
	projectID, err := parseID(c, "id", "Project not found")
	if err != nil {
		c.Error(err)
		return
	}

	userID := c.GetUint64("user_id")

	var upload *Upload
	header, err := c.FormFile("file")
	switch {
	case err == nil:
		file, err := header.Open()
		if err != nil {
			c.Error(errors.Internal(err))
			return
		}
		defer file.Close()

		upload = &Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Reader:      file,
		}
	case defError.Is(err, http.ErrMissingFile), defError.Is(err, http.ErrNotMultipart):
		// reported by the service once project ownership is known
	default:
		c.Error(errors.BadRequest("Invalid upload", err))
		return
	}

	element, err := h.service.UploadImage(c.Request.Context(), projectID, userID, upload)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "element": element})
}

func (h *Handler) UpdateProperties(c *gin.Context) {
	elementID, err := parseID(c, "element_id", "Element not found")
	if err != nil {
		c.Error(err)
		return
	}

	var form PropertyForm
	if err := c.ShouldBind(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}
	if field, empty := emptyProperty(c); empty {
		c.Error(errors.UnprocessableEntity(field+" must be a number", nil))
		return
	}

	userID := c.GetUint64("user_id")

	update := PropertyUpdate{
		PositionX: form.PositionX,
		PositionY: form.PositionY,
		Width:     form.Width,
		Height:    form.Height,
	}
	if err := h.service.UpdateProperties(c.Request.Context(), elementID, userID, update); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Delete(c *gin.Context) {
	elementID, err := parseID(c, "element_id", "Element not found")
	if err != nil {
		c.Error(err)
		return
	}

	userID := c.GetUint64("user_id")

	if err := h.service.DeleteElement(c.Request.Context(), elementID, userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Duplicate(c *gin.Context) {
	elementID, err := parseID(c, "element_id", "Element not found")
	if err != nil {
		c.Error(err)
		return
	}

	userID := c.GetUint64("user_id")

	element, err := h.service.DuplicateElement(c.Request.Context(), elementID, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "element": element})
}
