package project

import (
	"canvas-editor/internal/domain"
	"canvas-editor/internal/errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type TitleForm struct {
	Title string `form:"title" json:"title"`
}

type CreateForm struct {
	Title string `form:"title" json:"title" binding:"required"`
}

type AddViewerForm struct {
	Username string `form:"username" json:"username" binding:"required"`
}

func projectID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errors.NotFound("Project not found", err)
	}
	return id, nil
}

func (h *Handler) ShowProjects(c *gin.Context) {
	userID := c.GetUint64("user_id")

	result, err := h.service.ListProjects(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AddForm describes the create form for the page that renders it
func (h *Handler) AddForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"fields":           []string{"title"},
		"max_title_length": domain.MaxTitleLength,
	})
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateForm
	if err := c.ShouldBind(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID := c.GetUint64("user_id")

	project, err := h.service.CreateProject(c.Request.Context(), userID, form.Title)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"project":  project,
		"redirect": "/projects/",
	})
}

func (h *Handler) UpdateTitle(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		c.Error(err)
		return
	}

	var form TitleForm
	if err := c.ShouldBind(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID := c.GetUint64("user_id")

	project, err := h.service.RenameProject(c.Request.Context(), id, userID, form.Title)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "title": project.Title})
}

// DeleteConfirm returns the project the confirmation page asks about
func (h *Handler) DeleteConfirm(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		c.Error(err)
		return
	}

	userID := c.GetUint64("user_id")

	project, err := h.service.GetOwnedProject(c.Request.Context(), id, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project": ProjectSummary{
			ID:        project.ID,
			Title:     project.Title,
			OwnerID:   project.OwnerID,
			Role:      domain.RoleOwner,
			CreatedAt: project.CreatedAt,
			UpdatedAt: project.UpdatedAt,
		},
	})
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		c.Error(err)
		return
	}

	userID := c.GetUint64("user_id")

	if err := h.service.DeleteProject(c.Request.Context(), id, userID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "redirect": "/projects/"})
}

func (h *Handler) Edit(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		c.Error(err)
		return
	}

	userID := c.GetUint64("user_id")

	view, err := h.service.OpenEditor(c.Request.Context(), id, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) AddViewer(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		c.Error(err)
		return
	}

	var form AddViewerForm
	if err := c.ShouldBind(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID := c.GetUint64("user_id")

	result, err := h.service.AddViewer(c.Request.Context(), id, userID, form.Username)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": result.Message})
}
