package user

import (
	"canvas-editor/internal/auth"
	"canvas-editor/internal/config"
	"canvas-editor/internal/domain"
	"canvas-editor/internal/errors"
	"canvas-editor/internal/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

const refreshCookie = "refresh_token"

// Handler handles HTTP requests for users
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type FormLogin struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type FormSignup struct {
	Username        string `form:"username" json:"username" binding:"required,min=3,max=150"`
	Password        string `form:"password" json:"password" binding:"required,min=8"`
	PasswordConfirm string `form:"password_confirm" json:"password_confirm" binding:"required,eqfield=Password"`
}

// SignupForm describes the signup form for the page that renders it
func (h *Handler) SignupForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"fields": []string{"username", "password", "password_confirm"},
	})
}

func (h *Handler) Signup(c *gin.Context) {
	var form FormSignup
	if err := c.ShouldBind(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	user := &domain.User{
		Username: form.Username,
		Password: form.Password,
	}

	if err := h.service.Register(c.Request.Context(), user); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"user":     user.ToSafeUser(),
		"redirect": "/login",
	})
}

func (h *Handler) Login(c *gin.Context) {
	var form FormLogin
	if err := c.ShouldBind(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	user, err := h.service.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		c.Error(err)
		return
	}

	accessToken, err := auth.GenerateAccessToken(user.ID, user.TokenVersion)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}
	refreshToken, err := auth.GenerateRefreshToken(user.ID, user.TokenVersion)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}

	c.SetCookie(
		refreshCookie,
		refreshToken,
		int(auth.RefreshTokenTTL.Seconds()),
		"/",
		"",
		config.AppConfig.Environment == "production", // Secure
		true, // HttpOnly
	)

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"user":         user.ToSafeUser(),
	})
}

func (h *Handler) RefreshToken(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookie)
	if err != nil {
		c.Error(errors.Unauthorized("Refresh token not found", err))
		return
	}

	claims, err := auth.VerifyRefreshToken(refreshToken)
	if err != nil {
		c.Error(errors.Unauthorized("Invalid token or expired!", err))
		return
	}

	user, err := h.service.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		c.Error(errors.Unauthorized("User not found", err))
		return
	}

	if user.TokenVersion != claims.TokenVersion {
		c.Error(errors.Unauthorized("Invalid token!", nil))
		return
	}

	accessToken, err := auth.GenerateAccessToken(user.ID, user.TokenVersion)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	userID := c.GetUint64("user_id")

	if err := h.service.IncreaseTokenVersion(c.Request.Context(), userID); err != nil {
		logger.Log.Warn().Err(err).Uint64("user_id", userID).Msg("increase token version")
	}
	c.SetCookie(refreshCookie, "", -1, "/", "", config.AppConfig.Environment == "production", true)
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID := c.GetUint64("user_id")

	user, err := h.service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user.ToSafeUser())
}
