package middleware

import (
	"canvas-editor/internal/auth"
	"canvas-editor/internal/config"
	"canvas-editor/internal/domain"
	apiError "canvas-editor/internal/errors"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserProvider struct {
	mock.Mock
}

func (m *MockUserProvider) GetUserByID(ctx context.Context, id uint64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	config.AppConfig.JWTSecret = "test-secret"
	router := gin.New()
	router.Use(ErrorHandler())
	return router
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestErrorHandler_RendersAPIError(t *testing.T) {
	router := setupRouter()
	router.GET("/", func(c *gin.Context) {
		c.Error(apiError.NotFound("Project not found", nil))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	response := decode(t, w)
	assert.Equal(t, false, response["success"])
	assert.Equal(t, "Project not found", response["error"])
}

func TestErrorHandler_WrapsPlainError(t *testing.T) {
	router := setupRouter()
	router.GET("/", func(c *gin.Context) {
		c.Error(errors.New("pq: connection refused"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	response := decode(t, w)
	assert.Equal(t, "Internal server error", response["error"])
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestErrorHandler_KeepsWrittenResponse(t *testing.T) {
	router := setupRouter()
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"ok": true})
		c.Error(errors.New("late failure"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, true, decode(t, w)["ok"])
}

func authRouter(provider UserProvider) *gin.Engine {
	router := setupRouter()
	m := &Auth{UserService: provider}
	router.GET("/protected", m.AuthMiddleWare(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  c.GetUint64("user_id"),
			"username": c.GetString("username"),
		})
	})
	return router
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	provider := new(MockUserProvider)
	router := authRouter(provider)

	token, err := auth.GenerateAccessToken(4, 2)
	require.NoError(t, err)
	provider.On("GetUserByID", mock.Anything, uint64(4)).
		Return(&domain.User{ID: 4, Username: "dana", IsActive: true, TokenVersion: 2}, nil)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, float64(4), response["user_id"])
	assert.Equal(t, "dana", response["username"])
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	provider := new(MockUserProvider)
	router := authRouter(provider)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	provider.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
}

func TestAuthMiddleware_RefreshTokenRejected(t *testing.T) {
	provider := new(MockUserProvider)
	router := authRouter(provider)

	token, err := auth.GenerateRefreshToken(4, 0)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_StaleTokenVersion(t *testing.T) {
	provider := new(MockUserProvider)
	router := authRouter(provider)

	token, err := auth.GenerateAccessToken(4, 1)
	require.NoError(t, err)
	provider.On("GetUserByID", mock.Anything, uint64(4)).
		Return(&domain.User{ID: 4, Username: "dana", IsActive: true, TokenVersion: 2}, nil)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token version!", decode(t, w)["error"])
}

func TestAuthMiddleware_InactiveUser(t *testing.T) {
	provider := new(MockUserProvider)
	router := authRouter(provider)

	token, err := auth.GenerateAccessToken(4, 0)
	require.NoError(t, err)
	provider.On("GetUserByID", mock.Anything, uint64(4)).
		Return(&domain.User{ID: 4, Username: "dana", IsActive: false}, nil)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIPRateLimiter_BlocksAfterLimit(t *testing.T) {
	router := setupRouter()
	limiter, err := NewIPRateLimiter("2-M")
	require.NoError(t, err)
	router.POST("/login", limiter, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestIPRateLimiter_EmptyRateDisables(t *testing.T) {
	limiter, err := NewIPRateLimiter("")
	require.NoError(t, err)
	assert.NotNil(t, limiter)
}

func TestIPRateLimiter_InvalidRate(t *testing.T) {
	_, err := NewIPRateLimiter("lots")
	assert.Error(t, err)
}

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	router := setupRouter()
	router.Use(Metrics())
	router.GET("/projects/edit/:id/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/projects/edit/9/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	assert.GreaterOrEqual(t, testutil.CollectAndCount(httpRequestDuration), 1)
}
