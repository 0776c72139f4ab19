package main

import (
	"canvas-editor/internal/config"
	"canvas-editor/internal/db"
	"canvas-editor/internal/element"
	"canvas-editor/internal/logger"
	"canvas-editor/internal/middleware"
	"canvas-editor/internal/project"
	"canvas-editor/internal/storage"
	"canvas-editor/internal/user"
	"canvas-editor/internal/worker"
	"canvas-editor/redis"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	config.LoadConfig()
	logger.Init(config.AppConfig.Environment)

	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Connect to database
	if err := db.ConnectDb(); err != nil {
		logger.Log.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.CloseDb()

	// Migrate database schema
	if err := db.Migrate(); err != nil {
		logger.Log.Fatal().Err(err).Msg("migration failed")
	}

	// Seed database with initial data (for development)
	if config.AppConfig.Environment == "development" {
		db.SeedData(ctx)
	}

	// Initialize Redis
	cache := redis.NewCache(redis.InitRedis(ctx, config.AppConfig.RedisAddress))

	store, err := newStore(ctx)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("file storage unavailable")
	}

	pool := worker.NewWorkerPool(config.AppConfig.WorkerPoolSize, 100, 30*time.Second)

	// Initialize repository
	userRepo := user.NewRepository(db.AppDb)
	projectRepo := project.NewRepository(db.AppDb)
	elementRepo := element.NewRepository(db.AppDb)
	// Initialize service
	userService := user.NewService(userRepo)
	projectService := project.NewService(projectRepo, userService, store, cache)
	elementService := element.NewService(elementRepo, store, pool)
	// Initialize handler
	userHandler := user.NewHandler(userService)
	projectHandler := project.NewHandler(projectService)
	elementHandler := element.NewHandler(elementService)

	authMiddleware := &middleware.Auth{UserService: userService}
	authLimiter, err := middleware.NewIPRateLimiter(config.AppConfig.AuthRateLimit)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("rate", config.AppConfig.AuthRateLimit).Msg("invalid AUTH_RATE_LIMIT")
	}

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}

	if config.AppConfig.Environment == "development" {
		// Allow any origin in development
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	} else {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.ErrorHandler())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/projects/")
	})

	if local, ok := store.(*storage.LocalStore); ok {
		router.Static(strings.TrimSuffix(config.AppConfig.MediaURL, "/"), local.Root())
	}

	// User routes
	router.POST("/login", authLimiter, userHandler.Login)
	router.POST("/refresh", userHandler.RefreshToken)
	router.DELETE("/logout", authMiddleware.AuthMiddleWare(), userHandler.Logout)
	router.GET("/profile", authMiddleware.AuthMiddleWare(), userHandler.GetProfile)
	router.GET("/projects/signup/", userHandler.SignupForm)
	router.POST("/projects/signup/", authLimiter, userHandler.Signup)

	projects := router.Group("/projects", authMiddleware.AuthMiddleWare())
	{
		projects.GET("/", projectHandler.ShowProjects)
		projects.GET("/add/", projectHandler.AddForm)
		projects.POST("/add/", projectHandler.Create)
		projects.POST("/update-title/:id/", projectHandler.UpdateTitle)
		projects.GET("/delete/:id/", projectHandler.DeleteConfirm)
		projects.POST("/delete/:id/", projectHandler.Delete)
		projects.GET("/edit/:id/", projectHandler.Edit)
		projects.POST("/add-viewer/:id/", projectHandler.AddViewer)

		projects.POST("/:id/add_text/", elementHandler.AddText)
		projects.POST("/:id/upload/", elementHandler.Upload)
		projects.POST("/update-element-properties/:element_id/", elementHandler.UpdateProperties)
		projects.POST("/delete-element/:element_id/", elementHandler.Delete)
		projects.POST("/copy-element/:element_id/", elementHandler.Duplicate)
	}

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		logger.Log.Info().Str("port", serverPort).Msg("server listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("server shutdown error")
	}

	// let queued file cleanups finish before the db closes
	pool.Shutdown()
	logger.Log.Info().Msg("server shutdown complete")
}

func newStore(ctx context.Context) (storage.Store, error) {
	switch config.AppConfig.StorageBackend {
	case "minio":
		return storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  config.AppConfig.MinioEndpoint,
			AccessKey: config.AppConfig.MinioAccessKey,
			SecretKey: config.AppConfig.MinioSecretKey,
			Bucket:    config.AppConfig.MinioBucket,
			UseSSL:    config.AppConfig.MinioUseSSL,
			PublicURL: config.AppConfig.MinioPublicURL,
		})
	case "local", "":
		return storage.NewLocalStore(config.AppConfig.MediaRoot, config.AppConfig.MediaURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", config.AppConfig.StorageBackend)
	}
}
