package db

import (
	"canvas-editor/internal/domain"
	"canvas-editor/internal/logger"
	"canvas-editor/internal/user"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate() error {
	err := AppDb.AutoMigrate(
		&domain.User{},
		&domain.Project{},
		&domain.EditorElement{},
		&domain.ProjectUserRole{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	logger.Log.Info().Msg("database schema migrated")
	return nil
}

// SeedData creates a development user if it doesn't exist yet
func SeedData(ctx context.Context) {
	userRepo := user.NewRepository(AppDb)

	testUser := &domain.User{
		Username: "alice",
		Password: "password123",
		IsActive: true,
	}

	_, err := userRepo.FindByUsername(ctx, testUser.Username)
	if err == nil {
		logger.Log.Debug().Str("username", testUser.Username).Msg("seed user already exists")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Log.Error().Err(err).Msg("look up seed user")
		return
	}

	userService := user.NewService(userRepo)
	if err := userService.Register(ctx, testUser); err != nil {
		logger.Log.Error().Err(err).Msg("create seed user")
		return
	}
	logger.Log.Info().Str("username", testUser.Username).Msg("created seed user")
}
