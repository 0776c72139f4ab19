package db

import (
	"canvas-editor/internal/config"
	"canvas-editor/internal/logger"
	"fmt"
	"log"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var AppDb *gorm.DB

func ConnectDb() error {
	dsn := fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v sslmode=disable",
		config.AppConfig.DBHost,
		config.AppConfig.DBUser,
		config.AppConfig.DBPassword,
		config.AppConfig.DBName,
		config.AppConfig.DBPort,
	)

	level := gormLogger.Info
	if config.AppConfig.Environment == "production" {
		level = gormLogger.Error
	}
	newLogger := gormLogger.New(
		log.New(logger.Writer(zerolog.DebugLevel), "", 0),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(20)

	AppDb = db
	logger.Log.Info().Str("host", config.AppConfig.DBHost).Msg("connected to db")

	return nil
}

func CloseDb() {
	if AppDb == nil {
		return
	}
	sqlDB, err := AppDb.DB()
	if err != nil {
		logger.Log.Error().Err(err).Msg("get sql db")
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Log.Error().Err(err).Msg("failed to close db")
		return
	}
	logger.Log.Info().Msg("db closed")
}
