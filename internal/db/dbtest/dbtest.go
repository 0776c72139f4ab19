// Package dbtest opens a migrated in-memory database for repository tests.
package dbtest

import (
	"canvas-editor/internal/domain"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a fresh schema per test. The pool is pinned to one
// connection since every sqlite ":memory:" connection is its own database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.Project{},
		&domain.EditorElement{},
		&domain.ProjectUserRole{},
	))
	return db
}

// CreateUser inserts an active user.
func CreateUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	user := &domain.User{Username: username, PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateProject inserts a project owned by ownerID.
func CreateProject(t *testing.T, db *gorm.DB, ownerID uint64, title string) *domain.Project {
	t.Helper()
	project := &domain.Project{Title: title, OwnerID: ownerID}
	require.NoError(t, db.Omit("Owner", "Elements", "Roles").Create(project).Error)
	return project
}
