package service

import (
	"context"
	"fmt"
	"testing"

	"devforge/backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A uniquely named shared in-memory database so the pool's connections
	// all see the same schema, without leaking state across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Project{}, &models.Message{}, &models.Payment{}))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

func createUser(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: email, Password: "secret"}
	require.NoError(t, db.WithContext(context.Background()).Create(user).Error)
	return user
}

func createProject(t *testing.T, db *gorm.DB, name string, members ...*models.User) *models.Project {
	t.Helper()
	project := &models.Project{Name: name}
	for _, m := range members {
		project.Users = append(project.Users, *m)
	}
	require.NoError(t, db.WithContext(context.Background()).Create(project).Error)
	return project
}
