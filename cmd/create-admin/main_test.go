package main

import (
	"path/filepath" // Temp file paths
	"testing"       // Go's testing package

	"srq_assessment/internal/db"     // Database connection and migrations
	"srq_assessment/internal/domain" // Domain models
	"srq_assessment/internal/utils"  // Cache helpers

	"github.com/stretchr/testify/assert"  // Assertions
	"github.com/stretchr/testify/require" // Fatal assertions
	"gorm.io/driver/sqlite"               // SQLite driver for GORM
	"gorm.io/gorm"                        // GORM ORM library
	"gorm.io/gorm/logger"                 // GORM logger
)

func TestEnsureAdminCreatesThenPromotes(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "admin.db")), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	created, err := ensureAdmin(gdb, "root@example.com", "supersecret", "Root")
	require.NoError(t, err)
	assert.True(t, created)

	var admin domain.User
	require.NoError(t, gdb.Where("email = ?", "root@example.com").First(&admin).Error)
	assert.True(t, admin.IsAdmin())
	assert.True(t, utils.CheckPassword(admin.PasswordHash, "supersecret"))

	hash, err := utils.HashPassword("userpassword")
	require.NoError(t, err)
	plain := domain.User{Name: "Plain", Email: "plain@example.com", PasswordHash: hash, Role: domain.RoleUser, IsActive: true}
	require.NoError(t, gdb.Create(&plain).Error)

	created, err = ensureAdmin(gdb, "plain@example.com", "", "ignored")
	require.NoError(t, err)
	assert.False(t, created)
	require.NoError(t, gdb.First(&plain, plain.ID).Error)
	assert.Equal(t, domain.RoleAdmin, plain.Role)

	_, err = ensureAdmin(gdb, "new@example.com", "short", "New")
	assert.Error(t, err)
}
