// create-admin creates the admin account, or promotes an existing one.
package main

import (
	"errors"  // Error values
	"fmt"     // Formatting
	"os"      // Process exit and files
	"strings" // String manipulation

	"srq_assessment/internal/config" // Configuration
	"srq_assessment/internal/db"     // Database connection and migrations
	"srq_assessment/internal/domain" // Domain models
	"srq_assessment/internal/utils"  // Cache helpers

	"github.com/fatih/color"     // Coloured terminal output
	"github.com/sirupsen/logrus" // Logging library
	"github.com/spf13/pflag"     // Command-line flags
	"gorm.io/gorm"               // GORM ORM library
)

func main() {
	cfg := config.LoadConfig()

	flagEmail := pflag.String("email", cfg.AdminEmail, "admin email")
	flagPassword := pflag.String("password", cfg.AdminPassword, "admin password, only used for new accounts")
	flagName := pflag.String("name", cfg.AdminName, "admin display name")
	pflag.Parse()

	email := strings.ToLower(strings.TrimSpace(*flagEmail))
	if email == "" {
		color.Red("an email is required (--email or ADMIN_EMAIL)")
		os.Exit(2)
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}

	created, err := ensureAdmin(gdb, email, *flagPassword, *flagName)
	if err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
	if created {
		color.Green("Admin user created: %s", email)
		fmt.Println("   Remember to change the password after the first login.")
	} else {
		color.Yellow("Existing account promoted to admin: %s", email)
	}
}

// ensureAdmin promotes the account with email, creating it when missing.
func ensureAdmin(gdb *gorm.DB, email, password, name string) (bool, error) {
	var existing domain.User
	err := gdb.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return false, gdb.Model(&existing).Updates(map[string]any{"role": domain.RoleAdmin, "is_active": true}).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("query users: %w", err)
	}
	if len(password) < 8 || len(password) > 64 {
		return false, errors.New("a password of 8-64 characters is required (--password or ADMIN_PASSWORD)")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
	if err := gdb.Create(&u).Error; err != nil {
		return false, fmt.Errorf("insert admin: %w", err)
	}
	return true, nil
}
