package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/notula/internal/models"
	"github.com/charlesng35/notula/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Meeting{},
		&models.MeetingAttendee{},
		&models.Attendance{},
		&models.MeetingMinutes{},
		&models.ActionItem{},
		&models.Decision{},
		&models.Notification{},
	)
}

// SeedOptions controls which records SeedData inserts.
type SeedOptions struct {
	// Admin, when it carries an email and password, is created on first start.
	Admin AdminAccount
	// Demo inserts the sample accounts, meetings, attendance and minutes.
	Demo bool
}

// AdminAccount describes the bootstrap administrator.
type AdminAccount struct {
	Name     string
	Email    string
	Password string
}

// SeedData inserts the bootstrap administrator and, optionally, demo data.
// Existing rows are left untouched so the call is safe on every start.
func SeedData(db *gorm.DB, opts SeedOptions) error {
	if err := seedAdmin(db, opts.Admin); err != nil {
		return err
	}
	if opts.Demo {
		return seedDemo(db)
	}
	return nil
}

func seedAdmin(db *gorm.DB, admin AdminAccount) error {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" || admin.Password == "" {
		return nil
	}

	hash, err := crypto.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	name := strings.TrimSpace(admin.Name)
	if name == "" {
		name = "Administrator"
	}

	user := models.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Role:     models.RoleAdmin,
	}
	return db.Where(models.User{Email: email}).Attrs(user).FirstOrCreate(&models.User{}).Error
}
