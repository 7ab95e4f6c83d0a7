// internal/database/seed.go
package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/bricolage-backend/internal/config"
	"github.com/javajoker/bricolage-backend/internal/models"
)

var ErrAdminExists = errors.New("user already exists")

type AdminAccount struct {
	Username string
	Email    string
	Password string
	Nome     string
}

// CreateAdmin inserts a verified user holding the administrador scope.
func CreateAdmin(db *gorm.DB, account AdminAccount) (*models.User, error) {
	if account.Username == "" || account.Email == "" || account.Password == "" {
		return nil, fmt.Errorf("username, email and password are required")
	}

	var count int64
	if err := db.Model(&models.User{}).
		Where("username = ? OR email = ?", account.Username, strings.ToLower(account.Email)).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing users: %w", err)
	}
	if count > 0 {
		return nil, ErrAdminExists
	}

	nome := account.Nome
	if nome == "" {
		nome = "Administrador"
	}

	admin := &models.User{
		Username:   account.Username,
		Email:      strings.ToLower(account.Email),
		Nome:       nome,
		IsVerified: true,
		Role: models.Role{
			Nome:   models.ScopeAdministrador,
			Scopes: models.StringList{models.ScopeAdministrador},
		},
	}
	if err := admin.SetPassword(account.Password); err != nil {
		return nil, fmt.Errorf("failed to set admin password: %w", err)
	}

	if err := db.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}
	return admin, nil
}

// SeedInitialData creates the first administrator when none exists and a password is configured.
func SeedInitialData(db *gorm.DB, seed config.SeedConfig) error {
	if seed.AdminPassword == "" {
		logrus.Debug("No seed admin password configured, skipping seed")
		return nil
	}

	var adminCount int64
	if err := db.Model(&models.User{}).
		Where("role_scopes LIKE ?", `%"`+models.ScopeAdministrador+`"%`).
		Count(&adminCount).Error; err != nil {
		return fmt.Errorf("failed to count administrators: %w", err)
	}
	if adminCount > 0 {
		return nil
	}

	_, err := CreateAdmin(db, AdminAccount{
		Username: seed.AdminUsername,
		Email:    seed.AdminEmail,
		Password: seed.AdminPassword,
	})
	if errors.Is(err, ErrAdminExists) {
		logrus.WithField("username", seed.AdminUsername).Warn("Seed admin username taken by a non-admin user")
		return nil
	}
	if err != nil {
		return err
	}

	logrus.WithField("username", seed.AdminUsername).Info("Default admin user created")
	return nil
}
