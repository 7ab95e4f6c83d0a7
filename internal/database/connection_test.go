package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/bricolage-backend/internal/config"
	"github.com/javajoker/bricolage-backend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Initialize(config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })
	require.NoError(t, RunMigrations(db))
	return db
}

func TestInitializeRejectsUnknownDriver(t *testing.T) {
	_, err := Initialize(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestWithTransactionRollsBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := WithTransaction(ctx, db, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&models.Product{Referencia: "REF1", Nome: "Martelo", Preco: 10}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, WithTransaction(ctx, db, func(tx *gorm.DB) error {
		return tx.Create(&models.Product{Referencia: "REF1", Nome: "Martelo", Preco: 10}).Error
	}))
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDuplicateKeyIsTranslated(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Create(&models.Product{Referencia: "REF1", Nome: "Martelo", Preco: 10}).Error)

	err := db.Create(&models.Product{Referencia: "REF1", Nome: "Outro", Preco: 5}).Error
	assert.True(t, IsDuplicateKey(err))
	assert.False(t, IsDuplicateKey(errors.New("connection refused")))
	assert.False(t, IsDuplicateKey(nil))
}

func TestSeedInitialData(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, SeedInitialData(db, config.SeedConfig{AdminUsername: "admin", AdminEmail: "admin@loja.pt"}))
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count, "no password means no seed")

	seed := config.SeedConfig{AdminUsername: "admin", AdminEmail: "Admin@Loja.pt", AdminPassword: "segredo1"}
	require.NoError(t, SeedInitialData(db, seed))
	require.NoError(t, SeedInitialData(db, seed))

	var admins []models.User
	require.NoError(t, db.Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@loja.pt", admins[0].Email)
	assert.True(t, admins[0].IsVerified)
	assert.True(t, admins[0].HasAnyScope(models.ScopeAdministrador))
	assert.NoError(t, admins[0].CheckPassword("segredo1"))

	_, err := CreateAdmin(db, AdminAccount{Username: "admin", Email: "x@loja.pt", Password: "p"})
	assert.ErrorIs(t, err, ErrAdminExists)
}

func TestSupportsRowLocking(t *testing.T) {
	assert.False(t, SupportsRowLocking(openTestDB(t)))
}
