// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/bricolage-backend/internal/config"
	"github.com/javajoker/bricolage-backend/internal/database"
	"github.com/javajoker/bricolage-backend/internal/i18n"
	"github.com/javajoker/bricolage-backend/internal/models"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

const resetTokenTTL = time.Hour

type AuthService struct {
	db       *gorm.DB
	cfg      *config.Config
	jwt      *utils.JWTManager
	locker   Locker
	notifier *NotificationService
	now      func() time.Time
}

type RoleRequest struct {
	Nome   string   `json:"nome"`
	Scopes []string `json:"scopes" validate:"dive,scope"`
}

type RegisterRequest struct {
	Username       string       `json:"username" validate:"required,username"`
	Password       string       `json:"password" validate:"required,max=72"`
	Nome           string       `json:"nome" validate:"required,max=150"`
	Morada         string       `json:"morada" validate:"required,max=255"`
	Telemovel      string       `json:"telemovel" validate:"required,max=20"`
	DataNascimento string       `json:"dataNascimento" validate:"required,max=10"`
	NIF            string       `json:"nif" validate:"required,max=20"`
	Email          string       `json:"email" validate:"required,max=255"`
	Role           *RoleRequest `json:"role,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType"`
	Scopes    []string     `json:"scopes"`
	ExpiresIn int          `json:"expiresIn"` // in seconds
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email        string `json:"email" validate:"required"`
	Token        string `json:"token" validate:"required"`
	NovaPassword string `json:"novaPassword" validate:"required,max=72"`
}

func NewAuthService(db *gorm.DB, cfg *config.Config, jwt *utils.JWTManager, locker Locker, notifier *NotificationService) *AuthService {
	return &AuthService{
		db:       db,
		cfg:      cfg,
		jwt:      jwt,
		locker:   locker,
		notifier: notifier,
		now:      time.Now,
	}
}

// Register creates an unverified account. Only an administrator may hand out scopes above utilizador.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest, actor *Actor) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		if req.Role != nil {
			for _, scope := range req.Role.Scopes {
				if !models.IsValidScope(scope) {
					return nil, utils.ErrValidation(i18n.KeyAuthInvalidScope, scope)
				}
			}
		}
		return nil, utils.ValidationFailed(err)
	}

	role, err := resolveRole(req.Role, actor)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Lock(ctx, registerLockKey)
	if err != nil {
		return nil, err
	}
	defer release()

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	err = s.db.WithContext(ctx).Where("username = ? OR email = ?", req.Username, email).First(&existing).Error
	if err == nil {
		if existing.Username == req.Username {
			return nil, utils.ErrConflict(i18n.KeyAuthUserExists)
		}
		return nil, utils.ErrConflict(i18n.KeyAuthEmailExists)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing users: %w", err)
	}

	token, err := utils.GenerateVerificationToken()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:          req.Username,
		Nome:              req.Nome,
		Morada:            req.Morada,
		Telemovel:         req.Telemovel,
		DataNascimento:    req.DataNascimento,
		NIF:               req.NIF,
		Email:             email,
		Role:              role,
		VerificationToken: token,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return nil, utils.ErrConflict(i18n.KeyAuthUserExists)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.notifier.SendVerificationEmail(ctx, user, token)

	return user, nil
}

func resolveRole(req *RoleRequest, actor *Actor) (models.Role, error) {
	if req == nil || len(req.Scopes) == 0 {
		return models.DefaultRole(), nil
	}

	scopes := make(models.StringList, 0, len(req.Scopes))
	for _, scope := range req.Scopes {
		if !models.IsValidScope(scope) {
			return models.Role{}, utils.ErrValidation(i18n.KeyAuthInvalidScope, scope)
		}
		if scope != models.ScopeUtilizador && !actor.IsAdmin() {
			return models.Role{}, utils.ErrForbidden(i18n.KeyAuthElevatedRoleDenied)
		}
		if !scopes.Contains(scope) {
			scopes = append(scopes, scope)
		}
	}

	nome := req.Nome
	if nome == "" {
		nome = scopes[0]
	}
	return models.Role{Nome: nome, Scopes: scopes}, nil
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.ValidationFailed(err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrAuth(i18n.KeyAuthInvalidCredentials)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, utils.ErrAuth(i18n.KeyAuthInvalidCredentials)
	}

	if !user.IsVerified {
		return nil, utils.ErrAuth(i18n.KeyAuthEmailNotVerified)
	}

	token, err := s.jwt.Generate(user.ID, user.Username, user.Role.Nome, user.Role.Scopes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{
		User:      &user,
		Token:     token,
		TokenType: "Bearer",
		Scopes:    user.Role.Scopes,
		ExpiresIn: int(s.jwt.TTL().Seconds()),
	}, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, utils.ErrNotFound(i18n.KeyAuthInvalidVerificationToken)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("verification_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound(i18n.KeyAuthInvalidVerificationToken)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	err := s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"is_verified":        true,
		"verification_token": "",
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}

	user.IsVerified = true
	user.VerificationToken = ""
	return &user, nil
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return utils.ErrValidation(i18n.KeyAuthEmailRequired)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrNotFound(i18n.KeyUserNotFound)
		}
		return fmt.Errorf("database error: %w", err)
	}

	token, err := utils.GenerateVerificationToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().UTC().Add(resetTokenTTL)

	err = s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"reset_token":            token,
		"reset_token_expires_at": expiresAt,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	s.notifier.SendPasswordResetEmail(ctx, &user, token, resetTokenTTL)
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ValidationFailed(err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrValidation(i18n.KeyAuthInvalidResetToken)
		}
		return fmt.Errorf("database error: %w", err)
	}

	if user.ResetToken == "" || !utils.SecureCompare(user.ResetToken, req.Token) {
		return utils.ErrValidation(i18n.KeyAuthInvalidResetToken)
	}
	if user.ResetTokenExpiresAt == nil || s.now().After(*user.ResetTokenExpiresAt) {
		return utils.ErrValidation(i18n.KeyAuthInvalidResetToken)
	}

	if err := user.SetPassword(req.NovaPassword); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err := s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"password":               user.PasswordHash,
		"reset_token":            "",
		"reset_token_expires_at": nil,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound(i18n.KeyUserNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}
