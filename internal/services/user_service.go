// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/javajoker/bricolage-backend/internal/database"
	"github.com/javajoker/bricolage-backend/internal/i18n"
	"github.com/javajoker/bricolage-backend/internal/models"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

type UserService struct {
	db      *gorm.DB
	locker  Locker
	storage *StorageService
}

type UpdateUserRequest struct {
	Username       *string      `json:"username,omitempty" validate:"omitempty,username"`
	Password       *string      `json:"password,omitempty" validate:"omitempty,min=1,max=72"`
	Nome           *string      `json:"nome,omitempty" validate:"omitempty,min=1,max=150"`
	Morada         *string      `json:"morada,omitempty" validate:"omitempty,max=255"`
	Telemovel      *string      `json:"telemovel,omitempty" validate:"omitempty,max=20"`
	DataNascimento *string      `json:"dataNascimento,omitempty" validate:"omitempty,max=10"`
	NIF            *string      `json:"nif,omitempty" validate:"omitempty,max=20"`
	Email          *string      `json:"email,omitempty" validate:"omitempty,min=1,max=255"`
	Role           *RoleRequest `json:"role,omitempty"`
}

type UpdateUserResult struct {
	User *models.User `json:"user"`
	// Reauth is set when the caller renamed their own account and must log in again.
	Reauth bool `json:"reauth"`
}

type UserListResult struct {
	Users []models.User
	Total int64
}

func NewUserService(db *gorm.DB, locker Locker, storage *StorageService) *UserService {
	return &UserService{
		db:      db,
		locker:  locker,
		storage: storage,
	}
}

func (s *UserService) List(ctx context.Context, params utils.PaginationParams) (*UserListResult, error) {
	params = utils.NormalizePagination(params)

	query := s.db.WithContext(ctx).Model(&models.User{})
	if params.Search != "" {
		query = query.Where("LOWER(username) LIKE ? ESCAPE '!'", "%"+likeEscaper.Replace(strings.ToLower(params.Search))+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	query = utils.ApplySort(query, params, []string{"username", "nome", "email", "created_at"}, "created_at")
	if err := utils.ApplyPagination(query, params).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &UserListResult{Users: users, Total: total}, nil
}

func (s *UserService) GetByUsername(ctx context.Context, actor *Actor, username string) (*models.User, error) {
	user, err := findUserByUsername(s.db.WithContext(ctx), username)
	if err != nil {
		return nil, err
	}
	if err := requireSelfOrAdmin(actor, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Update applies the non-nil fields. Renaming rewrites the username snapshot on the user's vendas.
func (s *UserService) Update(ctx context.Context, actor *Actor, username string, req *UpdateUserRequest) (*UpdateUserResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.ValidationFailed(err)
	}

	user, err := findUserByUsername(s.db.WithContext(ctx), username)
	if err != nil {
		return nil, err
	}
	if err := requireSelfOrAdmin(actor, user); err != nil {
		return nil, err
	}

	var role *models.Role
	if req.Role != nil {
		if !actor.IsAdmin() {
			return nil, utils.ErrForbidden(i18n.KeyUserRoleChangeDenied)
		}
		resolved, err := resolveRole(req.Role, actor)
		if err != nil {
			return nil, err
		}
		role = &resolved
	}

	release, err := s.locker.Lock(ctx, registerLockKey)
	if err != nil {
		return nil, err
	}
	defer release()

	renamed := req.Username != nil && *req.Username != user.Username
	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if renamed {
			if err := ensureUnique(tx, "username", *req.Username, user, i18n.KeyAuthUserExists); err != nil {
				return err
			}
			user.Username = *req.Username
		}
		if req.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*req.Email))
			if email != user.Email {
				if err := ensureUnique(tx, "email", email, user, i18n.KeyAuthEmailExists); err != nil {
					return err
				}
				user.Email = email
			}
		}
		if req.Password != nil {
			if err := user.SetPassword(*req.Password); err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
		}
		if req.Nome != nil {
			user.Nome = *req.Nome
		}
		if req.Morada != nil {
			user.Morada = *req.Morada
		}
		if req.Telemovel != nil {
			user.Telemovel = *req.Telemovel
		}
		if req.DataNascimento != nil {
			user.DataNascimento = *req.DataNascimento
		}
		if req.NIF != nil {
			user.NIF = *req.NIF
		}
		if role != nil {
			user.Role = *role
		}

		if err := tx.Save(user).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return utils.ErrConflict(i18n.KeyAuthUserExists)
			}
			return fmt.Errorf("failed to update user: %w", err)
		}

		if renamed {
			if err := tx.Model(&models.Venda{}).
				Where("user_id = ?", user.ID).
				Update("cliente_username", user.Username).Error; err != nil {
				return fmt.Errorf("failed to update venda owner: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &UpdateUserResult{
		User:   user,
		Reauth: renamed && actor.Owns(user),
	}, nil
}

func ensureUnique(tx *gorm.DB, column, value string, user *models.User, key string) error {
	var count int64
	if err := tx.Model(&models.User{}).
		Where(column+" = ? AND id <> ?", value, user.ID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return utils.ErrConflict(key)
	}
	return nil
}

// Delete removes the account, its favorites and its open cart. Finalized vendas are kept.
func (s *UserService) Delete(ctx context.Context, actor *Actor, username string) (*models.User, error) {
	user, err := findUserByUsername(s.db.WithContext(ctx), username)
	if err != nil {
		return nil, err
	}
	if err := requireSelfOrAdmin(actor, user); err != nil {
		return nil, err
	}

	release, err := s.locker.Lock(ctx, cartLockKey(user.ID))
	if err != nil {
		return nil, err
	}
	defer release()

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Favorite{}).Error; err != nil {
			return fmt.Errorf("failed to delete favorites: %w", err)
		}
		if err := tx.Where("user_id = ? AND estado = ?", user.ID, models.VendaEstadoCarrinho).
			Delete(&models.Venda{}).Error; err != nil {
			return fmt.Errorf("failed to delete cart: %w", err)
		}
		if err := tx.Delete(user).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateProfilePicture(ctx context.Context, actor *Actor, username, payload string) (*models.User, error) {
	db := s.db.WithContext(ctx)
	user, err := findUserByUsername(db, username)
	if err != nil {
		return nil, err
	}
	if err := requireSelfOrAdmin(actor, user); err != nil {
		return nil, err
	}

	image, err := s.storage.StoreImage(ctx, FolderProfilePictures, user.Username, payload)
	if err != nil {
		return nil, err
	}

	if err := db.Model(user).Update("foto_perfil", image).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile picture: %w", err)
	}
	user.FotoPerfil = image
	return user, nil
}

// ToggleFavorite adds or removes ref from the caller's favorites. Both directions are idempotent.
func (s *UserService) ToggleFavorite(ctx context.Context, actor *Actor, ref string, add bool) ([]string, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if add {
		if err := requireProduct(db, ref); err != nil {
			return nil, err
		}
		var count int64
		if err := db.Model(&models.Favorite{}).
			Where("user_id = ? AND referencia = ?", actor.UserID, ref).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if count == 0 {
			err := db.Create(&models.Favorite{UserID: actor.UserID, Referencia: ref}).Error
			if err != nil && !database.IsDuplicateKey(err) {
				return nil, fmt.Errorf("failed to add favorite: %w", err)
			}
		}
	} else {
		if err := db.Where("user_id = ? AND referencia = ?", actor.UserID, ref).
			Delete(&models.Favorite{}).Error; err != nil {
			return nil, fmt.Errorf("failed to remove favorite: %w", err)
		}
	}

	return s.ListFavorites(ctx, actor)
}

func (s *UserService) ListFavorites(ctx context.Context, actor *Actor) ([]string, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	refs := []string{}
	if err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ?", actor.UserID).
		Order("created_at asc").
		Pluck("referencia", &refs).Error; err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return refs, nil
}

// FavoriteProducts returns the caller's favorite products composed with their stock.
func (s *UserService) FavoriteProducts(ctx context.Context, actor *Actor) ([]models.ProductView, error) {
	refs, err := s.ListFavorites(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return []models.ProductView{}, nil
	}

	db := s.db.WithContext(ctx)
	var products []models.Product
	if err := db.Where("referencia IN ?", refs).Order("referencia asc").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load favorite products: %w", err)
	}
	return composeProducts(db, products)
}

func findUserByUsername(db *gorm.DB, username string) (*models.User, error) {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound(i18n.KeyUserNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}
