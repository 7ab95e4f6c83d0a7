// internal/services/actor.go
package services

import (
	"github.com/google/uuid"

	"github.com/javajoker/bricolage-backend/internal/i18n"
	"github.com/javajoker/bricolage-backend/internal/models"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID   uuid.UUID
	Username string
	Scopes   []string
}

func (a *Actor) HasAnyScope(scopes ...string) bool {
	if a == nil {
		return false
	}
	for _, required := range scopes {
		for _, scope := range a.Scopes {
			if scope == required {
				return true
			}
		}
	}
	return false
}

func (a *Actor) IsAdmin() bool {
	return a.HasAnyScope(models.ScopeAdministrador)
}

// IsStaff is true for administrators and managers.
func (a *Actor) IsStaff() bool {
	return a.HasAnyScope(models.ScopeAdministrador, models.ScopeGestor)
}

func (a *Actor) name() string {
	if a == nil {
		return ""
	}
	return a.Username
}

func requireActor(actor *Actor) error {
	if actor == nil || actor.UserID == uuid.Nil {
		return utils.ErrAuth(i18n.KeyAuthRequired)
	}
	return nil
}

func (a *Actor) Owns(user *models.User) bool {
	return a != nil && user != nil && a.UserID == user.ID
}

func requireSelfOrAdmin(actor *Actor, user *models.User) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.Owns(user) && !actor.IsAdmin() {
		return utils.ErrForbidden(i18n.KeyAuthForbidden)
	}
	return nil
}
