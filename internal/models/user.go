// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Role struct {
	Nome   string     `json:"nome" gorm:"size:50;not null"`
	Scopes StringList `json:"scopes" gorm:"type:text"`
}

func DefaultRole() Role {
	return Role{Nome: ScopeUtilizador, Scopes: StringList{ScopeUtilizador}}
}

type User struct {
	BaseModel
	Username            string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	PasswordHash        string     `json:"-" gorm:"column:password;size:255;not null"`
	Nome                string     `json:"nome" gorm:"size:150;not null"`
	Morada              string     `json:"morada" gorm:"size:255"`
	Telemovel           string     `json:"telemovel" gorm:"size:20"`
	DataNascimento      string     `json:"dataNascimento" gorm:"size:10"`
	NIF                 string     `json:"nif" gorm:"column:nif;size:20"`
	Email               string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	FotoPerfil          string     `json:"fotoPerfil,omitempty" gorm:"type:text"`
	Role                Role       `json:"role" gorm:"embedded;embeddedPrefix:role_"`
	IsVerified          bool       `json:"isVerified"`
	VerificationToken   string     `json:"-" gorm:"size:64;index"`
	ResetToken          string     `json:"-" gorm:"size:64"`
	ResetTokenExpiresAt *time.Time `json:"-"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) HasAnyScope(scopes ...string) bool {
	for _, scope := range scopes {
		if u.Role.Scopes.Contains(scope) {
			return true
		}
	}
	return false
}
