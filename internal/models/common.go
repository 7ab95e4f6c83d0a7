// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:varchar(36);primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// StringList is stored as a JSON array in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

func (l StringList) Contains(value string) bool {
	for _, item := range l {
		if item == value {
			return true
		}
	}
	return false
}

// scanJSON accepts both []byte and string, postgres and sqlite hand back different types.
func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
}

// Role scopes
const (
	ScopeUtilizador    = "utilizador"
	ScopeAdministrador = "administrador"
	ScopeGestor        = "gestor"
)

var validScopes = map[string]bool{
	ScopeUtilizador:    true,
	ScopeAdministrador: true,
	ScopeGestor:        true,
}

func IsValidScope(scope string) bool {
	return validScopes[scope]
}

type MovementType string

const (
	MovementEntrada MovementType = "ENTRADA"
	MovementSaida   MovementType = "SAIDA"
	MovementAjuste  MovementType = "AJUSTE"
)

type VendaEstado string

const (
	VendaEstadoCarrinho   VendaEstado = "Carrinho"
	VendaEstadoFinalizada VendaEstado = "Finalizada"
)
