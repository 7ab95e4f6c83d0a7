// internal/models/favorite.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Favorite struct {
	UserID     uuid.UUID `json:"-" gorm:"type:varchar(36);primaryKey"`
	Referencia string    `json:"referencia" gorm:"size:50;primaryKey;index"`
	CreatedAt  time.Time `json:"createdAt"`
}
