// internal/models/admin.go
package models

import (
	"github.com/google/uuid"
)

// AuditLog records one mutating request.
type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"userId,omitempty" gorm:"type:varchar(36);index"`
	Username     string     `json:"username" gorm:"size:50;index"`
	Action       string     `json:"action" gorm:"size:150;not null"`
	ResourceType string     `json:"resourceType" gorm:"size:50;not null;index"`
	ResourceID   string     `json:"resourceId,omitempty" gorm:"size:100"`
	StatusCode   int        `json:"statusCode"`
	IPAddress    string     `json:"ipAddress" gorm:"size:45"`
	UserAgent    string     `json:"userAgent" gorm:"type:text"`
}

// DashboardStats summarizes the shop for the back office.
type DashboardStats struct {
	TotalProducts    int64   `json:"totalProducts"`
	ProductsNoStock  int64   `json:"productsSemStock"`
	TotalUsers       int64   `json:"totalUtilizadores"`
	UnverifiedUsers  int64   `json:"utilizadoresPorVerificar"`
	OpenCarts        int64   `json:"carrinhosAbertos"`
	FinalizedVendas  int64   `json:"vendasFinalizadas"`
	FinalizedRevenue float64 `json:"receitaTotal"`
}
