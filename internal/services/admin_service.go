// internal/services/admin_service.go
package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/bricolage-backend/internal/models"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

type AdminService struct {
	db *gorm.DB
}

type AuditLogFilter struct {
	utils.PaginationParams
	Username     string `form:"username"`
	ResourceType string `form:"resourceType"`
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

func (s *AdminService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	db := s.db.WithContext(ctx)

	// Catalog statistics
	if err := db.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	inStock := db.Model(&models.Stock{}).Select("ref_produto").Where("quantidade > 0")
	if err := db.Model(&models.Product{}).
		Where("referencia NOT IN (?)", inStock).
		Count(&stats.ProductsNoStock).Error; err != nil {
		return nil, fmt.Errorf("failed to count products without stock: %w", err)
	}

	// User statistics
	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&models.User{}).Where("is_verified = ?", false).Count(&stats.UnverifiedUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count unverified users: %w", err)
	}

	// Venda statistics
	if err := db.Model(&models.Venda{}).
		Where("estado = ?", models.VendaEstadoCarrinho).
		Count(&stats.OpenCarts).Error; err != nil {
		return nil, fmt.Errorf("failed to count carts: %w", err)
	}
	if err := db.Model(&models.Venda{}).
		Where("estado = ?", models.VendaEstadoFinalizada).
		Count(&stats.FinalizedVendas).Error; err != nil {
		return nil, fmt.Errorf("failed to count vendas: %w", err)
	}
	if err := db.Model(&models.Venda{}).
		Where("estado = ?", models.VendaEstadoFinalizada).
		Select("COALESCE(SUM(total), 0)").
		Scan(&stats.FinalizedRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	return stats, nil
}

func (s *AdminService) ListAuditLogs(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	params := utils.NormalizePagination(filter.PaginationParams)
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})

	if filter.Username != "" {
		query = query.Where("username = ?", filter.Username)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	allowedSortFields := []string{"created_at", "username", "resource_type", "status_code"}
	query = utils.ApplySort(query, params, allowedSortFields, "created_at")
	query = utils.ApplyPagination(query, params)

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	return logs, total, nil
}
