package services_test

import (
	"github.com/javajoker/bricolage-backend/internal/models"
	"github.com/javajoker/bricolage-backend/internal/services"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

func (s *ServiceSuite) TestDashboardStats() {
	s.product("REF1", "Martelo", 10, 10)
	s.product("REF2", "Serrote", 25, 0)
	s.product("REF3", "Alicate", 5, -1)
	_, ana := s.user("ana")

	_, err := s.vendas.AddItems(s.ctx, ana, item("REF1", 2))
	s.Require().NoError(err)
	_, err = s.vendas.Finalize(s.ctx, ana)
	s.Require().NoError(err)
	_, err = s.vendas.AddItems(s.ctx, ana, item("REF1", 1))
	s.Require().NoError(err)

	_, err = s.auth.Register(s.ctx, registerRequest("bruno", "bruno@x.com"), nil)
	s.Require().NoError(err)

	stats, err := s.admin.GetDashboardStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), stats.TotalProducts)
	s.Equal(int64(2), stats.ProductsNoStock)
	s.Equal(int64(2), stats.TotalUsers)
	s.Equal(int64(1), stats.UnverifiedUsers)
	s.Equal(int64(1), stats.OpenCarts)
	s.Equal(int64(1), stats.FinalizedVendas)
	s.Equal(20.0, stats.FinalizedRevenue)
}

func (s *ServiceSuite) TestListAuditLogsFilters() {
	entries := []models.AuditLog{
		{Username: "ana", Action: "POST /vendas/carrinho", ResourceType: "vendas", StatusCode: 200},
		{Username: "ana", Action: "PUT /utilizadores/ana", ResourceType: "utilizadores", StatusCode: 200},
		{Username: "gestor", Action: "POST /stock/movimento", ResourceType: "stock", StatusCode: 400},
	}
	for i := range entries {
		s.Require().NoError(s.db.Create(&entries[i]).Error)
	}

	logs, total, err := s.admin.ListAuditLogs(s.ctx, services.AuditLogFilter{Username: "ana"})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(logs, 2)

	logs, total, err = s.admin.ListAuditLogs(s.ctx, services.AuditLogFilter{ResourceType: "stock"})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(logs, 1)
	s.Equal(400, logs[0].StatusCode)

	logs, total, err = s.admin.ListAuditLogs(s.ctx, services.AuditLogFilter{
		PaginationParams: utils.PaginationParams{Page: 2, Limit: 2, Sort: "username", Order: "asc"},
	})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Require().Len(logs, 1)
	s.Equal("gestor", logs[0].Username)
}
