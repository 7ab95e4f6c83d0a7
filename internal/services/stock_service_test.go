package services_test

import (
	"errors"
	"strings"
	"sync"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/javajoker/bricolage-backend/internal/models"
	"github.com/javajoker/bricolage-backend/internal/services"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

func (s *ServiceSuite) movement(ref string, mv models.MovementType, qty int) error {
	_, actor := s.staff()
	_, err := s.stock.ApplyMovement(s.ctx, actor, &services.MovementRequest{RefProduto: ref, Quantidade: qty, Movimento: mv})
	return err
}

func (s *ServiceSuite) staff() (*models.User, *services.Actor) {
	var gestor models.User
	if err := s.db.Where("username = ?", "gestor").First(&gestor).Error; err == nil {
		return &gestor, &services.Actor{UserID: gestor.ID, Username: gestor.Username, Scopes: gestor.Role.Scopes}
	}
	return s.user("gestor", models.ScopeGestor)
}

func (s *ServiceSuite) TestStockWithoutRowReportsNoAssociation() {
	s.product("REF1", "Martelo", 10, -1)

	snapshot, err := s.stock.GetByReference(s.ctx, "REF1")
	s.Require().NoError(err)
	s.Equal(0, snapshot.Quantidade)
	s.Equal(models.StockNoAssociation, snapshot.Anotacoes)
	s.False(snapshot.Associado)

	_, err = s.stock.GetByReference(s.ctx, "NOPE")
	s.requireKind(err, utils.KindNotFound)
}

func (s *ServiceSuite) TestSaidaBeyondStockIsRejected() {
	s.product("REF1", "Martelo", 10, -1)

	s.Require().NoError(s.movement("REF1", models.MovementEntrada, 5))
	s.Equal(5, s.stockOf("REF1"))

	err := s.movement("REF1", models.MovementSaida, 8)
	s.requireKind(err, utils.KindInsufficientStock)

	var appErr *utils.AppError
	s.Require().True(errors.As(err, &appErr))
	shortage, ok := appErr.Details.(utils.StockShortage)
	s.Require().True(ok)
	s.Equal(5, shortage.Disponivel)
	s.Equal(8, shortage.Pedido)

	s.Equal(5, s.stockOf("REF1"))

	expected := `
# HELP bricolage_stock_movements_rejected_total Stock exits rejected for insufficient stock
# TYPE bricolage_stock_movements_rejected_total counter
bricolage_stock_movements_rejected_total 1
`
	s.NoError(promtest.GatherAndCompare(s.metrics.Registry(), strings.NewReader(expected), "bricolage_stock_movements_rejected_total"))
}

func (s *ServiceSuite) TestMovementSequenceSumsAcceptedMovements() {
	s.product("REF1", "Martelo", 10, 3)

	steps := []struct {
		mv  models.MovementType
		qty int
	}{
		{models.MovementEntrada, 10},
		{models.MovementSaida, 4},
		{models.MovementSaida, 20},
		{models.MovementEntrada, 2},
		{models.MovementSaida, 10},
		{models.MovementSaida, 1},
	}

	expected := 3
	for _, step := range steps {
		err := s.movement("REF1", step.mv, step.qty)
		switch {
		case step.mv == models.MovementEntrada:
			s.Require().NoError(err)
			expected += step.qty
		case step.qty <= expected:
			s.Require().NoError(err)
			expected -= step.qty
		default:
			s.requireKind(err, utils.KindInsufficientStock)
		}
		s.Equal(expected, s.stockOf("REF1"))
	}

	movements, err := s.stock.Movements(s.ctx, "REF1")
	s.Require().NoError(err)
	s.Len(movements, 5, "only accepted movements are logged")
}

func (s *ServiceSuite) TestMovementValidation() {
	s.product("REF1", "Martelo", 10, -1)
	_, actor := s.staff()

	_, err := s.stock.ApplyMovement(s.ctx, actor, &services.MovementRequest{RefProduto: "REF1", Quantidade: 0, Movimento: models.MovementEntrada})
	s.requireKind(err, utils.KindValidation)

	_, err = s.stock.ApplyMovement(s.ctx, actor, &services.MovementRequest{RefProduto: "REF1", Quantidade: 1, Movimento: "TRANSFERENCIA"})
	s.requireKind(err, utils.KindValidation)

	_, err = s.stock.ApplyMovement(s.ctx, actor, &services.MovementRequest{RefProduto: "NOPE", Quantidade: 1, Movimento: models.MovementEntrada})
	s.requireKind(err, utils.KindNotFound)

	stock, err := s.stock.ApplyMovement(s.ctx, actor, &services.MovementRequest{RefProduto: "REF1", Quantidade: 4, Movimento: "entrada"})
	s.Require().NoError(err)
	s.Equal(4, stock.Quantidade)
}

func (s *ServiceSuite) TestSetQuantityRecordsAdjustment() {
	s.product("REF1", "Martelo", 10, 7)
	_, actor := s.staff()

	zero := 0
	stock, err := s.stock.SetQuantity(s.ctx, actor, "REF1", &services.SetQuantityRequest{Quantidade: &zero, Anotacoes: "inventário"})
	s.Require().NoError(err)
	s.Equal(0, stock.Quantidade)
	s.Equal("inventário", stock.Anotacoes)

	negative := -1
	_, err = s.stock.SetQuantity(s.ctx, actor, "REF1", &services.SetQuantityRequest{Quantidade: &negative})
	s.requireKind(err, utils.KindValidation)

	movements, err := s.stock.Movements(s.ctx, "REF1")
	s.Require().NoError(err)
	s.Require().Len(movements, 1)
	s.Equal(models.MovementAjuste, movements[0].Movimento)
	s.Equal(7, movements[0].QuantidadeAnterior)
	s.Equal("gestor", movements[0].Utilizador)
}

func (s *ServiceSuite) TestConcurrentSaidasNeverOversell() {
	s.product("REF1", "Martelo", 10, 10)
	_, actor := s.staff()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.stock.ApplyMovement(s.ctx, actor, &services.MovementRequest{RefProduto: "REF1", Quantidade: 1, Movimento: models.MovementSaida})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(10, accepted)
	s.Equal(0, s.stockOf("REF1"))
}

func (s *ServiceSuite) TestSetQuantityAcceptsQuantityKey() {
	s.product("REF1", "Martelo", 10, 7)
	_, actor := s.staff()

	four := 4
	stock, err := s.stock.SetQuantity(s.ctx, actor, "REF1", &services.SetQuantityRequest{Quantity: &four})
	s.Require().NoError(err)
	s.Equal(4, stock.Quantidade)

	_, err = s.stock.SetQuantity(s.ctx, actor, "REF1", &services.SetQuantityRequest{})
	s.requireKind(err, utils.KindValidation)
}
