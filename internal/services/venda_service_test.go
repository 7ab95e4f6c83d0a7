package services_test

import (
	"context"
	"errors"
	"time"

	"github.com/javajoker/bricolage-backend/internal/models"
	"github.com/javajoker/bricolage-backend/internal/services"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

type fakeGateway struct {
	createErr error
	created   []float64
	cancelled []string
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount float64, _ string, _ map[string]string) (*services.PaymentIntent, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, amount)
	return &services.PaymentIntent{ID: "pi_test", Status: "requires_payment_method"}, nil
}

func (g *fakeGateway) Cancel(_ context.Context, id string) error {
	g.cancelled = append(g.cancelled, id)
	return nil
}

func item(ref string, qty int) []services.CartItemRequest {
	return []services.CartItemRequest{{Referencia: ref, Quantity: qty}}
}

func (s *ServiceSuite) TestCartMergesQuantitiesAndTotals() {
	s.product("REF1", "Martelo", 10, 10)
	_, actor := s.user("ana")

	cart, err := s.vendas.AddItems(s.ctx, actor, item("REF1", 2))
	s.Require().NoError(err)
	s.Equal(1, cart.NrVenda)
	s.Equal(models.VendaEstadoCarrinho, cart.Estado)
	s.Equal("ana", cart.Cliente.UsernameUtilizador)
	s.Equal(20.0, cart.Total)

	cart, err = s.vendas.AddItems(s.ctx, actor, item("REF1", 3))
	s.Require().NoError(err)
	s.Equal(1, cart.NrVenda)
	s.Require().Len(cart.Produtos, 1)
	s.Equal(5, cart.Produtos[0].Quantidade)
	s.Equal(50.0, cart.Total)

	stored, err := s.vendas.GetCart(s.ctx, actor)
	s.Require().NoError(err)
	s.Equal(50.0, stored.Total)
}

func (s *ServiceSuite) TestCartTotalFollowsEveryChange() {
	s.product("REF1", "Martelo", 10, 10)
	s.product("REF2", "Prego", 0.1, 100)
	_, actor := s.user("ana")

	assertTotal := func(cart *models.Venda) {
		var sum float64
		for _, line := range cart.Produtos {
			sum += line.Preco * float64(line.Quantidade)
		}
		s.InDelta(sum, cart.Total, 0.001)
	}

	cart, err := s.vendas.AddItems(s.ctx, actor, []services.CartItemRequest{
		{Referencia: "REF1", Quantity: 1},
		{Referencia: "REF2", Quantity: 3},
	})
	s.Require().NoError(err)
	s.Equal(10.3, cart.Total)
	assertTotal(cart)

	cart, err = s.vendas.SetItemQuantity(s.ctx, actor, "REF2", 7)
	s.Require().NoError(err)
	s.Equal(10.7, cart.Total)
	assertTotal(cart)

	cart, err = s.vendas.SetItemQuantity(s.ctx, actor, "REF1", 0)
	s.Require().NoError(err)
	s.Len(cart.Produtos, 1)
	s.Equal(0.7, cart.Total)

	_, err = s.vendas.SetItemQuantity(s.ctx, actor, "REF2", -1)
	s.requireKind(err, utils.KindValidation)

	_, err = s.vendas.SetItemQuantity(s.ctx, actor, "REF1", 2)
	s.requireKind(err, utils.KindNotFound)

	cart, err = s.vendas.MergeItems(s.ctx, actor, []services.CartItemRequest{
		{RefProduto: "REF2", Quantity: 3},
		{RefProduto: "REF1", Quantity: 2},
	})
	s.Require().NoError(err)
	s.Require().Len(cart.Produtos, 2)
	s.Equal(10, cart.Produtos[0].Quantidade)
	s.Equal(21.0, cart.Total)
	assertTotal(cart)
}

func (s *ServiceSuite) TestMergeItemsNeedsOpenCart() {
	s.product("REF1", "Martelo", 10, 10)
	_, actor := s.user("ana")

	_, err := s.vendas.MergeItems(s.ctx, actor, []services.CartItemRequest{{RefProduto: "REF1", Quantity: 1}})
	s.requireKind(err, utils.KindNotFound)

	_, err = s.vendas.AddItems(s.ctx, actor, []services.CartItemRequest{{RefProduto: "REF1", Quantity: 2}})
	s.Require().NoError(err)

	cart, err := s.vendas.MergeItems(s.ctx, actor, []services.CartItemRequest{{RefProduto: "REF1", Quantity: 3}})
	s.Require().NoError(err)
	s.Require().Len(cart.Produtos, 1)
	s.Equal("REF1", cart.Produtos[0].RefProduto)
	s.Equal(5, cart.Produtos[0].Quantidade)
	s.Equal(50.0, cart.Total)

	_, err = s.vendas.MergeItems(s.ctx, actor, []services.CartItemRequest{{Quantity: 1}})
	s.requireKind(err, utils.KindValidation)
}

func (s *ServiceSuite) TestAddItemsValidation() {
	_, actor := s.user("ana")

	_, err := s.vendas.AddItems(s.ctx, actor, item("NOPE", 1))
	s.requireKind(err, utils.KindNotFound)

	s.product("REF1", "Martelo", 10, 10)
	_, err = s.vendas.AddItems(s.ctx, actor, item("REF1", 0))
	s.requireKind(err, utils.KindValidation)

	_, err = s.vendas.AddItems(s.ctx, actor, nil)
	s.requireKind(err, utils.KindValidation)

	_, err = s.vendas.AddItems(s.ctx, nil, item("REF1", 1))
	s.requireKind(err, utils.KindAuth)

	_, err = s.vendas.GetCart(s.ctx, actor)
	s.requireKind(err, utils.KindNotFound)
}

func (s *ServiceSuite) TestFinalizeDecrementsStockAndFreezesVenda() {
	s.product("REF1", "Martelo", 10, 5)
	s.product("REF2", "Prego", 0.5, 100)
	_, actor := s.user("ana")

	_, err := s.vendas.Finalize(s.ctx, actor)
	s.requireKind(err, utils.KindNotFound)

	_, err = s.vendas.AddItems(s.ctx, actor, []services.CartItemRequest{
		{Referencia: "REF1", Quantity: 2},
		{Referencia: "REF2", Quantity: 10},
	})
	s.Require().NoError(err)

	venda, err := s.vendas.Finalize(s.ctx, actor)
	s.Require().NoError(err)
	s.True(venda.IsFinalized())
	s.NotNil(venda.DataFinalizacao)
	s.Equal(3, s.stockOf("REF1"))
	s.Equal(90, s.stockOf("REF2"))

	_, err = s.vendas.GetCart(s.ctx, actor)
	s.requireKind(err, utils.KindNotFound)

	next, err := s.vendas.AddItems(s.ctx, actor, item("REF1", 1))
	s.Require().NoError(err)
	s.Equal(2, next.NrVenda, "a finalized venda is never reopened")

	finalized, err := s.vendas.ListForUser(s.ctx, actor, true)
	s.Require().NoError(err)
	s.Require().Len(finalized, 1)
	s.Equal(25.0, finalized[0].Total)

	all, err := s.vendas.ListForUser(s.ctx, actor, false)
	s.Require().NoError(err)
	s.Len(all, 2)

	movements, err := s.stock.Movements(s.ctx, "REF1")
	s.Require().NoError(err)
	s.Require().Len(movements, 1)
	s.Equal("venda:1", movements[0].Origem)
}

func (s *ServiceSuite) TestFinalizeRollsBackOnShortfall() {
	s.product("REF1", "Martelo", 10, 5)
	s.product("REF2", "Prego", 0.5, 1)
	_, actor := s.user("ana")

	_, err := s.vendas.AddItems(s.ctx, actor, []services.CartItemRequest{
		{Referencia: "REF1", Quantity: 2},
		{Referencia: "REF2", Quantity: 3},
	})
	s.Require().NoError(err)

	_, err = s.vendas.Finalize(s.ctx, actor)
	s.requireKind(err, utils.KindInsufficientStock)

	s.Equal(5, s.stockOf("REF1"))
	s.Equal(1, s.stockOf("REF2"))

	cart, err := s.vendas.GetCart(s.ctx, actor)
	s.Require().NoError(err)
	s.True(cart.IsCart())
}

func (s *ServiceSuite) TestFinalizeWithPaymentGateway() {
	s.product("REF1", "Martelo", 10, 1)
	_, actor := s.user("ana")
	gateway := &fakeGateway{}
	vendas := services.NewVendaService(s.db, s.locker, gateway, "eur", s.metrics)

	_, err := vendas.AddItems(s.ctx, actor, item("REF1", 2))
	s.Require().NoError(err)

	_, err = vendas.Finalize(s.ctx, actor)
	s.requireKind(err, utils.KindInsufficientStock)
	s.Equal([]string{"pi_test"}, gateway.cancelled)

	_, err = vendas.SetItemQuantity(s.ctx, actor, "REF1", 1)
	s.Require().NoError(err)

	venda, err := vendas.Finalize(s.ctx, actor)
	s.Require().NoError(err)
	s.Equal("pi_test", venda.Pagamento.Referencia)
	s.Equal([]float64{20, 10}, gateway.created)

	_, err = vendas.AddItems(s.ctx, actor, item("REF1", 1))
	s.Require().NoError(err)
	gateway.createErr = errors.New("card declined")
	_, err = vendas.Finalize(s.ctx, actor)
	s.requireKind(err, utils.KindPayment)
}

func (s *ServiceSuite) TestVendaAccessAndDelete() {
	s.product("REF1", "Martelo", 10, 10)
	_, ana := s.user("ana")
	_, bruno := s.user("bruno")
	_, admin := s.user("admin", models.ScopeAdministrador)
	_, gestor := s.staff()

	cart, err := s.vendas.AddItems(s.ctx, ana, item("REF1", 1))
	s.Require().NoError(err)

	_, err = s.vendas.Get(s.ctx, bruno, cart.NrVenda)
	s.requireKind(err, utils.KindForbidden)
	_, err = s.vendas.Get(s.ctx, gestor, cart.NrVenda)
	s.NoError(err)
	_, err = s.vendas.Get(s.ctx, ana, 999)
	s.requireKind(err, utils.KindNotFound)

	s.requireKind(s.vendas.Delete(s.ctx, bruno, cart.NrVenda), utils.KindForbidden)
	s.Require().NoError(s.vendas.Delete(s.ctx, ana, cart.NrVenda))

	cart, err = s.vendas.AddItems(s.ctx, ana, item("REF1", 1))
	s.Require().NoError(err)
	_, err = s.vendas.Finalize(s.ctx, ana)
	s.Require().NoError(err)

	s.requireKind(s.vendas.Delete(s.ctx, ana, cart.NrVenda), utils.KindForbidden)
	s.Require().NoError(s.vendas.Delete(s.ctx, admin, cart.NrVenda))
	s.requireKind(s.vendas.Delete(s.ctx, admin, cart.NrVenda), utils.KindNotFound)
}

func (s *ServiceSuite) TestAdminListFilters() {
	s.product("REF1", "Martelo", 10, 100)
	s.product("REF2", "Serrote", 25, 100)
	_, ana := s.user("ana")
	_, bruno := s.user("bruno")

	_, err := s.vendas.AddItems(s.ctx, ana, item("REF1", 1))
	s.Require().NoError(err)
	_, err = s.vendas.Finalize(s.ctx, ana)
	s.Require().NoError(err)
	_, err = s.vendas.AddItems(s.ctx, ana, item("REF2", 2))
	s.Require().NoError(err)
	_, err = s.vendas.AddItems(s.ctx, bruno, item("REF1", 3))
	s.Require().NoError(err)

	old := time.Now().UTC().AddDate(-2, 0, 0)
	s.Require().NoError(s.db.Model(&models.Venda{}).Where("nr_venda = ?", 3).Update("data", old).Error)

	nrs := func(filter services.VendaFilter) []int {
		vendas, err := s.vendas.AdminList(s.ctx, filter)
		s.Require().NoError(err)
		out := make([]int, len(vendas))
		for i, v := range vendas {
			out[i] = v.NrVenda
		}
		return out
	}

	s.Equal([]int{1, 2, 3}, nrs(services.VendaFilter{}))
	s.Equal([]int{1, 3}, nrs(services.VendaFilter{Produto: "marte"}))
	s.Equal([]int{3}, nrs(services.VendaFilter{Username: "BRU"}))
	s.Equal([]int{1}, nrs(services.VendaFilter{Estado: "finalizada"}))
	s.Equal([]int{2, 3}, nrs(services.VendaFilter{Estado: "Carrinho"}))
	s.Equal([]int{1, 2}, nrs(services.VendaFilter{Periodo: services.PeriodoUltimaSemana}))
	s.Equal([]int{3}, nrs(services.VendaFilter{Periodo: services.PeriodoMaisAntigo}))
	s.Equal([]int{3}, nrs(services.VendaFilter{NrVenda: "3"}))
	s.Equal([]int{2, 3, 1}, nrs(services.VendaFilter{Ordem: services.OrdemPrecoDesc}))
	s.Equal([]int{3}, nrs(services.VendaFilter{Data: old.Format("2006-01-02")}))

	for _, bad := range []services.VendaFilter{
		{Periodo: "ontem"},
		{Estado: "pago"},
		{Ordem: "nome"},
		{Data: "17/05/2024"},
	} {
		_, err := s.vendas.AdminList(s.ctx, bad)
		s.requireKind(err, utils.KindValidation)
	}
}
