package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendaRecalculateTotal(t *testing.T) {
	v := &Venda{Produtos: VendaItems{
		{RefProduto: "REF1", Quantidade: 5, Preco: 10.00},
		{RefProduto: "REF2", Quantidade: 3, Preco: 0.10},
	}}
	v.RecalculateTotal()
	assert.Equal(t, 50.30, v.Total)

	require.True(t, v.RemoveItem("REF2"))
	v.RecalculateTotal()
	assert.Equal(t, 50.00, v.Total)
	assert.False(t, v.RemoveItem("REF9"))
}

func TestVendaEstadoIsCaseInsensitive(t *testing.T) {
	assert.True(t, (&Venda{Estado: "carrinho"}).IsCart())
	assert.True(t, (&Venda{Estado: "FINALIZADA"}).IsFinalized())
	assert.False(t, (&Venda{Estado: VendaEstadoFinalizada}).IsCart())
}

func TestJSONColumnsScanStringAndBytes(t *testing.T) {
	var scopes StringList
	require.NoError(t, scopes.Scan(`["utilizador","gestor"]`))
	assert.Equal(t, StringList{"utilizador", "gestor"}, scopes)

	var items VendaItems
	require.NoError(t, items.Scan([]byte(`[{"refProduto":"REF1","nome":"Martelo","quantidade":2,"preco":12.5}]`)))
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantidade)

	value, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", value)

	assert.Error(t, scopes.Scan(42))
}

func TestComposeProduct(t *testing.T) {
	p := Product{Referencia: "REF1", Nome: "Martelo", Preco: 10}

	missing := ComposeProduct(p, nil)
	assert.Equal(t, 0, missing.Stock.Quantidade)
	assert.Equal(t, StockNoAssociation, missing.Stock.Anotacoes)
	assert.False(t, missing.Stock.Associado)

	withStock := ComposeProduct(p, &Stock{RefProduto: "REF1", Quantidade: 7})
	assert.Equal(t, 7, withStock.Stock.Quantidade)
	assert.True(t, withStock.Stock.Associado)
}

func TestUserPasswordAndScopes(t *testing.T) {
	u := &User{Role: DefaultRole()}
	require.NoError(t, u.SetPassword("segredo1"))
	assert.NoError(t, u.CheckPassword("segredo1"))
	assert.Error(t, u.CheckPassword("errado"))

	assert.True(t, u.HasAnyScope(ScopeAdministrador, ScopeUtilizador))
	assert.False(t, u.HasAnyScope(ScopeGestor))
	assert.True(t, IsValidScope("gestor"))
	assert.False(t, IsValidScope("root"))
}
