package services_test

import (
	"fmt"

	"github.com/javajoker/bricolage-backend/internal/models"
	"github.com/javajoker/bricolage-backend/internal/services"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

// 1x1 transparent PNG
const pngBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func refs(views []models.ProductView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.Referencia
	}
	return out
}

func floatPtr(v float64) *float64 {
	return &v
}

func (s *ServiceSuite) seedCatalog() {
	s.product("10", "Martelo", 12.5, 4)
	s.product("2", "Alicate", 8, 0)
	s.product("3", "Chave inglesa", 15, -1)
	s.product("A1", "Écran de proteção", 30, 2)
}

func (s *ServiceSuite) TestListComposesStockAndSortsReferencesNumerically() {
	s.seedCatalog()

	page, err := s.products.List(s.ctx, services.ProductListParams{})
	s.Require().NoError(err)
	s.Equal([]string{"2", "3", "10", "A1"}, refs(page.Products))
	s.Equal(1, page.TotalPages)
	s.Equal(4, page.Total)

	missing := page.Products[1]
	s.Equal(0, missing.Stock.Quantidade)
	s.Equal(models.StockNoAssociation, missing.Stock.Anotacoes)
}

func (s *ServiceSuite) TestMixedReferencesSortNumericFirst() {
	for _, ref := range []string{"A2", "1a", "10", "9", "b1", "2"} {
		s.product(ref, "Parafuso "+ref, 1, 1)
	}
	want := []string{"2", "9", "10", "1a", "A2", "b1"}

	page, err := s.products.List(s.ctx, services.ProductListParams{})
	s.Require().NoError(err)
	s.Equal(want, refs(page.Products))

	page, err = s.products.List(s.ctx, services.ProductListParams{SortBy: "preco"})
	s.Require().NoError(err)
	s.Equal(want, refs(page.Products))

	page, err = s.products.List(s.ctx, services.ProductListParams{SortOrder: "desc"})
	s.Require().NoError(err)
	s.Equal([]string{"b1", "A2", "1a", "10", "9", "2"}, refs(page.Products))
}

func (s *ServiceSuite) TestListFiltersAndSorts() {
	s.seedCatalog()

	tests := []struct {
		name   string
		params services.ProductListParams
		want   []string
	}{
		{
			name:   "search is case insensitive",
			params: services.ProductListParams{SearchField: "nome", SearchValue: "MART"},
			want:   []string{"10"},
		},
		{
			name:   "price range",
			params: services.ProductListParams{MinPrice: floatPtr(10), MaxPrice: floatPtr(20)},
			want:   []string{"3", "10"},
		},
		{
			name:   "in stock",
			params: services.ProductListParams{StockStatus: services.StockStatusIn},
			want:   []string{"10", "A1"},
		},
		{
			name:   "out of stock includes products without a stock row",
			params: services.ProductListParams{StockStatus: services.StockStatusOut},
			want:   []string{"2", "3"},
		},
		{
			name:   "price descending",
			params: services.ProductListParams{SortBy: "preco", SortOrder: "desc"},
			want:   []string{"A1", "3", "10", "2"},
		},
		{
			name:   "name uses collation",
			params: services.ProductListParams{SortBy: "nome"},
			want:   []string{"2", "3", "A1", "10"},
		},
		{
			name:   "quantity",
			params: services.ProductListParams{SortBy: "quantidade", SortOrder: "desc"},
			want:   []string{"10", "A1", "2", "3"},
		},
		{
			name:   "like wildcards are literal",
			params: services.ProductListParams{SearchField: "nome", SearchValue: "%"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			page, err := s.products.List(s.ctx, tt.params)
			s.Require().NoError(err)
			s.Equal(tt.want, refs(page.Products))
		})
	}
}

func (s *ServiceSuite) TestListRejectsUnknownParameters() {
	for _, params := range []services.ProductListParams{
		{SortBy: "password"},
		{SortOrder: "up"},
		{SearchField: "imagem", SearchValue: "x"},
		{StockStatus: "maybe"},
		{MinPrice: floatPtr(10), MaxPrice: floatPtr(5)},
	} {
		_, err := s.products.List(s.ctx, params)
		s.requireKind(err, utils.KindValidation)
	}
}

func (s *ServiceSuite) TestListPaginatesByTwelve() {
	for i := 1; i <= 25; i++ {
		s.product(fmt.Sprintf("%d", i), fmt.Sprintf("Parafuso %d", i), float64(i), i%3)
	}

	page, err := s.products.List(s.ctx, services.ProductListParams{Page: 3})
	s.Require().NoError(err)
	s.Equal(3, page.TotalPages)
	s.Equal([]string{"25"}, refs(page.Products))

	page, err = s.products.List(s.ctx, services.ProductListParams{Page: 9})
	s.Require().NoError(err)
	s.Empty(page.Products)
}

func (s *ServiceSuite) TestCreateUpdateAndConflicts() {
	req := &services.CreateProductRequest{
		Referencia: "REF1",
		Nome:       "Martelo",
		Descricao:  "Martelo de carpinteiro",
		Preco:      10,
		Categoria:  "Ferramentas",
		Imagem:     "data:image/png;base64," + pngBase64,
	}
	view, err := s.products.Create(s.ctx, req)
	s.Require().NoError(err)
	s.Equal("data:image/png;base64,"+pngBase64, view.Imagem)
	s.False(view.Stock.Associado)

	_, err = s.products.Create(s.ctx, req)
	s.requireKind(err, utils.KindConflict)

	_, err = s.products.Create(s.ctx, &services.CreateProductRequest{Referencia: "REF2", Nome: "X", Descricao: "Y", Categoria: "Z"})
	s.requireKind(err, utils.KindValidation)

	nome := "Martelo grande"
	preco := 14.99
	view, err = s.products.Update(s.ctx, "REF1", &services.UpdateProductRequest{Nome: &nome, Preco: &preco})
	s.Require().NoError(err)
	s.Equal("REF1", view.Referencia)
	s.Equal("Martelo grande", view.Nome)
	s.Equal(14.99, view.Preco)
	s.Equal("Ferramentas", view.Categoria)

	_, err = s.products.Update(s.ctx, "NOPE", &services.UpdateProductRequest{Nome: &nome})
	s.requireKind(err, utils.KindNotFound)
}

func (s *ServiceSuite) TestDeleteRemovesProductAndStock() {
	s.product("REF1", "Martelo", 10, 5)
	u, actor := s.user("ana")
	_, err := s.users.ToggleFavorite(s.ctx, actor, "REF1", true)
	s.Require().NoError(err)

	s.Require().NoError(s.products.Delete(s.ctx, "REF1"))

	_, err = s.products.GetByReference(s.ctx, "REF1")
	s.requireKind(err, utils.KindNotFound)
	_, err = s.stock.GetByReference(s.ctx, "REF1")
	s.requireKind(err, utils.KindNotFound)

	var count int64
	s.Require().NoError(s.db.Model(&models.Stock{}).Count(&count).Error)
	s.Zero(count)
	s.Require().NoError(s.db.Model(&models.Favorite{}).Where("user_id = ?", u.ID).Count(&count).Error)
	s.Zero(count)

	s.requireKind(s.products.Delete(s.ctx, "REF1"), utils.KindNotFound)
}

func (s *ServiceSuite) TestMaxPriceIsCachedUntilCatalogChanges() {
	_, err := s.products.MaxPrice(s.ctx)
	s.requireKind(err, utils.KindNotFound)

	s.seedCatalog()
	price, err := s.products.MaxPrice(s.ctx)
	s.Require().NoError(err)
	s.Equal(30.0, price)

	_, err = s.products.Create(s.ctx, &services.CreateProductRequest{
		Referencia: "B2", Nome: "Berbequim", Descricao: "Berbequim sem fios", Preco: 99.9, Categoria: "Elétricas",
	})
	s.Require().NoError(err)

	price, err = s.products.MaxPrice(s.ctx)
	s.Require().NoError(err)
	s.Equal(99.9, price)
}

func (s *ServiceSuite) TestImageUpdates() {
	s.product("REF1", "Martelo", 10, -1)

	_, err := s.products.UpdateImage(s.ctx, "REF1", "bm90IGFuIGltYWdl")
	s.requireKind(err, utils.KindValidation)

	view, err := s.products.UpdateImage(s.ctx, "REF1", pngBase64)
	s.Require().NoError(err)
	s.Equal("data:image/png;base64,"+pngBase64, view.Imagem)

	image, err := s.products.GetImage(s.ctx, "REF1")
	s.Require().NoError(err)
	s.Equal("Martelo", image.Nome)
	s.Equal(view.Imagem, image.Imagem)
}
