// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/javajoker/bricolage-backend/internal/database"
	"github.com/javajoker/bricolage-backend/internal/i18n"
	"github.com/javajoker/bricolage-backend/internal/models"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

const ProductPageSize = 12

const (
	StockStatusIn  = "inStock"
	StockStatusOut = "outOfStock"
)

var (
	productSearchFields = map[string]bool{
		"referencia": true,
		"nome":       true,
		"descricao":  true,
		"categoria":  true,
	}
	productSortFields = map[string]bool{
		"referencia": true,
		"nome":       true,
		"descricao":  true,
		"preco":      true,
		"categoria":  true,
		"quantidade": true,
	}
	likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
)

type ProductService struct {
	db      *gorm.DB
	cache   *CatalogCache
	locker  Locker
	storage *StorageService
}

type CreateProductRequest struct {
	Referencia string  `json:"referencia" validate:"required,max=50"`
	Nome       string  `json:"nome" validate:"required,max=200"`
	Descricao  string  `json:"descricao" validate:"required"`
	Preco      float64 `json:"preco" validate:"required,gt=0"`
	Categoria  string  `json:"categoria" validate:"required,max=100"`
	Imagem     string  `json:"imagem,omitempty"`
}

type UpdateProductRequest struct {
	Nome      *string  `json:"nome,omitempty" validate:"omitempty,min=1,max=200"`
	Descricao *string  `json:"descricao,omitempty"`
	Preco     *float64 `json:"preco,omitempty" validate:"omitempty,gt=0"`
	Categoria *string  `json:"categoria,omitempty" validate:"omitempty,min=1,max=100"`
}

type ProductListParams struct {
	SortBy      string
	SortOrder   string
	SearchField string
	SearchValue string
	MinPrice    *float64
	MaxPrice    *float64
	StockStatus string
	Page        int
}

type ProductPage struct {
	Products   []models.ProductView `json:"products"`
	TotalPages int                  `json:"totalPages"`
	Total      int                  `json:"total"`
	Page       int                  `json:"page"`
}

type ProductImage struct {
	Nome   string  `json:"nome"`
	Preco  float64 `json:"preco"`
	Imagem string  `json:"imagem"`
}

func NewProductService(db *gorm.DB, cache *CatalogCache, locker Locker, storage *StorageService) *ProductService {
	return &ProductService{
		db:      db,
		cache:   cache,
		locker:  locker,
		storage: storage,
	}
}

func (p *ProductListParams) normalize() error {
	if p.SortBy == "" {
		p.SortBy = "referencia"
	}
	if !productSortFields[p.SortBy] {
		return utils.ErrValidation(i18n.KeyProductInvalidQuery, "sortBy")
	}

	p.SortOrder = strings.ToLower(p.SortOrder)
	if p.SortOrder == "" {
		p.SortOrder = "asc"
	}
	if p.SortOrder != "asc" && p.SortOrder != "desc" {
		return utils.ErrValidation(i18n.KeyProductInvalidQuery, "sortOrder")
	}

	if p.SearchValue != "" {
		if p.SearchField == "" {
			p.SearchField = "nome"
		}
		if !productSearchFields[p.SearchField] {
			return utils.ErrValidation(i18n.KeyProductInvalidQuery, "searchField")
		}
	}

	if p.StockStatus != "" && p.StockStatus != StockStatusIn && p.StockStatus != StockStatusOut {
		return utils.ErrValidation(i18n.KeyProductInvalidQuery, "stockStatus")
	}

	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		return utils.ErrValidation(i18n.KeyProductInvalidQuery, "minPrice")
	}

	if p.Page < 1 {
		p.Page = 1
	}
	return nil
}

// List filters in SQL, composes every match with its stock, then filters by stock status, sorts and paginates.
func (s *ProductService) List(ctx context.Context, params ProductListParams) (*ProductPage, error) {
	if err := params.normalize(); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.Product{})
	if params.SearchValue != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(params.SearchValue)) + "%"
		query = query.Where("LOWER("+params.SearchField+") LIKE ? ESCAPE '!'", pattern)
	}
	if params.MinPrice != nil {
		query = query.Where("preco >= ?", *params.MinPrice)
	}
	if params.MaxPrice != nil {
		query = query.Where("preco <= ?", *params.MaxPrice)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	views, err := composeProducts(s.db.WithContext(ctx), products)
	if err != nil {
		return nil, err
	}

	if params.StockStatus != "" {
		filtered := views[:0]
		for _, v := range views {
			inStock := v.Stock.Quantidade > 0
			if inStock == (params.StockStatus == StockStatusIn) {
				filtered = append(filtered, v)
			}
		}
		views = filtered
	}

	sortProducts(views, params.SortBy, params.SortOrder == "desc")

	total := len(views)
	start := (params.Page - 1) * ProductPageSize
	if start > total {
		start = total
	}
	end := start + ProductPageSize
	if end > total {
		end = total
	}

	return &ProductPage{
		Products:   views[start:end],
		TotalPages: utils.TotalPages(int64(total), ProductPageSize),
		Total:      total,
		Page:       params.Page,
	}, nil
}

// composeProducts loads the stock rows of products in one query and joins them in order.
func composeProducts(db *gorm.DB, products []models.Product) ([]models.ProductView, error) {
	views := make([]models.ProductView, 0, len(products))
	if len(products) == 0 {
		return views, nil
	}

	refs := make([]string, len(products))
	for i, p := range products {
		refs[i] = p.Referencia
	}

	var stocks []models.Stock
	if err := db.Where("ref_produto IN ?", refs).Find(&stocks).Error; err != nil {
		return nil, fmt.Errorf("failed to load stock: %w", err)
	}
	byRef := make(map[string]*models.Stock, len(stocks))
	for i := range stocks {
		byRef[stocks[i].RefProduto] = &stocks[i]
	}

	for _, p := range products {
		views = append(views, models.ComposeProduct(p, byRef[p.Referencia]))
	}
	return views, nil
}

func sortProducts(views []models.ProductView, field string, desc bool) {
	col := collate.New(language.Portuguese, collate.Loose)

	compare := func(a, b models.ProductView) int {
		switch field {
		case "preco":
			return compareFloat(a.Preco, b.Preco)
		case "quantidade":
			return compareInt(a.Stock.Quantidade, b.Stock.Quantidade)
		case "nome":
			return col.CompareString(a.Nome, b.Nome)
		case "descricao":
			return col.CompareString(a.Descricao, b.Descricao)
		case "categoria":
			return col.CompareString(a.Categoria, b.Categoria)
		default:
			return compareReference(col, a.Referencia, b.Referencia)
		}
	}

	sort.SliceStable(views, func(i, j int) bool {
		c := compare(views[i], views[j])
		if c == 0 {
			return compareReference(col, views[i].Referencia, views[j].Referencia) < 0
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// compareReference puts all-numeric references first, ordered by value,
// followed by the rest in collation order.
func compareReference(col *collate.Collator, a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if c := compareInt64(na, nb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return col.CompareString(a, b)
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInt(a, b int) int {
	return compareInt64(int64(a), int64(b))
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (s *ProductService) GetByReference(ctx context.Context, ref string) (*models.ProductView, error) {
	db := s.db.WithContext(ctx)
	product, err := findProduct(db, ref)
	if err != nil {
		return nil, err
	}

	views, err := composeProducts(db, []models.Product{*product})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *ProductService) Create(ctx context.Context, req *CreateProductRequest) (*models.ProductView, error) {
	req.Referencia = strings.TrimSpace(req.Referencia)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.ValidationFailed(err)
	}

	release, err := s.locker.Lock(ctx, stockLockKey(req.Referencia))
	if err != nil {
		return nil, err
	}
	defer release()

	db := s.db.WithContext(ctx)
	if _, err := findProduct(db, req.Referencia); err == nil {
		return nil, utils.ErrConflict(i18n.KeyProductExists)
	} else if !utils.IsKind(err, utils.KindNotFound) {
		return nil, err
	}

	product := &models.Product{
		Referencia: req.Referencia,
		Nome:       req.Nome,
		Descricao:  req.Descricao,
		Preco:      req.Preco,
		Categoria:  req.Categoria,
	}

	if req.Imagem != "" {
		image, err := s.storage.StoreImage(ctx, FolderProducts, req.Referencia, req.Imagem)
		if err != nil {
			return nil, err
		}
		product.Imagem = image
	}

	if err := db.Create(product).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return nil, utils.ErrConflict(i18n.KeyProductExists)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.cache.Invalidate()

	view := models.ComposeProduct(*product, nil)
	return &view, nil
}

// Update ignores the reference, it is the immutable key.
func (s *ProductService) Update(ctx context.Context, ref string, req *UpdateProductRequest) (*models.ProductView, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.ValidationFailed(err)
	}

	db := s.db.WithContext(ctx)
	product, err := findProduct(db, ref)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Nome != nil {
		updates["nome"] = *req.Nome
	}
	if req.Descricao != nil {
		updates["descricao"] = *req.Descricao
	}
	if req.Preco != nil {
		updates["preco"] = *req.Preco
	}
	if req.Categoria != nil {
		updates["categoria"] = *req.Categoria
	}

	if len(updates) > 0 {
		if err := db.Model(product).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
		s.cache.Invalidate()
	}

	return s.GetByReference(ctx, ref)
}

// Delete removes the product together with its stock, movement log and favorites.
func (s *ProductService) Delete(ctx context.Context, ref string) error {
	release, err := s.locker.Lock(ctx, stockLockKey(ref))
	if err != nil {
		return err
	}
	defer release()

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Where("referencia = ?", ref).Delete(&models.Favorite{}).Error; err != nil {
			return fmt.Errorf("failed to delete favorites: %w", err)
		}
		if err := removeStock(tx, ref); err != nil {
			return err
		}

		result := tx.Where("referencia = ?", ref).Delete(&models.Product{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete product: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return utils.ErrNotFound(i18n.KeyProductNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate()
	return nil
}

func (s *ProductService) UpdateImage(ctx context.Context, ref, payload string) (*models.ProductView, error) {
	db := s.db.WithContext(ctx)
	product, err := findProduct(db, ref)
	if err != nil {
		return nil, err
	}

	image, err := s.storage.StoreImage(ctx, FolderProducts, ref, payload)
	if err != nil {
		return nil, err
	}

	if err := db.Model(product).Update("imagem", image).Error; err != nil {
		return nil, fmt.Errorf("failed to update product image: %w", err)
	}

	return s.GetByReference(ctx, ref)
}

func (s *ProductService) GetImage(ctx context.Context, ref string) (*ProductImage, error) {
	product, err := findProduct(s.db.WithContext(ctx), ref)
	if err != nil {
		return nil, err
	}
	return &ProductImage{Nome: product.Nome, Preco: product.Preco, Imagem: product.Imagem}, nil
}

// MaxPrice is cached until the next catalog write.
func (s *ProductService) MaxPrice(ctx context.Context) (float64, error) {
	price, generation, ok := s.cache.MaxPrice()
	if ok {
		return price, nil
	}

	var product models.Product
	err := s.db.WithContext(ctx).Order("preco desc").Take(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, utils.ErrNotFound(i18n.KeyProductCatalogEmpty)
	}
	if err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}

	s.cache.SetMaxPrice(generation, product.Preco)
	return product.Preco, nil
}

func findProduct(db *gorm.DB, ref string) (*models.Product, error) {
	var product models.Product
	if err := db.First(&product, "referencia = ?", ref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound(i18n.KeyProductNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}
