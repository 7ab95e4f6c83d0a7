// internal/handlers/product.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/bricolage-backend/internal/i18n"
	"github.com/javajoker/bricolage-backend/internal/services"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

func parsePrice(c *gin.Context, name string) (*float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		utils.HandleError(c, utils.ErrValidation(i18n.KeyProductInvalidQuery, name))
		return nil, false
	}
	return &value, true
}

// GET /menu/produtos
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := services.ProductListParams{
		SortBy:      c.Query("sortBy"),
		SortOrder:   c.Query("sortOrder"),
		SearchField: c.Query("searchField"),
		SearchValue: c.Query("searchValue"),
		StockStatus: c.Query("stockStatus"),
	}

	if page := c.Query("page"); page != "" {
		n, err := strconv.Atoi(page)
		if err != nil {
			utils.HandleError(c, utils.ErrValidation(i18n.KeyProductInvalidQuery, "page"))
			return
		}
		params.Page = n
	}

	var ok bool
	if params.MinPrice, ok = parsePrice(c, "minPrice"); !ok {
		return
	}
	if params.MaxPrice, ok = parsePrice(c, "maxPrice"); !ok {
		return
	}

	page, err := h.productService.List(c.Request.Context(), params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, page)
}

// POST /menu/produtos
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, product)
}

// GET /menu/produtos/:referencia
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.GetByReference(c.Request.Context(), c.Param("referencia"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// PUT /menu/produtos/:referencia
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req services.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Update(c.Request.Context(), c.Param("referencia"), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// DELETE /menu/produtos/:referencia
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.productService.Delete(c.Request.Context(), c.Param("referencia")); err != nil {
		utils.HandleError(c, err)
		return
	}

	messageResponse(c, i18n.KeyProductDeleted, gin.H{"referencia": c.Param("referencia")})
}

// PUT /menu/produtos/:referencia/imagem
func (h *ProductHandler) UpdateImage(c *gin.Context) {
	var req struct {
		Imagem string `json:"imagem"`
	}
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.UpdateImage(c.Request.Context(), c.Param("referencia"), req.Imagem)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// GET /menu/produtos/imagem/:referencia
func (h *ProductHandler) GetImage(c *gin.Context) {
	image, err := h.productService.GetImage(c.Request.Context(), c.Param("referencia"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, image)
}

// GET /menu/produto/preco-maximo
func (h *ProductHandler) GetMaxPrice(c *gin.Context) {
	price, err := h.productService.MaxPrice(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"precoMaximo": price})
}
