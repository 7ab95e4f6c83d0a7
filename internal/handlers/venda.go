// internal/handlers/venda.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/bricolage-backend/internal/i18n"
	"github.com/javajoker/bricolage-backend/internal/services"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

type VendaHandler struct {
	vendaService *services.VendaService
}

func NewVendaHandler(vendaService *services.VendaService) *VendaHandler {
	return &VendaHandler{vendaService: vendaService}
}

// addItemsBody accepts {"produtos": [...]} or a single {"referencia"|"refProduto", "quantity"} line.
type addItemsBody struct {
	Produtos []services.CartItemRequest `json:"produtos"`
	services.CartItemRequest
}

func (b addItemsBody) items() []services.CartItemRequest {
	if len(b.Produtos) == 0 && (b.Referencia != "" || b.RefProduto != "") {
		return []services.CartItemRequest{b.CartItemRequest}
	}
	return b.Produtos
}

// GET /menu/venda/me
func (h *VendaHandler) GetCart(c *gin.Context) {
	cart, err := h.vendaService.GetCart(c.Request.Context(), currentActor(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, cart)
}

// POST /menu/venda/me
func (h *VendaHandler) AddItems(c *gin.Context) {
	var body addItemsBody
	if !bindJSON(c, &body) {
		return
	}

	cart, err := h.vendaService.AddItems(c.Request.Context(), currentActor(c), body.items())
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, cart)
}

// PUT /menu/venda/me
// Adds the quantities to the existing open cart.
func (h *VendaHandler) MergeCart(c *gin.Context) {
	var body addItemsBody
	if !bindJSON(c, &body) {
		return
	}

	cart, err := h.vendaService.MergeItems(c.Request.Context(), currentActor(c), body.items())
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, cart)
}

// PUT /menu/venda/me/produtos/:referencia
func (h *VendaHandler) SetItemQuantity(c *gin.Context) {
	var body struct {
		Quantity *int `json:"quantity"`
	}
	if !bindJSON(c, &body) {
		return
	}
	if body.Quantity == nil {
		utils.HandleError(c, utils.ErrValidation(i18n.KeyCartInvalidQuantity))
		return
	}

	cart, err := h.vendaService.SetItemQuantity(c.Request.Context(), currentActor(c), c.Param("referencia"), *body.Quantity)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, cart)
}

// DELETE /menu/venda/me/produtos/:referencia
func (h *VendaHandler) RemoveItem(c *gin.Context) {
	cart, err := h.vendaService.SetItemQuantity(c.Request.Context(), currentActor(c), c.Param("referencia"), 0)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, cart)
}

// DELETE /menu/venda/me
func (h *VendaHandler) ClearCart(c *gin.Context) {
	if err := h.vendaService.ClearCart(c.Request.Context(), currentActor(c)); err != nil {
		utils.HandleError(c, err)
		return
	}
	messageResponse(c, i18n.KeyVendaDeleted, nil)
}

// GET /menu/venda/finalizar
func (h *VendaHandler) ListFinalized(c *gin.Context) {
	vendas, err := h.vendaService.ListForUser(c.Request.Context(), currentActor(c), true)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, vendas)
}

// POST /menu/venda/finalizar
func (h *VendaHandler) Finalize(c *gin.Context) {
	venda, err := h.vendaService.Finalize(c.Request.Context(), currentActor(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	messageResponse(c, i18n.KeyCartFinalized, gin.H{"venda": venda})
}

// GET /menu/vendas
func (h *VendaHandler) AdminList(c *gin.Context) {
	var filter services.VendaFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.HandleError(c, utils.ErrValidation(i18n.KeyVendaInvalidFilter).Wrap(err))
		return
	}

	vendas, err := h.vendaService.AdminList(c.Request.Context(), filter)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, vendas, gin.H{"total": len(vendas)})
}

// GET /menu/vendas/:nrVenda
func (h *VendaHandler) GetVenda(c *gin.Context) {
	nr, ok := nrVendaParam(c)
	if !ok {
		return
	}

	venda, err := h.vendaService.Get(c.Request.Context(), currentActor(c), nr)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, venda)
}

// DELETE /menu/vendas/:nrVenda
func (h *VendaHandler) DeleteVenda(c *gin.Context) {
	nr, ok := nrVendaParam(c)
	if !ok {
		return
	}

	if err := h.vendaService.Delete(c.Request.Context(), currentActor(c), nr); err != nil {
		utils.HandleError(c, err)
		return
	}
	messageResponse(c, i18n.KeyVendaDeleted, gin.H{"nrVenda": nr})
}
