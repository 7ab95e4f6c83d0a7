// internal/handlers/stock.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/bricolage-backend/internal/services"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

type StockHandler struct {
	stockService *services.StockService
}

func NewStockHandler(stockService *services.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// GET /menu/stocks
func (h *StockHandler) ListStocks(c *gin.Context) {
	stocks, err := h.stockService.List(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, stocks)
}

// POST /menu/stocks
func (h *StockHandler) ApplyMovement(c *gin.Context) {
	var req services.MovementRequest
	if !bindJSON(c, &req) {
		return
	}

	stock, err := h.stockService.ApplyMovement(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, stock)
}

// GET /menu/stocks/:referencia
func (h *StockHandler) GetStock(c *gin.Context) {
	snapshot, err := h.stockService.GetByReference(c.Request.Context(), c.Param("referencia"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, snapshot)
}

// PUT /menu/stocks/:referencia
func (h *StockHandler) SetQuantity(c *gin.Context) {
	var req services.SetQuantityRequest
	if !bindJSON(c, &req) {
		return
	}

	stock, err := h.stockService.SetQuantity(c.Request.Context(), currentActor(c), c.Param("referencia"), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, stock)
}

// GET /menu/stocks/:referencia/movimentos
func (h *StockHandler) ListMovements(c *gin.Context) {
	movements, err := h.stockService.Movements(c.Request.Context(), c.Param("referencia"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, movements)
}
