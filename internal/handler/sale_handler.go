package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/operantis/backoffice-api/internal/service"
	"github.com/operantis/backoffice-api/internal/utils"
)

// SaleHandler handles sale HTTP endpoints.
type SaleHandler struct {
	saleService *service.SaleService
}

// NewSaleHandler constructs a SaleHandler.
func NewSaleHandler(saleService *service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// CreateSale handles POST /api/sales
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req service.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "MISSING_FIELD", "Invalid request body")
		return
	}

	userID := c.GetInt("user_id")
	sale, err := h.saleService.CreateSale(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	utils.Success(c, 201, "Sale created", sale)
}

// GetSales handles GET /api/sales
func (h *SaleHandler) GetSales(c *gin.Context) {
	sales, err := h.saleService.GetSales()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	utils.Success(c, 200, "Sales retrieved", sales)
}

// GetSale handles GET /api/sales/:id
func (h *SaleHandler) GetSale(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid sale id")
		return
	}

	sale, err := h.saleService.GetSale(id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Sale retrieved", sale)
}

// DeleteSale handles DELETE /api/sales/:id
func (h *SaleHandler) DeleteSale(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid sale id")
		return
	}

	if err := h.saleService.DeleteSale(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Sale deleted", nil)
}

func (h *SaleHandler) handleError(c *gin.Context, err error) {
	switch err {
	case utils.ErrInvalidQuantity:
		utils.Error(c, 400, "INVALID_QUANTITY", "Item quantity must be at least 1")
	case utils.ErrDuplicateProduct:
		utils.Error(c, 400, "DUPLICATE_PRODUCT", "Each product may appear in the items list only once")
	case utils.ErrInsufficientStock:
		utils.Error(c, 400, "INSUFFICIENT_STOCK", "Requested quantity exceeds available stock")
	case utils.ErrProductNotFound:
		utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
	case utils.ErrCustomerNotFound:
		utils.Error(c, 404, "CUSTOMER_NOT_FOUND", "Customer not found")
	case utils.ErrSaleNotFound:
		utils.Error(c, 404, "SALE_NOT_FOUND", "Sale not found")
	case utils.ErrDiscountNotFound:
		utils.Error(c, 404, "DISCOUNT_NOT_FOUND", "Discount code not found")
	case utils.ErrDiscountInactive:
		utils.Error(c, 400, "DISCOUNT_INACTIVE", "Discount is not active")
	case utils.ErrDiscountOutOfWindow:
		utils.Error(c, 400, "DISCOUNT_OUT_OF_WINDOW", "Discount is outside its validity window")
	case utils.ErrDiscountBelowMinimum:
		utils.Error(c, 400, "DISCOUNT_BELOW_MINIMUM", "Subtotal is below the discount minimum purchase")
	case utils.ErrDiscountExhausted:
		utils.Error(c, 409, "DISCOUNT_EXHAUSTED", "Discount usage limit reached")
	case utils.ErrPromotionNotFound:
		utils.Error(c, 404, "PROMOTION_NOT_FOUND", "Promotion not found")
	case utils.ErrPromotionInactive:
		utils.Error(c, 400, "PROMOTION_INACTIVE", "Promotion is not active")
	case utils.ErrPromotionOutOfWindow:
		utils.Error(c, 400, "PROMOTION_OUT_OF_WINDOW", "Promotion is outside its validity window")
	case utils.ErrPromotionNotApplicable:
		utils.Error(c, 400, "PROMOTION_NOT_APPLICABLE", "Sale does not satisfy the promotion conditions")
	case utils.ErrStockConflict:
		utils.Error(c, 409, "STOCK_CONFLICT", "Stock changed while recording the sale, please retry")
	case utils.ErrSaleNumberConflict:
		utils.Error(c, 409, "SALE_NUMBER_CONFLICT", "Sale number allocation collided, please retry")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
	}
}
