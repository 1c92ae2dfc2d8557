package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/operantis/backoffice-api/internal/models"
	"github.com/operantis/backoffice-api/internal/service"
	"github.com/operantis/backoffice-api/internal/utils"
)

// DiscountHandler handles discount HTTP endpoints.
type DiscountHandler struct {
	discountService *service.DiscountService
}

// NewDiscountHandler constructs a DiscountHandler.
func NewDiscountHandler(discountService *service.DiscountService) *DiscountHandler {
	return &DiscountHandler{discountService: discountService}
}

type discountRequest struct {
	Code        string              `json:"code" binding:"required"`
	Type        models.DiscountType `json:"type" binding:"required"`
	Value       decimal.Decimal     `json:"value"`
	MinPurchase *decimal.Decimal    `json:"minPurchase"`
	StartDate   time.Time           `json:"startDate" binding:"required"`
	EndDate     time.Time           `json:"endDate" binding:"required"`
	MaxUses     *int                `json:"maxUses"`
	IsActive    *bool               `json:"isActive"`
}

func (req *discountRequest) toModel() *models.Discount {
	d := &models.Discount{
		Code:        req.Code,
		Type:        req.Type,
		Value:       req.Value,
		MinPurchase: req.MinPurchase,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		MaxUses:     req.MaxUses,
		IsActive:    true,
	}
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}
	return d
}

// GetDiscounts handles GET /api/discounts
func (h *DiscountHandler) GetDiscounts(c *gin.Context) {
	discounts, err := h.discountService.List()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	utils.Success(c, 200, "Discounts retrieved", discounts)
}

// GetDiscount handles GET /api/discounts/:id
func (h *DiscountHandler) GetDiscount(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid discount id")
		return
	}

	discount, err := h.discountService.Get(id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Discount retrieved", discount)
}

// CreateDiscount handles POST /api/discounts
func (h *DiscountHandler) CreateDiscount(c *gin.Context) {
	var req discountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "MISSING_FIELD", "Invalid request body")
		return
	}

	discount := req.toModel()
	if err := h.discountService.Create(c.Request.Context(), discount); err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 201, "Discount created", discount)
}

// UpdateDiscount handles PUT /api/discounts/:id
func (h *DiscountHandler) UpdateDiscount(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid discount id")
		return
	}

	var req discountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "MISSING_FIELD", "Invalid request body")
		return
	}

	discount := req.toModel()
	discount.ID = id
	if err := h.discountService.Update(c.Request.Context(), discount); err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Discount updated", discount)
}

// DeleteDiscount handles DELETE /api/discounts/:id
func (h *DiscountHandler) DeleteDiscount(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid discount id")
		return
	}

	if err := h.discountService.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Discount deleted", nil)
}

func (h *DiscountHandler) handleError(c *gin.Context, err error) {
	switch err {
	case utils.ErrDiscountNotFound:
		utils.Error(c, 404, "DISCOUNT_NOT_FOUND", "Discount not found")
	case utils.ErrDuplicateCode:
		utils.Error(c, 400, "DUPLICATE_CODE", "Discount code already exists")
	case utils.ErrInvalidDiscountValue:
		utils.Error(c, 400, "INVALID_DISCOUNT_VALUE", "Discount value is invalid for its type")
	case utils.ErrDiscountInUse:
		utils.Error(c, 409, "DISCOUNT_IN_USE", "Discount is referenced by existing sales")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
	}
}
