package handler

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/operantis/backoffice-api/internal/models"
	"github.com/operantis/backoffice-api/internal/service"
	"github.com/operantis/backoffice-api/internal/utils"
)

// PromotionHandler handles promotion HTTP endpoints.
type PromotionHandler struct {
	promotionService *service.PromotionService
}

// NewPromotionHandler constructs a PromotionHandler.
func NewPromotionHandler(promotionService *service.PromotionService) *PromotionHandler {
	return &PromotionHandler{promotionService: promotionService}
}

type promotionRequest struct {
	Name        string               `json:"name" binding:"required"`
	Description *string              `json:"description"`
	Type        models.PromotionType `json:"type" binding:"required"`
	Conditions  json.RawMessage      `json:"conditions" binding:"required"`
	StartDate   time.Time            `json:"startDate" binding:"required"`
	EndDate     time.Time            `json:"endDate" binding:"required"`
	IsActive    *bool                `json:"isActive"`
}

// toModel validates the conditions payload against the promotion type.
func (req *promotionRequest) toModel() (*models.Promotion, error) {
	conditions, err := models.ParseConditions(req.Type, req.Conditions)
	if err != nil {
		return nil, err
	}
	p := &models.Promotion{
		Name:          req.Name,
		Description:   req.Description,
		Type:          req.Type,
		Conditions:    conditions,
		RawConditions: req.Conditions,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		IsActive:      true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	return p, nil
}

// GetPromotions handles GET /api/promotions
func (h *PromotionHandler) GetPromotions(c *gin.Context) {
	promotions, err := h.promotionService.List()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	utils.Success(c, 200, "Promotions retrieved", promotions)
}

// GetPromotion handles GET /api/promotions/:id
func (h *PromotionHandler) GetPromotion(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid promotion id")
		return
	}

	promotion, err := h.promotionService.Get(id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Promotion retrieved", promotion)
}

// CreatePromotion handles POST /api/promotions
func (h *PromotionHandler) CreatePromotion(c *gin.Context) {
	var req promotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "MISSING_FIELD", "Invalid request body")
		return
	}

	promotion, err := req.toModel()
	if err != nil {
		utils.Error(c, 400, "INVALID_CONDITIONS", "Conditions do not match the promotion type")
		return
	}

	if err := h.promotionService.Create(c.Request.Context(), promotion); err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 201, "Promotion created", promotion)
}

// UpdatePromotion handles PUT /api/promotions/:id
func (h *PromotionHandler) UpdatePromotion(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid promotion id")
		return
	}

	var req promotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "MISSING_FIELD", "Invalid request body")
		return
	}

	promotion, err := req.toModel()
	if err != nil {
		utils.Error(c, 400, "INVALID_CONDITIONS", "Conditions do not match the promotion type")
		return
	}
	promotion.ID = id

	if err := h.promotionService.Update(c.Request.Context(), promotion); err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Promotion updated", promotion)
}

// DeletePromotion handles DELETE /api/promotions/:id
func (h *PromotionHandler) DeletePromotion(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid promotion id")
		return
	}

	if err := h.promotionService.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Promotion deleted", nil)
}

func (h *PromotionHandler) handleError(c *gin.Context, err error) {
	switch err {
	case utils.ErrPromotionNotFound:
		utils.Error(c, 404, "PROMOTION_NOT_FOUND", "Promotion not found")
	case models.ErrInvalidConditions:
		utils.Error(c, 400, "INVALID_CONDITIONS", "Conditions do not match the promotion type")
	case utils.ErrPromotionInUse:
		utils.Error(c, 409, "PROMOTION_IN_USE", "Promotion is referenced by existing sales")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
	}
}
