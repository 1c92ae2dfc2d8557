package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/operantis/backoffice-api/internal/models"
	"github.com/operantis/backoffice-api/internal/repository"
	"github.com/operantis/backoffice-api/internal/utils"
)

// ProductHandler handles catalog HTTP endpoints.
type ProductHandler struct {
	productRepo *repository.ProductRepository
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(productRepo *repository.ProductRepository) *ProductHandler {
	return &ProductHandler{productRepo: productRepo}
}

type productRequest struct {
	SKU         string          `json:"sku" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsActive    *bool           `json:"isActive"`
}

// GetProducts handles GET /api/products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	products, err := h.productRepo.GetAll()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
		return
	}
	utils.Success(c, 200, "Products retrieved", products)
}

// GetProduct handles GET /api/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid product id")
		return
	}

	product, err := h.productRepo.GetByID(id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Product retrieved", product)
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "MISSING_FIELD", "Invalid request body")
		return
	}
	if req.Price.IsNegative() || req.Stock < 0 {
		utils.Error(c, 400, "INVALID_VALUE", "Price and stock must not be negative")
		return
	}

	product := &models.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		IsActive:    true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.productRepo.Create(product); err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 201, "Product created", product)
}

// UpdateProduct handles PUT /api/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid product id")
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "MISSING_FIELD", "Invalid request body")
		return
	}
	if req.Price.IsNegative() || req.Stock < 0 {
		utils.Error(c, 400, "INVALID_VALUE", "Price and stock must not be negative")
		return
	}

	product, err := h.productRepo.GetByID(id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	product.SKU = req.SKU
	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.Stock = req.Stock
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.productRepo.Update(product); err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Product updated", product)
}

// DeleteProduct handles DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid product id")
		return
	}

	if err := h.productRepo.Delete(id); err != nil {
		h.handleError(c, err)
		return
	}
	utils.Success(c, 200, "Product deleted", nil)
}

func (h *ProductHandler) handleError(c *gin.Context, err error) {
	switch err {
	case utils.ErrProductNotFound:
		utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
	case utils.ErrDuplicateSKU:
		utils.Error(c, 400, "DUPLICATE_SKU", "SKU already exists")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
	}
}
