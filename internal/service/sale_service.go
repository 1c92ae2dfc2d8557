package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/operantis/backoffice-api/internal/config"
	"github.com/operantis/backoffice-api/internal/models"
	"github.com/operantis/backoffice-api/internal/utils"
)

// CatalogStore is the product surface the sale engine needs: point
// lookups before pricing and after commit for the low-stock check.
type CatalogStore interface {
	GetByID(id int) (*models.Product, error)
}

// SaleStore persists sales. Create must apply the sale, its items, the
// stock decrements, and the discount usage increment atomically,
// returning utils.ErrStockConflict or utils.ErrDiscountExhausted when a
// guard fails.
type SaleStore interface {
	Create(ctx context.Context, sale *models.Sale) error
	GetAll() ([]models.Sale, error)
	GetByID(id int) (*models.Sale, error)
	Delete(ctx context.Context, id int) error
}

// CustomerStore resolves the optional buyer of a sale.
type CustomerStore interface {
	GetByID(id int) (*models.Customer, error)
}

// NotificationEmitter records side-effect notifications. Callers treat
// failures as best-effort.
type NotificationEmitter interface {
	Emit(userID int, t models.NotificationType, message string) (*models.Notification, error)
}

// CreateSaleRequest is the inbound payload for recording a sale.
type CreateSaleRequest struct {
	CustomerID   *int              `json:"customerId"`
	Items        []models.LineItem `json:"items" binding:"required"`
	DiscountCode string            `json:"discountCode"`
	PromotionID  *int              `json:"promotionId"`
}

// SaleService coordinates sale creation: validation, pricing, discount
// and promotion evaluation, atomic persistence with stock decrements,
// and post-commit notifications.
type SaleService struct {
	sales         SaleStore
	catalog       CatalogStore
	customers     CustomerStore
	discounts     *DiscountService
	promotions    *PromotionService
	notifications NotificationEmitter
	cfg           config.SaleConfig
}

// NewSaleService constructs a SaleService.
func NewSaleService(
	sales SaleStore,
	catalog CatalogStore,
	customers CustomerStore,
	discounts *DiscountService,
	promotions *PromotionService,
	notifications NotificationEmitter,
	cfg config.SaleConfig,
) *SaleService {
	return &SaleService{
		sales:         sales,
		catalog:       catalog,
		customers:     customers,
		discounts:     discounts,
		promotions:    promotions,
		notifications: notifications,
		cfg:           cfg,
	}
}

// CreateSale runs the full sale workflow. Every failure before the
// store call aborts with no mutation; a failed store call rolls back
// entirely; notification failures after the commit are logged and
// swallowed.
func (s *SaleService) CreateSale(ctx context.Context, req *CreateSaleRequest, userID int) (*models.Sale, error) {
	if s.cfg.CreateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CreateTimeout)
		defer cancel()
	}

	if len(req.Items) == 0 {
		return nil, utils.ErrInvalidQuantity
	}

	// 1. Resolve customer when supplied.
	if req.CustomerID != nil {
		if _, err := s.customers.GetByID(*req.CustomerID); err != nil {
			return nil, err
		}
	}

	// 2. Resolve products, validate quantities and stock, freeze prices.
	// Each product may appear only once, otherwise the per-line stock
	// check would pass a cart whose combined quantity oversells.
	priced := make([]PricedItem, 0, len(req.Items))
	names := make(map[int]string, len(req.Items))
	skus := make(map[int]string, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, utils.ErrInvalidQuantity
		}
		if _, seen := names[item.ProductID]; seen {
			return nil, utils.ErrDuplicateProduct
		}
		product, err := s.catalog.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if item.Quantity > product.Stock {
			return nil, utils.ErrInsufficientStock
		}
		priced = append(priced, PricedItem{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
		names[product.ID] = product.Name
		skus[product.ID] = product.SKU
	}

	// 3. Subtotal over the frozen prices.
	subtotal := Subtotal(priced)

	// 4. Optional discount.
	discountAmount := decimal.Zero
	var discountID *int
	var discountCode string
	if req.DiscountCode != "" {
		discount, amount, err := s.discounts.Evaluate(ctx, req.DiscountCode, subtotal)
		if err != nil {
			return nil, err
		}
		discountAmount = amount
		discountID = &discount.ID
		discountCode = discount.Code
	}

	// 5. Optional promotion.
	promotionAmount := decimal.Zero
	var promotionID *int
	if req.PromotionID != nil {
		promotion, amount, err := s.promotions.Evaluate(ctx, *req.PromotionID, priced)
		if err != nil {
			return nil, err
		}
		promotionAmount = amount
		promotionID = &promotion.ID
	}

	// 6. Total.
	total := Total(subtotal, discountAmount, promotionAmount)

	// 7. Atomic persistence: sale + items + stock decrements (+ usage
	// increment). The store enforces the conditional decrement.
	sale := &models.Sale{
		CustomerID:      req.CustomerID,
		UserID:          userID,
		Subtotal:        subtotal,
		DiscountAmount:  discountAmount,
		PromotionAmount: promotionAmount,
		Total:           total,
		DiscountID:      discountID,
		PromotionID:     promotionID,
		Items:           make([]models.SaleItem, len(priced)),
	}
	for i, item := range priced {
		sale.Items[i] = models.SaleItem{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			ProductName: names[item.ProductID],
			ProductSKU:  skus[item.ProductID],
		}
	}

	if err := s.sales.Create(ctx, sale); err != nil {
		return nil, err
	}

	// The usage counter moved; drop the stale cache entry.
	if discountCode != "" {
		s.discounts.Invalidate(ctx, discountCode)
	}

	// 8–9. Best-effort notifications from post-commit state.
	s.emitStockAlerts(sale, userID)
	s.emitLargeSaleAlert(sale, userID)

	return sale, nil
}

// emitStockAlerts re-reads each sold product and raises a STOCK_LOW
// notification for any whose remaining stock fell below the threshold.
func (s *SaleService) emitStockAlerts(sale *models.Sale, userID int) {
	for _, item := range sale.Items {
		product, err := s.catalog.GetByID(item.ProductID)
		if err != nil {
			log.Warn().Err(err).Int("product_id", item.ProductID).Msg("post-sale stock check failed")
			continue
		}
		if product.Stock >= s.cfg.LowStockThreshold {
			continue
		}
		msg := fmt.Sprintf("Low stock for %s (%s): %d units remaining", product.Name, product.SKU, product.Stock)
		if _, err := s.notifications.Emit(userID, models.NotificationStockLow, msg); err != nil {
			log.Warn().Err(err).Int("product_id", item.ProductID).Msg("low stock notification failed")
		}
	}
}

// emitLargeSaleAlert raises a SALE notification when the total crosses
// the large-sale threshold.
func (s *SaleService) emitLargeSaleAlert(sale *models.Sale, userID int) {
	if !sale.Total.GreaterThan(s.cfg.LargeSaleThreshold) {
		return
	}
	msg := fmt.Sprintf("Large sale %s recorded: total %s", sale.SaleNumber, sale.Total.StringFixed(2))
	if _, err := s.notifications.Emit(userID, models.NotificationSale, msg); err != nil {
		log.Warn().Err(err).Str("sale_number", sale.SaleNumber).Msg("large sale notification failed")
	}
}

// GetSales returns all sales, newest first.
func (s *SaleService) GetSales() ([]models.Sale, error) {
	return s.sales.GetAll()
}

// GetSale returns one sale with its line items.
func (s *SaleService) GetSale(id int) (*models.Sale, error) {
	return s.sales.GetByID(id)
}

// DeleteSale removes a sale, restoring the stock its line items
// consumed. The restore is unconditional.
func (s *SaleService) DeleteSale(ctx context.Context, id int) error {
	return s.sales.Delete(ctx, id)
}
