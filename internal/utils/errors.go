package utils

import "errors"

// Common application errors used across services.
var (
	ErrProductNotFound      = errors.New("PRODUCT_NOT_FOUND")
	ErrCustomerNotFound     = errors.New("CUSTOMER_NOT_FOUND")
	ErrSaleNotFound         = errors.New("SALE_NOT_FOUND")
	ErrUserNotFound         = errors.New("USER_NOT_FOUND")
	ErrNotificationNotFound = errors.New("NOTIFICATION_NOT_FOUND")

	ErrInvalidQuantity    = errors.New("INVALID_QUANTITY")
	ErrDuplicateProduct   = errors.New("DUPLICATE_PRODUCT")
	ErrInsufficientStock  = errors.New("INSUFFICIENT_STOCK")
	ErrStockConflict      = errors.New("STOCK_CONFLICT")
	ErrSaleNumberConflict = errors.New("SALE_NUMBER_CONFLICT")

	ErrDiscountNotFound     = errors.New("DISCOUNT_NOT_FOUND")
	ErrDiscountInactive     = errors.New("DISCOUNT_INACTIVE")
	ErrDiscountOutOfWindow  = errors.New("DISCOUNT_OUT_OF_WINDOW")
	ErrDiscountBelowMinimum = errors.New("DISCOUNT_BELOW_MINIMUM")
	ErrDiscountExhausted    = errors.New("DISCOUNT_EXHAUSTED")
	ErrDuplicateCode        = errors.New("DUPLICATE_CODE")
	ErrDiscountInUse        = errors.New("DISCOUNT_IN_USE")
	ErrInvalidDiscountValue = errors.New("INVALID_DISCOUNT_VALUE")

	ErrPromotionNotFound      = errors.New("PROMOTION_NOT_FOUND")
	ErrPromotionInactive      = errors.New("PROMOTION_INACTIVE")
	ErrPromotionOutOfWindow   = errors.New("PROMOTION_OUT_OF_WINDOW")
	ErrPromotionNotApplicable = errors.New("PROMOTION_NOT_APPLICABLE")
	ErrPromotionInUse         = errors.New("PROMOTION_IN_USE")

	ErrDuplicateSKU       = errors.New("DUPLICATE_SKU")
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
	ErrAccountInactive    = errors.New("ACCOUNT_INACTIVE")
)
