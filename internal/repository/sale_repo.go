package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/operantis/backoffice-api/internal/models"
	"github.com/operantis/backoffice-api/internal/utils"
)

// SaleRepository handles data access for sales. Create and Delete are
// the only multi-statement operations in the system and both run as a
// single database transaction.
type SaleRepository struct {
	db *sqlx.DB
}

// NewSaleRepository creates a new SaleRepository.
func NewSaleRepository(db *sqlx.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// Create persists the sale, its line items, the matching stock
// decrements, and the discount usage increment as one atomic unit.
//
// Stock is decremented conditionally (stock >= quantity) so two
// concurrent sales cannot drive it negative; a zero-row decrement
// aborts the whole transaction with ErrStockConflict. Likewise the
// usage increment is guarded by max_uses so a code cannot be redeemed
// past its cap under concurrent load.
//
// Sale numbers come from a MAX+1 scan, so two transactions racing on
// the same day can pick the same number; the loser hits the unique
// index on sale_number and the whole transaction is re-run with a
// fresh number.
func (r *SaleRepository) Create(ctx context.Context, sale *models.Sale) error {
	return retrySaleNumberCollision(maxCreateAttempts, func() error {
		return r.createOnce(ctx, sale)
	})
}

const maxCreateAttempts = 3

// retrySaleNumberCollision re-runs fn while it fails on a sale-number
// collision. Exhausting the attempts returns ErrSaleNumberConflict so
// the caller sees a retryable conflict instead of a raw driver error.
func retrySaleNumberCollision(attempts int, fn func() error) error {
	for i := 0; i < attempts; i++ {
		err := fn()
		if !isSaleNumberCollision(err) {
			return err
		}
	}
	return utils.ErrSaleNumberConflict
}

// isSaleNumberCollision reports whether err is a unique violation on
// the sales.sale_number index.
func isSaleNumberCollision(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" && pqErr.Constraint == "sales_sale_number_key"
}

func (r *SaleRepository) createOnce(ctx context.Context, sale *models.Sale) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	saleNumber, err := nextSaleNumber(tx)
	if err != nil {
		return err
	}
	sale.SaleNumber = saleNumber

	const insertSale = `
        INSERT INTO sales (
            sale_number, customer_id, user_id, subtotal,
            discount_amount, promotion_amount, total, discount_id, promotion_id
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at`

	err = tx.QueryRowxContext(ctx, insertSale,
		sale.SaleNumber, sale.CustomerID, sale.UserID, sale.Subtotal,
		sale.DiscountAmount, sale.PromotionAmount, sale.Total, sale.DiscountID, sale.PromotionID,
	).Scan(&sale.ID, &sale.CreatedAt)
	if err != nil {
		return err
	}

	const insertItem = `
        INSERT INTO sale_items (sale_id, product_id, quantity, unit_price)
        VALUES ($1, $2, $3, $4)
        RETURNING id`

	const decrementStock = `
        UPDATE products SET stock = stock - $2, updated_at = NOW()
        WHERE id = $1 AND stock >= $2`

	for i := range sale.Items {
		item := &sale.Items[i]
		item.SaleID = sale.ID

		if err := tx.QueryRowxContext(ctx, insertItem,
			item.SaleID, item.ProductID, item.Quantity, item.UnitPrice,
		).Scan(&item.ID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, decrementStock, item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			// A concurrent sale consumed the stock between validation
			// and commit.
			return utils.ErrStockConflict
		}
	}

	if sale.DiscountID != nil {
		const incrementUsage = `
            UPDATE discounts SET used_count = used_count + 1, updated_at = NOW()
            WHERE id = $1 AND (max_uses IS NULL OR used_count < max_uses)`
		res, err := tx.ExecContext(ctx, incrementUsage, *sale.DiscountID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return utils.ErrDiscountExhausted
		}
	}

	return tx.Commit()
}

// nextSaleNumber computes the next SL-YYYYMMDD-NNNNNN number for today
// inside the given transaction. The date comes from the database so
// application and store never disagree on the day boundary.
func nextSaleNumber(tx *sqlx.Tx) (string, error) {
	const seqQ = `
        SELECT COALESCE(MAX(
            CAST(SUBSTRING(sale_number FROM 13) AS INT)
        ), 0) + 1
        FROM sales
        WHERE sale_number LIKE 'SL-' || TO_CHAR(NOW(), 'YYYYMMDD') || '-%'`

	var next int
	if err := tx.Get(&next, seqQ); err != nil {
		return "", err
	}

	var ymd string
	if err := tx.Get(&ymd, `SELECT TO_CHAR(NOW(), 'YYYYMMDD')`); err != nil {
		return "", err
	}
	return fmt.Sprintf("SL-%s-%06d", ymd, next), nil
}

// GetAll returns all sales, newest first, with their line items.
func (r *SaleRepository) GetAll() ([]models.Sale, error) {
	const q = `SELECT * FROM sales ORDER BY created_at DESC`
	var sales []models.Sale
	if err := r.db.Select(&sales, q); err != nil {
		return nil, err
	}
	for i := range sales {
		items, err := r.getItems(sales[i].ID)
		if err != nil {
			return nil, err
		}
		sales[i].Items = items
	}
	return sales, nil
}

// GetByID returns a sale with its line items in creation order.
func (r *SaleRepository) GetByID(id int) (*models.Sale, error) {
	const q = `SELECT * FROM sales WHERE id = $1 LIMIT 1`
	var s models.Sale
	if err := r.db.Get(&s, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrSaleNotFound
		}
		return nil, err
	}
	items, err := r.getItems(s.ID)
	if err != nil {
		return nil, err
	}
	s.Items = items
	return &s, nil
}

// getItems loads the line items of a sale with product expansions.
func (r *SaleRepository) getItems(saleID int) ([]models.SaleItem, error) {
	const q = `
        SELECT si.id, si.sale_id, si.product_id, si.quantity, si.unit_price,
               p.name AS product_name, p.sku AS product_sku
        FROM sale_items si
        JOIN products p ON si.product_id = p.id
        WHERE si.sale_id = $1
        ORDER BY si.id`

	var items []models.SaleItem
	if err := r.db.Select(&items, q, saleID); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete restores the stock consumed by the sale's line items and then
// removes the sale (items cascade), all in one transaction. The stock
// restore is unconditional.
func (r *SaleRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var items []models.SaleItem
	const itemsQ = `SELECT id, sale_id, product_id, quantity, unit_price FROM sale_items WHERE sale_id = $1`
	if err := tx.SelectContext(ctx, &items, itemsQ, id); err != nil {
		return err
	}

	const restoreStock = `UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, restoreStock, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return utils.ErrSaleNotFound
	}

	return tx.Commit()
}
