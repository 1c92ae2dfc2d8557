package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/operantis/backoffice-api/internal/models"
	"github.com/operantis/backoffice-api/internal/utils"
)

// DiscountRepository handles data access for discount codes.
type DiscountRepository struct {
	db *sqlx.DB
}

// NewDiscountRepository creates a new DiscountRepository.
func NewDiscountRepository(db *sqlx.DB) *DiscountRepository {
	return &DiscountRepository{db: db}
}

// GetAll returns all discounts, newest first.
func (r *DiscountRepository) GetAll() ([]models.Discount, error) {
	const q = `SELECT * FROM discounts ORDER BY created_at DESC`
	var discounts []models.Discount
	if err := r.db.Select(&discounts, q); err != nil {
		return nil, err
	}
	return discounts, nil
}

// GetByID returns a discount by id.
func (r *DiscountRepository) GetByID(id int) (*models.Discount, error) {
	const q = `SELECT * FROM discounts WHERE id = $1 LIMIT 1`
	var d models.Discount
	if err := r.db.Get(&d, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrDiscountNotFound
		}
		return nil, err
	}
	return &d, nil
}

// GetByCode returns a discount by its unique code.
func (r *DiscountRepository) GetByCode(code string) (*models.Discount, error) {
	const q = `SELECT * FROM discounts WHERE code = $1 LIMIT 1`
	var d models.Discount
	if err := r.db.Get(&d, q, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrDiscountNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Create inserts a new discount after checking code uniqueness.
func (r *DiscountRepository) Create(d *models.Discount) error {
	var exists bool
	if err := r.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM discounts WHERE code = $1)`, d.Code); err != nil {
		return err
	}
	if exists {
		return utils.ErrDuplicateCode
	}

	const q = `
        INSERT INTO discounts (code, type, value, min_purchase, start_date, end_date, max_uses, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, used_count, created_at, updated_at`

	return r.db.QueryRowx(q,
		d.Code, d.Type, d.Value, d.MinPurchase, d.StartDate, d.EndDate, d.MaxUses, d.IsActive,
	).Scan(&d.ID, &d.UsedCount, &d.CreatedAt, &d.UpdatedAt)
}

// Update updates an existing discount. Code changes re-check uniqueness
// against other rows.
func (r *DiscountRepository) Update(d *models.Discount) error {
	var exists bool
	if err := r.db.Get(&exists,
		`SELECT EXISTS(SELECT 1 FROM discounts WHERE code = $1 AND id != $2)`, d.Code, d.ID); err != nil {
		return err
	}
	if exists {
		return utils.ErrDuplicateCode
	}

	const q = `
        UPDATE discounts
        SET code = $1, type = $2, value = $3, min_purchase = $4,
            start_date = $5, end_date = $6, max_uses = $7, is_active = $8, updated_at = NOW()
        WHERE id = $9
        RETURNING updated_at`

	err := r.db.QueryRowx(q,
		d.Code, d.Type, d.Value, d.MinPurchase, d.StartDate, d.EndDate, d.MaxUses, d.IsActive, d.ID,
	).Scan(&d.UpdatedAt)
	if err == sql.ErrNoRows {
		return utils.ErrDiscountNotFound
	}
	return err
}

// Delete removes a discount unless it is referenced by sales.
func (r *DiscountRepository) Delete(id int) error {
	var refs int
	if err := r.db.Get(&refs, `SELECT COUNT(1) FROM sales WHERE discount_id = $1`, id); err != nil {
		return err
	}
	if refs > 0 {
		return utils.ErrDiscountInUse
	}

	res, err := r.db.Exec(`DELETE FROM discounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return utils.ErrDiscountNotFound
	}
	return nil
}
