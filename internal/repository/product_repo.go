package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/operantis/backoffice-api/internal/models"
	"github.com/operantis/backoffice-api/internal/utils"
)

// ProductRepository handles data access for catalog products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetAll returns all products ordered by name.
func (r *ProductRepository) GetAll() ([]models.Product, error) {
	const q = `SELECT * FROM products ORDER BY name`
	var products []models.Product
	if err := r.db.Select(&products, q); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID returns a single product by id.
func (r *ProductRepository) GetByID(id int) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE id = $1 LIMIT 1`
	var p models.Product
	if err := r.db.Get(&p, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetBySKU returns a single product by sku.
func (r *ProductRepository) GetBySKU(sku string) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE sku = $1 LIMIT 1`
	var p models.Product
	if err := r.db.Get(&p, q, sku); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a new product. SKU uniqueness is checked up front so
// the caller gets a clean error instead of a constraint violation.
func (r *ProductRepository) Create(product *models.Product) error {
	var exists bool
	if err := r.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM products WHERE sku = $1)`, product.SKU); err != nil {
		return err
	}
	if exists {
		return utils.ErrDuplicateSKU
	}

	const q = `
        INSERT INTO products (sku, name, description, price, stock, is_active)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRowx(q,
		product.SKU,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.IsActive,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

// Update updates an existing product.
func (r *ProductRepository) Update(product *models.Product) error {
	const q = `
        UPDATE products
        SET sku = $1, name = $2, description = $3, price = $4, stock = $5, is_active = $6, updated_at = NOW()
        WHERE id = $7
        RETURNING updated_at`

	err := r.db.QueryRowx(q,
		product.SKU,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.IsActive,
		product.ID,
	).Scan(&product.UpdatedAt)
	if err == sql.ErrNoRows {
		return utils.ErrProductNotFound
	}
	return err
}

// Delete deletes a product by ID.
func (r *ProductRepository) Delete(id int) error {
	res, err := r.db.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return utils.ErrProductNotFound
	}
	return nil
}
