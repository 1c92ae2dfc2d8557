package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/operantis/backoffice-api/internal/models"
	"github.com/operantis/backoffice-api/internal/utils"
)

// CustomerRepository handles data access for customers. Only the point
// lookup is needed by the sale engine; full customer CRUD lives outside
// this service.
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// GetByID returns a customer by id.
func (r *CustomerRepository) GetByID(id int) (*models.Customer, error) {
	const q = `SELECT * FROM customers WHERE id = $1 LIMIT 1`
	var c models.Customer
	if err := r.db.Get(&c, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrCustomerNotFound
		}
		return nil, err
	}
	return &c, nil
}
