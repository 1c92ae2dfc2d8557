package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/operantis/backoffice-api/internal/models"
	"github.com/operantis/backoffice-api/internal/utils"
)

// PromotionRepository handles data access for promotions. The jsonb
// conditions column is parsed into the typed union on every read so
// malformed payloads surface here, not during evaluation.
type PromotionRepository struct {
	db *sqlx.DB
}

// NewPromotionRepository creates a new PromotionRepository.
func NewPromotionRepository(db *sqlx.DB) *PromotionRepository {
	return &PromotionRepository{db: db}
}

// promotionRow is the scan target; conditions arrive as raw bytes.
type promotionRow struct {
	models.Promotion
	Conditions []byte `db:"conditions"`
}

func (row *promotionRow) toPromotion() (*models.Promotion, error) {
	p := row.Promotion
	p.RawConditions = json.RawMessage(row.Conditions)
	conditions, err := models.ParseConditions(p.Type, p.RawConditions)
	if err != nil {
		return nil, err
	}
	p.Conditions = conditions
	return &p, nil
}

// GetAll returns all promotions, newest first.
func (r *PromotionRepository) GetAll() ([]models.Promotion, error) {
	const q = `SELECT * FROM promotions ORDER BY created_at DESC`
	var rows []promotionRow
	if err := r.db.Select(&rows, q); err != nil {
		return nil, err
	}
	promotions := make([]models.Promotion, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toPromotion()
		if err != nil {
			return nil, err
		}
		promotions = append(promotions, *p)
	}
	return promotions, nil
}

// GetByID returns a promotion by id.
func (r *PromotionRepository) GetByID(id int) (*models.Promotion, error) {
	const q = `SELECT * FROM promotions WHERE id = $1 LIMIT 1`
	var row promotionRow
	if err := r.db.Get(&row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrPromotionNotFound
		}
		return nil, err
	}
	return row.toPromotion()
}

// Create inserts a new promotion. Conditions must already be validated
// (models.ParseConditions) by the caller.
func (r *PromotionRepository) Create(p *models.Promotion) error {
	raw, err := json.Marshal(p.Conditions)
	if err != nil {
		return err
	}
	p.RawConditions = raw

	const q = `
        INSERT INTO promotions (name, description, type, conditions, start_date, end_date, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRowx(q,
		p.Name, p.Description, p.Type, raw, p.StartDate, p.EndDate, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// Update updates an existing promotion.
func (r *PromotionRepository) Update(p *models.Promotion) error {
	raw, err := json.Marshal(p.Conditions)
	if err != nil {
		return err
	}
	p.RawConditions = raw

	const q = `
        UPDATE promotions
        SET name = $1, description = $2, type = $3, conditions = $4,
            start_date = $5, end_date = $6, is_active = $7, updated_at = NOW()
        WHERE id = $8
        RETURNING updated_at`

	err = r.db.QueryRowx(q,
		p.Name, p.Description, p.Type, raw, p.StartDate, p.EndDate, p.IsActive, p.ID,
	).Scan(&p.UpdatedAt)
	if err == sql.ErrNoRows {
		return utils.ErrPromotionNotFound
	}
	return err
}

// Delete removes a promotion unless it is referenced by sales.
func (r *PromotionRepository) Delete(id int) error {
	var refs int
	if err := r.db.Get(&refs, `SELECT COUNT(1) FROM sales WHERE promotion_id = $1`, id); err != nil {
		return err
	}
	if refs > 0 {
		return utils.ErrPromotionInUse
	}

	res, err := r.db.Exec(`DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return utils.ErrPromotionNotFound
	}
	return nil
}
