package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ksndmc/flow-api/internal/models"
)

// HolidayRepository reads the static holiday calendar.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository constructs the repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// List returns holiday entries ordered by date. A non-zero year restricts
// the result to that calendar year.
func (r *HolidayRepository) List(ctx context.Context, year int) ([]models.Holiday, error) {
	query := `SELECT date, name, type FROM holidays`
	var args []interface{}
	if year > 0 {
		query += ` WHERE EXTRACT(YEAR FROM date) = $1`
		args = append(args, year)
	}
	query += ` ORDER BY date`

	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, args...); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}
