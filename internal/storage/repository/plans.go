package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/provaplus/checkout-provisioner/internal/models"
)

// GetPlanByID возвращает тарифный план по ID или nil, если плана нет.
func (s *Storage) GetPlanByID(ctx context.Context, id int) (*models.Plan, error) {
	const op = "storage.GetPlanByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price, is_active
			  FROM plans
			  WHERE id = $1`
	p := &models.Plan{}
	row := s.DB.QueryRowContext(ctx, query, id)
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}
