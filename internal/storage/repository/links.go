package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/provaplus/checkout-provisioner/internal/models"
)

// FindLatestLink возвращает самую свежую связку для пары
// (учётная запись, план) или nil, если связок нет.
// Действует связка или нет, решает вызывающая сторона по
// models.SubscriptionLink.ActiveAt.
func (s *Storage) FindLatestLink(ctx context.Context, accountUID string, planID int) (*models.SubscriptionLink, error) {
	const op = "storage.FindLatestLink"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, account_uid, plan_id, value_snapshot, status, expiration, attempt_uid, created_at
			  FROM subscription_links
			  WHERE account_uid = $1 AND plan_id = $2
			  ORDER BY created_at DESC, id DESC
			  LIMIT 1`
	l := &models.SubscriptionLink{}
	row := s.DB.QueryRowContext(ctx, query, accountUID, planID)

	var expiration sql.NullTime
	if err := row.Scan(&l.ID, &l.AccountUID, &l.PlanID, &l.ValueSnapshot,
		&l.Status, &expiration, &l.AttemptUID, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if expiration.Valid {
		l.Expiration = &expiration.Time
	}
	return l, nil
}

// InsertLink сохраняет ожидающую связку и возвращает её ID.
// Запись идемпотентна по ключу попытки: повтор той же попытки
// возвращает ID уже созданной связки вместо второй ожидающей строки.
func (s *Storage) InsertLink(ctx context.Context, link models.SubscriptionLink) (int, error) {
	const op = "storage.InsertLink"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscription_links (account_uid, plan_id, value_snapshot, status, expiration, attempt_uid)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (attempt_uid) DO UPDATE SET attempt_uid = EXCLUDED.attempt_uid
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		link.AccountUID, link.PlanID, link.ValueSnapshot,
		link.Status, link.Expiration, link.AttemptUID).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}
