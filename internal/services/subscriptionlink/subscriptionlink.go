// Package subscriptionlink создает ожидающую оплаты связку учётной
// записи с тарифным планом. Цена плана снимается в момент создания
// связки и дальше живет в ней независимо от изменений тарифа.
package subscriptionlink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/provaplus/checkout-provisioner/internal/lib/sl"
	"github.com/provaplus/checkout-provisioner/internal/models"
)

const planCacheTTL = time.Hour

var (
	// ErrPlanNotFound возвращается, когда запрошенный план отсутствует.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrPlanInactive возвращается, когда план снят с продажи.
	ErrPlanInactive = errors.New("plan is not active")
)

// PlanReader читает тарифные планы.
type PlanReader interface {
	GetPlanByID(ctx context.Context, id int) (*models.Plan, error)
}

// LinkWriter пишет связки подписок.
type LinkWriter interface {
	InsertLink(ctx context.Context, link models.SubscriptionLink) (int, error)
}

// Cache описывает кеш тарифных планов.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
}

// Service реализует создание связок подписок.
type Service struct {
	plans PlanReader
	links LinkWriter
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(plans PlanReader, links LinkWriter, cache Cache, log *slog.Logger) *Service {
	return &Service{
		plans: plans,
		links: links,
		cache: cache,
		log:   log,
	}
}

// CreatePending создает связку в состоянии "ожидает оплаты": без срока
// действия, с ценой плана на момент попытки. Повторная вставка с тем же
// ключом попытки возвращает id уже созданной связки. Сбой кеша не
// прерывает оформление, план дочитывается из хранилища.
func (s *Service) CreatePending(ctx context.Context, accountUID string, planID int, attemptUID string) (int, error) {
	const op = "services.subscriptionlink.CreatePending"

	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if plan == nil {
		return 0, fmt.Errorf("%s: %w", op, ErrPlanNotFound)
	}
	if !plan.IsActive {
		return 0, fmt.Errorf("%s: %w", op, ErrPlanInactive)
	}

	link := models.SubscriptionLink{
		AccountUID:    accountUID,
		PlanID:        planID,
		ValueSnapshot: plan.Price,
		Status:        false,
		Expiration:    nil,
		AttemptUID:    attemptUID,
	}
	id, err := s.links.InsertLink(ctx, link)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created pending subscription link",
		slog.Int("subscription_id", id),
		slog.String("account_uid", accountUID),
		slog.Int("plan_id", planID))
	return id, nil
}

func (s *Service) loadPlan(ctx context.Context, planID int) (*models.Plan, error) {
	cacheKey := fmt.Sprintf("plan:%d", planID)

	var cached *models.Plan
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read plan from cache", sl.Err(err))
	}
	if found && cached != nil {
		return cached, nil
	}

	plan, err := s.plans.GetPlanByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		if err := s.cache.Set(cacheKey, plan, planCacheTTL); err != nil {
			s.log.Warn("failed to cache plan", sl.Err(err))
		}
	}
	return plan, nil
}
