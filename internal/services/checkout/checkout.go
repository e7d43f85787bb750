// Package checkout оркестрирует оформление покупки: нормализация email,
// классификация, материализация учётной записи, создание связки подписки
// и публикация события для шага сбора оплаты. Шаги идут строго вперед,
// компенсаций нет: уже выполненные записи при сбое не откатываются.
// Осиротевшая учётная запись добирается на повторе, повтор связки
// дедуплицируется ключом попытки.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/provaplus/checkout-provisioner/internal/lib/emailkey"
	"github.com/provaplus/checkout-provisioner/internal/lib/sl"
	"github.com/provaplus/checkout-provisioner/internal/metrics"
	"github.com/provaplus/checkout-provisioner/internal/models"
)

// ProvisionedEvent публикуется после создания ожидающей связки и
// запускает шаг сбора оплаты.
type ProvisionedEvent struct {
	AccountUID     string `json:"account_uid"`
	SubscriptionID int    `json:"subscription_id"`
	PlanID         int    `json:"plan_id"`
	AttemptUID     string `json:"attempt_uid"`
}

// Validator классифицирует попытку и чинит тип учётной записи.
type Validator interface {
	Classify(ctx context.Context, emailKey string, planID int) (models.Decision, error)
	HealAccountType(ctx context.Context, accountUID string) error
}

// Provisioner материализует учётную запись.
type Provisioner interface {
	ProvisionNew(ctx context.Context, req models.CheckoutRequest) (string, error)
	ProvisionExisting(ctx context.Context, accountUID string, req models.CheckoutRequest) error
}

// Linker создает ожидающую оплаты связку подписки.
type Linker interface {
	CreatePending(ctx context.Context, accountUID string, planID int, attemptUID string) (int, error)
}

// EventPublisher отправляет события оформления в брокер очередей.
type EventPublisher interface {
	Publish(routingKey string, message any) error
}

// Service реализует оркестратор оформления покупки.
type Service struct {
	validator   Validator
	provisioner Provisioner
	linker      Linker
	events      EventPublisher
	log         *slog.Logger
}

// New создает новый экземпляр Service.
func New(validator Validator, provisioner Provisioner, linker Linker, events EventPublisher, log *slog.Logger) *Service {
	return &Service{
		validator:   validator,
		provisioner: provisioner,
		linker:      linker,
		events:      events,
		log:         log,
	}
}

// Run проводит одну попытку оформления от сырого запроса до ожидающей
// оплаты связки. Блокировка — штатный исход с заполненной причиной, а не
// ошибка. Ошибка означает прерванную попытку: часть записей могла
// состояться, их доберет повтор с тем же ключом попытки.
func (s *Service) Run(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResult, error) {
	const op = "services.checkout.Run"

	start := time.Now()
	defer func() {
		metrics.CheckoutDuration.Observe(time.Since(start).Seconds())
	}()

	req.Email = emailkey.Normalize(req.Email)
	log := s.log.With(
		slog.String("attempt_uid", req.AttemptUID),
		slog.Int("plan_id", req.PlanID),
	)

	decision, err := s.validator.Classify(ctx, req.Email, req.PlanID)
	if err != nil {
		metrics.CheckoutAttempts.WithLabelValues(metrics.OutcomeAborted).Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if decision.Kind == models.DecisionBlocked {
		log.Info("checkout blocked", slog.String("reason", decision.BlockReason))
		metrics.CheckoutAttempts.WithLabelValues(metrics.OutcomeBlocked).Inc()
		return &models.CheckoutResult{
			Success:    false,
			AccountUID: decision.AccountUID,
			Reason:     decision.BlockReason,
		}, nil
	}

	accountUID, err := s.provision(ctx, decision, req, log)
	if err != nil {
		metrics.CheckoutAttempts.WithLabelValues(metrics.OutcomeAborted).Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	subscriptionID, err := s.linker.CreatePending(ctx, accountUID, req.PlanID, req.AttemptUID)
	if err != nil {
		metrics.CheckoutAttempts.WithLabelValues(metrics.OutcomeAborted).Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publishProvisioned(ProvisionedEvent{
		AccountUID:     accountUID,
		SubscriptionID: subscriptionID,
		PlanID:         req.PlanID,
		AttemptUID:     req.AttemptUID,
	}, log)

	log.Info("checkout provisioned",
		slog.String("account_uid", accountUID),
		slog.Int("subscription_id", subscriptionID))
	metrics.CheckoutAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()

	return &models.CheckoutResult{
		Success:        true,
		AccountUID:     accountUID,
		SubscriptionID: subscriptionID,
	}, nil
}

func (s *Service) provision(ctx context.Context, decision models.Decision, req models.CheckoutRequest, log *slog.Logger) (string, error) {
	switch decision.Kind {
	case models.DecisionNewAccount:
		return s.provisioner.ProvisionNew(ctx, req)
	case models.DecisionExistingAccount:
		if decision.AccountType == "" {
			// починка не обязана успеть: запись останется без типа до следующей попытки
			if err := s.validator.HealAccountType(ctx, decision.AccountUID); err != nil {
				log.Warn("failed to heal account type", sl.Err(err))
			}
		}
		if err := s.provisioner.ProvisionExisting(ctx, decision.AccountUID, req); err != nil {
			return "", err
		}
		return decision.AccountUID, nil
	default:
		return "", fmt.Errorf("unknown decision kind: %q", decision.Kind)
	}
}

// publishProvisioned отправляет событие шагу сбора оплаты. Сбой
// публикации не прерывает оформление: связка уже создана, событие
// доберет сверка очереди по ожидающим связкам.
func (s *Service) publishProvisioned(event ProvisionedEvent, log *slog.Logger) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish("provisioned", event); err != nil {
		log.Warn("failed to publish provisioned event", sl.Err(err))
	}
}
