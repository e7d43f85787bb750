// Package validator классифицирует запрос на оформление покупки по
// текущему состоянию хранилищ: новая учётная запись, существующая или
// заблокированная. Классификация только читает; починка незаполненного
// типа учётной записи вынесена в отдельную идемпотентную операцию.
package validator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/provaplus/checkout-provisioner/internal/models"
)

// AccountReader читает профильные записи.
type AccountReader interface {
	// GetAccountByEmail возвращает учётную запись по нормализованному email или nil.
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
}

// LinkReader читает связки подписок.
type LinkReader interface {
	// FindLatestLink возвращает самую свежую связку пары (учётная запись, план) или nil.
	FindLatestLink(ctx context.Context, accountUID string, planID int) (*models.SubscriptionLink, error)
}

// AccountHealer чинит записи с незаполненным типом учётной записи.
type AccountHealer interface {
	// SetDefaultAccountType выставляет тип regular записям без типа.
	SetDefaultAccountType(ctx context.Context, uid string) (int64, error)
}

// Service реализует классификацию запроса на оформление покупки.
type Service struct {
	accounts AccountReader
	links    LinkReader
	healer   AccountHealer
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(accounts AccountReader, links LinkReader, healer AccountHealer, log *slog.Logger) *Service {
	return &Service{
		accounts: accounts,
		links:    links,
		healer:   healer,
		log:      log,
	}
}

// Classify определяет ветку оформления по нормализованному email и плану.
// Администраторам покупка запрещена безусловно — эта проверка идёт раньше
// проверки действующей подписки. Истёкшая или так и не активированная
// связка не блокирует. Любая ошибка чтения прерывает попытку до записей.
func (s *Service) Classify(ctx context.Context, emailKey string, planID int) (models.Decision, error) {
	const op = "services.validator.Classify"

	account, err := s.accounts.GetAccountByEmail(ctx, emailKey)
	if err != nil {
		return models.Decision{}, fmt.Errorf("%s: %w", op, err)
	}
	if account == nil {
		return models.Decision{Kind: models.DecisionNewAccount}, nil
	}

	if account.AccountType == models.AccountTypeAdmin {
		return models.Decision{
			Kind:        models.DecisionBlocked,
			AccountUID:  account.UID,
			AccountType: account.AccountType,
			BlockReason: models.ReasonAdminPurchaseForbidden,
		}, nil
	}

	link, err := s.links.FindLatestLink(ctx, account.UID, planID)
	if err != nil {
		return models.Decision{}, fmt.Errorf("%s: %w", op, err)
	}
	if link.ActiveAt(time.Now().UTC()) {
		return models.Decision{
			Kind:        models.DecisionBlocked,
			AccountUID:  account.UID,
			AccountType: account.AccountType,
			BlockReason: models.ReasonActivePlanExists,
		}, nil
	}

	return models.Decision{
		Kind:        models.DecisionExistingAccount,
		AccountUID:  account.UID,
		AccountType: account.AccountType,
	}, nil
}

// HealAccountType выставляет тип regular учётной записи без типа.
// Идемпотентна: на уже исправленной записи — безопасный no-op.
func (s *Service) HealAccountType(ctx context.Context, accountUID string) error {
	const op = "services.validator.HealAccountType"

	rows, err := s.healer.SetDefaultAccountType(ctx, accountUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows > 0 {
		s.log.Info("healed empty account type", slog.String("account_uid", accountUID))
	}
	return nil
}
