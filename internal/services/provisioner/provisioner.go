// Package provisioner материализует учётную запись в провайдере
// аутентификации и профильном хранилище. Учётные записи не удаляются
// и не откатываются: осиротевшая в провайдере запись добирается на
// повторной попытке через ветку "уже зарегистрирован".
package provisioner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/provaplus/checkout-provisioner/internal/identity"
	"github.com/provaplus/checkout-provisioner/internal/lib/sl"
	"github.com/provaplus/checkout-provisioner/internal/metrics"
	"github.com/provaplus/checkout-provisioner/internal/models"
)

var (
	// ErrPasswordRequired возвращается на попытке создать учётную запись без пароля.
	ErrPasswordRequired = errors.New("password is required for a new account")
	// ErrIdentityMismatch возвращается, когда email занят в провайдере,
	// а подтвердить владение им предъявленными данными не удалось.
	ErrIdentityMismatch = errors.New("identity already exists and credentials do not match")
)

// IdentityProvider описывает операции провайдера аутентификации.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, password string, metadata map[string]any) (string, error)
	SignIn(ctx context.Context, email, password string) (string, string, error)
	SignOut(ctx context.Context, accessToken string) error
	LookupByEmail(ctx context.Context, email string) (string, bool, error)
}

// AccountRepository описывает операции профильного хранилища.
type AccountRepository interface {
	GetAccountByUID(ctx context.Context, uid string) (*models.Account, error)
	InsertAccount(ctx context.Context, account models.Account) error
	UpdateProfile(ctx context.Context, uid, name, phone, taxID string) (int64, error)
	UpdateProvisionedProfile(ctx context.Context, uid, name, phone, taxID string) (int64, error)
}

// Service реализует материализацию учётных записей.
type Service struct {
	identity IdentityProvider
	accounts AccountRepository
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(identityProvider IdentityProvider, accounts AccountRepository, log *slog.Logger) *Service {
	return &Service{
		identity: identityProvider,
		accounts: accounts,
		log:      log,
	}
}

// ProvisionNew создает учётную запись в провайдере и профильную запись
// в хранилище. Если email уже занят в провайдере, принадлежность
// подтверждается и оформление продолжается с существующим uid.
// Профильная запись могла быть создана триггером провайдера раньше нас,
// поэтому перед вставкой хранилище перепроверяется по uid.
func (s *Service) ProvisionNew(ctx context.Context, req models.CheckoutRequest) (string, error) {
	const op = "services.provisioner.ProvisionNew"

	if req.Password == "" {
		return "", fmt.Errorf("%s: %w", op, ErrPasswordRequired)
	}

	uid, err := s.identity.CreateAccount(ctx, req.Email, req.Password, map[string]any{
		"name": req.Name,
	})
	if errors.Is(err, identity.ErrAlreadyRegistered) {
		s.log.Info("email already registered in identity provider, resolving owner",
			slog.String("email", req.Email))
		uid, err = s.resolveExistingIdentity(ctx, req.Email, req.Password)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	} else if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	existing, err := s.accounts.GetAccountByUID(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil {
		if _, err := s.accounts.UpdateProvisionedProfile(ctx, uid, req.Name, req.Phone, req.TaxID); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		return uid, nil
	}

	account := models.Account{
		UID:         uid,
		Email:       req.Email,
		Name:        req.Name,
		Phone:       req.Phone,
		TaxID:       req.TaxID,
		AccountType: models.AccountTypeRegular,
	}
	if err := s.accounts.InsertAccount(ctx, account); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// resolveExistingIdentity находит uid занятого email. Предпочтительный
// путь — административный поиск без проверки пароля. Если он недоступен,
// принадлежность подтверждается пробным входом с немедленным выходом.
// Неверный пароль означает чужую учётную запись: оформление обязано
// упасть громко, а не продолжиться под чужим uid.
func (s *Service) resolveExistingIdentity(ctx context.Context, email, password string) (string, error) {
	const op = "services.provisioner.resolveExistingIdentity"

	uid, found, err := s.identity.LookupByEmail(ctx, email)
	if err != nil {
		s.log.Warn("admin lookup failed, falling back to sign-in probe", sl.Err(err))
	}
	if found {
		metrics.OrphanRecoveries.Inc()
		return uid, nil
	}

	uid, accessToken, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return "", fmt.Errorf("%s: %w", op, ErrIdentityMismatch)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.identity.SignOut(ctx, accessToken); err != nil {
		s.log.Warn("failed to sign out probe session", sl.Err(err))
	}
	metrics.OrphanRecoveries.Inc()
	return uid, nil
}

// ProvisionExisting обновляет профиль существующей учётной записи
// данными попытки. Тип учётной записи не трогается.
func (s *Service) ProvisionExisting(ctx context.Context, accountUID string, req models.CheckoutRequest) error {
	const op = "services.provisioner.ProvisionExisting"

	rows, err := s.accounts.UpdateProfile(ctx, accountUID, req.Name, req.Phone, req.TaxID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: account %s not found", op, accountUID)
	}
	return nil
}
