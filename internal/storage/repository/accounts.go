package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/provaplus/checkout-provisioner/internal/models"
)

// GetAccountByEmail возвращает учётную запись по нормализованному email
// или nil, если такой записи нет.
func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.GetAccountByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, name, phone, tax_id, account_type, disabled
			  FROM accounts
			  WHERE email = $1`
	return s.scanAccount(ctx, op, query, email)
}

// GetAccountByUID возвращает учётную запись по её UID
// или nil, если такой записи нет.
func (s *Storage) GetAccountByUID(ctx context.Context, uid string) (*models.Account, error) {
	const op = "storage.GetAccountByUID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, name, phone, tax_id, account_type, disabled
			  FROM accounts
			  WHERE uid = $1`
	return s.scanAccount(ctx, op, query, uid)
}

func (s *Storage) scanAccount(ctx context.Context, op, query string, arg any) (*models.Account, error) {
	a := &models.Account{}
	row := s.DB.QueryRowContext(ctx, query, arg)

	var name, phone, taxID, accountType sql.NullString
	if err := row.Scan(&a.UID, &a.Email, &name, &phone, &taxID, &accountType, &a.Disabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.Name = name.String
	a.Phone = phone.String
	a.TaxID = taxID.String
	a.AccountType = accountType.String
	return a, nil
}

// InsertAccount сохраняет новую профильную запись с UID,
// выданным провайдером аутентификации.
func (s *Storage) InsertAccount(ctx context.Context, account models.Account) error {
	const op = "storage.InsertAccount"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO accounts (uid, email, name, phone, tax_id, account_type, disabled)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := s.DB.ExecContext(ctx, query,
		account.UID, account.Email, account.Name, account.Phone,
		account.TaxID, account.AccountType, account.Disabled); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateProfile обновляет изменяемые профильные поля по UID.
// Тип учётной записи не трогает: этот путь не может
// ни повысить, ни понизить привилегии.
func (s *Storage) UpdateProfile(ctx context.Context, uid, name, phone, taxID string) (int64, error) {
	const op = "storage.UpdateProfile"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET name = $1, phone = $2, tax_id = $3
			  WHERE uid = $4`
	result, err := s.DB.ExecContext(ctx, query, name, phone, taxID, uid)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}

// UpdateProvisionedProfile обновляет профильные поля записи-заготовки,
// созданной автоматикой на стороне провайдера, и принудительно
// выставляет тип regular — защита от подмены привилегий в метаданных.
func (s *Storage) UpdateProvisionedProfile(ctx context.Context, uid, name, phone, taxID string) (int64, error) {
	const op = "storage.UpdateProvisionedProfile"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET name = $1, phone = $2, tax_id = $3, account_type = $4
			  WHERE uid = $5`
	result, err := s.DB.ExecContext(ctx, query, name, phone, taxID, models.AccountTypeRegular, uid)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}

// SetDefaultAccountType выставляет тип regular записям без типа.
// Идемпотентная починка: повторные вызовы на уже исправленной записи
// ничего не меняют.
func (s *Storage) SetDefaultAccountType(ctx context.Context, uid string) (int64, error) {
	const op = "storage.SetDefaultAccountType"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET account_type = $1
			  WHERE uid = $2 AND (account_type IS NULL OR account_type = '')`
	result, err := s.DB.ExecContext(ctx, query, models.AccountTypeRegular, uid)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}
