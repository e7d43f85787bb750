package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provaplus/checkout-provisioner/internal/models"
)

func TestStorage_GetAccountByEmail(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		wantFound bool
		wantType  string
		setup     func(t *testing.T, factory *TestDataFactory)
	}{
		{
			name:      "existing account",
			email:     "ana@test.com",
			wantFound: true,
			wantType:  models.AccountTypeRegular,
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateAccount(t, uuid.New().String(), "ana@test.com", "Ana", models.AccountTypeRegular)
			},
		},
		{
			name:      "account without type scans as empty string",
			email:     "untyped@test.com",
			wantFound: true,
			wantType:  "",
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateAccount(t, uuid.New().String(), "untyped@test.com", "Ana", "")
			},
		},
		{
			name:      "missing account returns nil without error",
			email:     "nobody@test.com",
			wantFound: false,
			setup:     func(_ *testing.T, _ *TestDataFactory) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			tt.setup(t, factory)

			got, err := storage.GetAccountByEmail(context.Background(), tt.email)
			require.NoError(t, err)

			if !tt.wantFound {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.email, got.Email)
			assert.Equal(t, tt.wantType, got.AccountType)
		})
	}
}

func TestStorage_InsertAndUpdateAccount(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	uid := uuid.New().String()
	err := storage.InsertAccount(context.Background(), models.Account{
		UID:         uid,
		Email:       "ana@test.com",
		Name:        "Ana",
		Phone:       "+55 11 91234-5678",
		TaxID:       "123.456.789-00",
		AccountType: models.AccountTypeRegular,
	})
	require.NoError(t, err)

	rows, err := storage.UpdateProfile(context.Background(), uid, "Ana Silva", "+55 11 90000-0000", "123.456.789-00")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	got, err := storage.GetAccountByUID(context.Background(), uid)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ana Silva", got.Name)
	// UpdateProfile не трогает тип учётной записи
	assert.Equal(t, models.AccountTypeRegular, got.AccountType)
}

func TestStorage_UpdateProvisionedProfile_ForcesRegular(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	uid := uuid.New().String()
	// Заготовка от автоматики провайдера: тип подсунут в метаданных
	factory.CreateAccount(t, uid, "ana@test.com", "", models.AccountTypeAdmin)

	rows, err := storage.UpdateProvisionedProfile(context.Background(), uid, "Ana", "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	got, err := storage.GetAccountByUID(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, models.AccountTypeRegular, got.AccountType)
}

func TestStorage_SetDefaultAccountType_Idempotent(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	uid := uuid.New().String()
	factory.CreateAccount(t, uid, "untyped@test.com", "Ana", "")

	rows, err := storage.SetDefaultAccountType(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// Повторная починка — безопасный no-op
	rows, err = storage.SetDefaultAccountType(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	adminUID := uuid.New().String()
	factory.CreateAccount(t, adminUID, "admin@test.com", "Root", models.AccountTypeAdmin)

	rows, err = storage.SetDefaultAccountType(context.Background(), adminUID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows, "healing must not overwrite an existing type")
}

func TestStorage_FindLatestLink(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	uid := uuid.New().String()
	factory.CreateAccount(t, uid, "ana@test.com", "Ana", models.AccountTypeRegular)
	planID := factory.CreatePlan(t, "Premium", 59.90, true)

	got, err := storage.FindLatestLink(context.Background(), uid, planID)
	require.NoError(t, err)
	assert.Nil(t, got)

	expired := time.Now().UTC().Add(-24 * time.Hour)
	factory.CreateLink(t, uid, planID, 49.90, true, &expired, uuid.New().String())
	future := time.Now().UTC().Add(24 * time.Hour)
	lastID := factory.CreateLink(t, uid, planID, 59.90, true, &future, uuid.New().String())

	got, err = storage.FindLatestLink(context.Background(), uid, planID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, lastID, got.ID)
	assert.Equal(t, 59.90, got.ValueSnapshot)
	assert.True(t, got.ActiveAt(time.Now().UTC()))
}

func TestStorage_InsertLink_IdempotentByAttempt(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	uid := uuid.New().String()
	factory.CreateAccount(t, uid, "ana@test.com", "Ana", models.AccountTypeRegular)
	planID := factory.CreatePlan(t, "Premium", 59.90, true)

	attempt := uuid.New().String()
	link := models.SubscriptionLink{
		AccountUID:    uid,
		PlanID:        planID,
		ValueSnapshot: 59.90,
		Status:        false,
		AttemptUID:    attempt,
	}

	firstID, err := storage.InsertLink(context.Background(), link)
	require.NoError(t, err)

	// Повтор той же попытки не создаёт вторую ожидающую строку
	secondID, err := storage.InsertLink(context.Background(), link)
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	var count int
	err = storage.DB.QueryRow(`SELECT COUNT(*) FROM subscription_links WHERE attempt_uid = $1`, attempt).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStorage_GetPlanByID(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	planID := factory.CreatePlan(t, "Premium", 59.90, true)

	got, err := storage.GetPlanByID(context.Background(), planID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Premium", got.Name)
	assert.Equal(t, 59.90, got.Price)
	assert.True(t, got.IsActive)

	missing, err := storage.GetPlanByID(context.Background(), planID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
