// Package models содержит доменные структуры ядра оформления покупки:
// учётную запись, тарифный план и связку подписки,
// а также типы для классификации запроса и результата оформления.
package models

// Типы учётных записей. Путь оформления покупки никогда не назначает
// AccountTypeAdmin — только читает его.
const (
	AccountTypeRegular            = "regular"
	AccountTypeAdmin              = "admin"
	AccountTypeInstitutionalAdmin = "institutional-admin"
)

// Account представляет учётную запись пользователя платформы:
// идентификатор из провайдера аутентификации плюс профильные данные.
// На один нормализованный email существует ровно одна запись.
type Account struct {
	UID         string // Идентификатор, выданный провайдером аутентификации
	Email       string // Электронная почта, хранится в нормализованном виде
	Name        string // Имя пользователя
	Phone       string // Телефон
	TaxID       string // Налоговый идентификатор (CPF)
	AccountType string // Тип учётной записи: regular, admin или institutional-admin
	Disabled    bool   // Признак заблокированной учётной записи
}
