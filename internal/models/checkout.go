package models

// Причины, по которым оформление покупки блокируется до каких-либо записей.
const (
	// ReasonAdminPurchaseForbidden — администраторам покупка планов запрещена.
	ReasonAdminPurchaseForbidden = "admin-purchase-forbidden"
	// ReasonActivePlanExists — у учётной записи уже есть действующая подписка на этот план.
	ReasonActivePlanExists = "active-plan-exists"
)

// Виды классификации запроса на оформление покупки.
const (
	DecisionNewAccount      = "new-account"
	DecisionExistingAccount = "existing-account"
	DecisionBlocked         = "blocked"
)

// Decision — результат классификации запроса валидатором.
// Kind определяет ветку провижининга; AccountUID заполнен для
// существующей или заблокированной учётной записи.
type Decision struct {
	Kind        string // Один из Decision*-видов
	AccountUID  string // UID найденной учётной записи, если есть
	AccountType string // Тип найденной учётной записи ("" — не выставлен)
	BlockReason string // Причина блокировки при Kind == DecisionBlocked
}

// CheckoutRequest — входные данные одной попытки оформления покупки.
// Email нормализуется ядром; Password обязателен только для новой
// учётной записи; AttemptUID — ключ идемпотентности, выданный вызывающей стороной.
type CheckoutRequest struct {
	Email      string
	Password   string
	Name       string
	Phone      string
	TaxID      string
	PlanID     int
	AttemptUID string
}

// CheckoutResult — структурированный итог попытки оформления.
// При Success=false Reason содержит машинную причину блокировки.
type CheckoutResult struct {
	Success        bool
	AccountUID     string
	SubscriptionID int
	Reason         string
}
