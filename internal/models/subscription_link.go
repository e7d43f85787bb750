package models

import "time"

// SubscriptionLink связывает учётную запись с планом для одной попытки покупки.
// Создаётся ядром ровно один раз на попытку в ожидающем состоянии
// (Status=false, Expiration=nil); активацию и дату истечения выставляет
// внешний шаг подтверждения оплаты. После создания ядро запись не меняет.
type SubscriptionLink struct {
	ID            int        // Идентификатор связки
	AccountUID    string     // Учётная запись-владелец
	PlanID        int        // Целевой план
	ValueSnapshot float64    // Цена плана, зафиксированная в момент создания
	Status        bool       // false — ожидает оплаты, true — активна
	Expiration    *time.Time // Дата истечения, nil до подтверждения оплаты
	AttemptUID    string     // Ключ идемпотентности попытки оформления
	CreatedAt     time.Time  // Момент создания записи
}

// ActiveAt сообщает, действует ли связка в момент now:
// статус подтверждён и дата истечения строго в будущем.
func (l *SubscriptionLink) ActiveAt(now time.Time) bool {
	if l == nil || !l.Status || l.Expiration == nil {
		return false
	}
	return l.Expiration.After(now)
}
