package models

// Plan представляет тарифный план подготовки к экзаменам.
// Для ядра оформления покупки план доступен только на чтение:
// цена снимается в момент создания связки и дальше не пересчитывается.
type Plan struct {
	ID       int     // Идентификатор плана
	Name     string  // Название плана
	Price    float64 // Текущая цена, может меняться со временем
	IsActive bool    // Признак доступности плана для покупки
}
