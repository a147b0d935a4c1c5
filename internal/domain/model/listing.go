// Пакет model — доменные модели каталога автомобилей.
// Listing — чтение из таблицы cars (владелец — процесс загрузки объявлений).
package model

import "encoding/json"

// Listing — объявление каталога в том объёме, который отдаётся клиенту.
// Details возвращается клиенту без изменений.
type Listing struct {
	// ID — идентификатор объявления
	ID int64
	// Details — сериализованная карточка объявления (jsonb)
	Details json.RawMessage
}

// TaxonomyRow — четыре фильтруемых измерения одного объявления.
type TaxonomyRow struct {
	Manufacturer string
	ModelGroup   string
	Model        string
	Grade        string
}
