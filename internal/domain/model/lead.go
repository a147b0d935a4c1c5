package model

import "time"

// Lead — заявка с формы обратной связи.
// Не хранится: пересылается в каналы уведомлений и забывается.
type Lead struct {
	// ID — UUID заявки, присваивается при приёме
	ID string `json:"id"`
	// Name — имя клиента
	Name string `json:"name"`
	// Phone — телефон клиента
	Phone string `json:"phone"`
	// Message — произвольный комментарий (опционально)
	Message string `json:"message,omitempty"`
	// CarID — объявление, по которому оставлена заявка (опционально)
	CarID *int64 `json:"carId,omitempty"`
	// CarURL — ссылка на карточку объявления (опционально)
	CarURL string `json:"carUrl,omitempty"`
	// Source — страница или форма, откуда пришла заявка
	Source string `json:"source,omitempty"`
	// ReceivedAt — время приёма заявки
	ReceivedAt time.Time `json:"receivedAt"`
}
