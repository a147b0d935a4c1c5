// Пакет errors — JSON-ответы с ошибками.
// Единый формат: {"error": "..."}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors

import (
	"encoding/json"
	"net/http"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error string `json:"error"`
}

// WriteError записывает ответ ошибки в стандартном формате.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message})
}

// --- Конструкторы для типичных ошибок ---

// BadRequest — 400 некорректные входные данные.
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// MethodNotAllowed — 405 метод не поддерживается.
func MethodNotAllowed(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusMethodNotAllowed, message)
}

// RequestTooLarge — 413 тело запроса слишком большое.
func RequestTooLarge(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusRequestEntityTooLarge, message)
}

// BadGateway — 502 внешний канал не ответил.
func BadGateway(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadGateway, message)
}

// ServiceUnavailable — 503 функция не настроена или недоступна.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusServiceUnavailable, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}
