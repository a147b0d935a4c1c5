// leads.go — обработчик POST /api/leads.
// Тело передаётся в сервис заявок как есть: проверка схемы — на стороне сервиса.
package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	apierrors "github.com/xside333/tamx-website-sub001/internal/api/errors"
	"github.com/xside333/tamx-website-sub001/internal/service"
)

// maxLeadBody — предельный размер тела заявки.
const maxLeadBody = 16 << 10

// leadResponse — ответ POST /api/leads.
type leadResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id,omitempty"`
	Delivered int    `json:"delivered"`
}

// SubmitLead — реализация POST /api/leads.
func (h *APIHandler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	if h.leads == nil {
		apierrors.ServiceUnavailable(w, "Приём заявок не настроен")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxLeadBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.RequestTooLarge(w, "Слишком большое тело запроса")
			return
		}
		apierrors.BadRequest(w, "Не удалось прочитать тело запроса")
		return
	}

	result, err := h.leads.Submit(r.Context(), body)
	if err != nil {
		var validationErr *service.ValidationError
		switch {
		case errors.As(err, &validationErr):
			apierrors.BadRequest(w, validationErr.Error())
		case errors.Is(err, service.ErrNoChannels):
			apierrors.ServiceUnavailable(w, "Приём заявок не настроен")
		case errors.Is(err, service.ErrDeliveryFailed):
			h.logger.Error("Заявка не доставлена", slog.String("error", err.Error()))
			apierrors.BadGateway(w, "Не удалось отправить заявку, попробуйте позже")
		default:
			h.logger.Error("Ошибка приёма заявки", slog.String("error", err.Error()))
			apierrors.InternalError(w, "Внутренняя ошибка при приёме заявки")
		}
		return
	}

	resp := leadResponse{Status: "sent", ID: result.ID, Delivered: result.Delivered}
	if result.Duplicate {
		resp.Status = "duplicate"
	}
	writeJSON(w, http.StatusOK, resp)
}
