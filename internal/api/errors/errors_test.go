package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter, msg string)
		status int
	}{
		{"BadRequest", BadRequest, http.StatusBadRequest},
		{"NotFound", NotFound, http.StatusNotFound},
		{"MethodNotAllowed", MethodNotAllowed, http.StatusMethodNotAllowed},
		{"RequestTooLarge", RequestTooLarge, http.StatusRequestEntityTooLarge},
		{"BadGateway", BadGateway, http.StatusBadGateway},
		{"ServiceUnavailable", ServiceUnavailable, http.StatusServiceUnavailable},
		{"InternalError", InternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w, "сообщение")

			if w.Code != tt.status {
				t.Errorf("статус = %d, ожидался %d", w.Code, tt.status)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("тело не JSON: %v", err)
			}
			if body["error"] != "сообщение" {
				t.Errorf("error = %v, ожидалось %q", body["error"], "сообщение")
			}
			if len(body) != 1 {
				t.Errorf("лишние поля в теле: %v", body)
			}
		})
	}
}
