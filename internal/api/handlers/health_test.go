package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler(nil, nil)

	w := httptest.NewRecorder()
	h.HealthLive(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("статус = %d", w.Code)
	}
	var resp healthLiveResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != statusOK || resp.Service != serviceName {
		t.Errorf("ответ = %+v", resp)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		pg         ReadinessChecker
		cache      ReadinessChecker
		wantCode   int
		wantStatus string
	}{
		{"всё ok", stubChecker{status: statusOK}, stubChecker{status: statusOK}, http.StatusOK, statusOK},
		{"кэш degraded", stubChecker{status: statusOK}, stubChecker{status: statusDegraded}, http.StatusOK, statusDegraded},
		{"postgres fail", stubChecker{status: statusFail}, stubChecker{status: statusOK}, http.StatusServiceUnavailable, statusFail},
		{"postgres не инициализирован", nil, nil, http.StatusServiceUnavailable, statusFail},
		{"без проверки кэша", stubChecker{status: statusOK}, nil, http.StatusOK, statusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.pg, tt.cache)

			w := httptest.NewRecorder()
			h.HealthReady(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if w.Code != tt.wantCode {
				t.Errorf("код = %d, ожидался %d", w.Code, tt.wantCode)
			}
			var resp healthReadyResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, ожидался %q", resp.Status, tt.wantStatus)
			}
			if (tt.cache == nil) != (resp.Checks.FilterCache == nil) {
				t.Errorf("filter_cache = %+v", resp.Checks.FilterCache)
			}
		})
	}
}

type stubDependencies map[string]bool

func (s stubDependencies) Health() map[string]bool { return s }

func TestHealthReady_Dependencies(t *testing.T) {
	h := NewHealthHandler(stubChecker{status: statusOK}, nil)
	h.SetDependencies(stubDependencies{"postgresql:db:5432": false})

	w := httptest.NewRecorder()
	h.HealthReady(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if w.Code != http.StatusOK {
		t.Errorf("код = %d, отчёт зависимостей не должен менять статус", w.Code)
	}
	var resp healthReadyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if ok, found := resp.Dependencies["postgresql:db:5432"]; !found || ok {
		t.Errorf("dependencies = %v", resp.Dependencies)
	}
}

func TestFilterCacheChecker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "filters.json")

	c := NewFilterCacheChecker(path, 48*time.Hour)
	if status, _ := c.CheckReady(); status != statusDegraded {
		t.Errorf("нет файла: status = %q, ожидался degraded", status)
	}

	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if status, msg := c.CheckReady(); status != statusOK {
		t.Errorf("свежий файл: status = %q (%s)", status, msg)
	}

	c.now = func() time.Time { return time.Now().Add(72 * time.Hour) }
	if status, _ := c.CheckReady(); status != statusDegraded {
		t.Errorf("устаревший файл: status = %q, ожидался degraded", status)
	}

	if status, _ := NewFilterCacheChecker(dir, 0).CheckReady(); status != statusDegraded {
		t.Errorf("каталог вместо файла: status = %q", status)
	}
}

func TestOverallStatus(t *testing.T) {
	if got := overallStatus(statusOK, statusOK); got != statusOK {
		t.Errorf("got %q", got)
	}
	if got := overallStatus(statusOK, statusDegraded); got != statusDegraded {
		t.Errorf("got %q", got)
	}
	if got := overallStatus(statusDegraded, statusFail); got != statusFail {
		t.Errorf("got %q", got)
	}
}
