// lead.go — приём заявок с формы обратной связи.
//
// Заявка проверяется по встроенной JSON Schema, повтор в пределах окна
// подтверждается без повторной отправки, затем заявка рассылается во все
// настроенные каналы (чат, SNS). Очереди и повторов нет: заявка считается
// принятой, если дошла хотя бы до одного канала.
package service

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/xeipuuv/gojsonschema"

	"github.com/xside333/tamx-website-sub001/internal/domain/model"
)

//go:embed lead_schema.json
var leadSchemaJSON []byte

// Ошибки приёма заявок.
var (
	// ErrNoChannels — ни один канал доставки не настроен.
	ErrNoChannels = errors.New("каналы доставки заявок не настроены")
	// ErrDeliveryFailed — заявка не доставлена ни в один канал.
	ErrDeliveryFailed = errors.New("заявка не доставлена ни в один канал")
)

// Prometheus-метрики заявок.
var (
	leadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cm_leads_total",
		Help: "Количество обработанных заявок.",
	}, []string{"status"}) // status: sent, duplicate, invalid, failed

	leadDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cm_lead_deliveries_total",
		Help: "Попытки доставки заявок по каналам.",
	}, []string{"channel", "result"}) // result: ok, error
)

// ValidationError — заявка не прошла проверку схемы.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "некорректная заявка: " + strings.Join(e.Problems, "; ")
}

// Notifier — канал доставки заявок.
type Notifier interface {
	// Name — имя канала для логов и метрик.
	Name() string
	// Notify отправляет заявку.
	Notify(ctx context.Context, lead *model.Lead) error
}

// LeadResult — итог приёма заявки.
type LeadResult struct {
	// ID — идентификатор заявки (пуст для повтора)
	ID string
	// Duplicate — заявка признана повтором и не отправлялась
	Duplicate bool
	// Delivered — количество каналов, принявших заявку
	Delivered int
}

// leadInput — тело запроса после проверки схемы.
type leadInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
	CarID   *int64 `json:"carId"`
	CarURL  string `json:"carUrl"`
	Source  string `json:"source"`
}

// LeadService — приём и рассылка заявок.
type LeadService struct {
	schema          *gojsonschema.Schema
	deduper         *LeadDeduper
	notifiers       []Notifier
	deliveryTimeout time.Duration
	logger          *slog.Logger
}

// NewLeadService создаёт сервис заявок.
// deliveryTimeout ограничивает рассылку по всем каналам и не зависит
// от отмены входящего запроса.
func NewLeadService(
	deduper *LeadDeduper,
	notifiers []Notifier,
	deliveryTimeout time.Duration,
	logger *slog.Logger,
) (*LeadService, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(leadSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("компиляция схемы заявки: %w", err)
	}
	return &LeadService{
		schema:          schema,
		deduper:         deduper,
		notifiers:       notifiers,
		deliveryTimeout: deliveryTimeout,
		logger:          logger.With(slog.String("component", "lead_service")),
	}, nil
}

// Channels возвращает имена настроенных каналов.
func (s *LeadService) Channels() []string {
	names := make([]string, 0, len(s.notifiers))
	for _, n := range s.notifiers {
		names = append(names, n.Name())
	}
	return names
}

// Submit проверяет, дедуплицирует и рассылает заявку.
func (s *LeadService) Submit(ctx context.Context, body []byte) (*LeadResult, error) {
	if len(s.notifiers) == 0 {
		return nil, ErrNoChannels
	}

	lead, err := s.parse(body)
	if err != nil {
		leadsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	fp := fingerprint(lead)
	if !s.deduper.Reserve(fp) {
		leadsTotal.WithLabelValues("duplicate").Inc()
		s.logger.Info("Повторная заявка подавлена", slog.String("source", lead.Source))
		return &LeadResult{Duplicate: true}, nil
	}

	delivered, errs := s.fanOut(ctx, lead)
	if delivered == 0 {
		s.deduper.Release(fp)
		leadsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %w", ErrDeliveryFailed, errors.Join(errs...))
	}

	leadsTotal.WithLabelValues("sent").Inc()
	s.logger.Info("Заявка принята",
		slog.String("lead_id", lead.ID),
		slog.Int("delivered", delivered),
		slog.Int("failed", len(errs)),
	)
	return &LeadResult{ID: lead.ID, Delivered: delivered}, nil
}

// parse проверяет тело по схеме и собирает модель заявки.
func (s *LeadService) parse(body []byte) (*model.Lead, error) {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, &ValidationError{Problems: []string{"тело запроса не является корректным JSON"}}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, &ValidationError{Problems: problems}
	}

	var in leadInput
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, &ValidationError{Problems: []string{err.Error()}}
	}

	return &model.Lead{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(in.Name),
		Phone:      strings.TrimSpace(in.Phone),
		Message:    strings.TrimSpace(in.Message),
		CarID:      in.CarID,
		CarURL:     strings.TrimSpace(in.CarURL),
		Source:     strings.TrimSpace(in.Source),
		ReceivedAt: time.Now().UTC(),
	}, nil
}

// fanOut рассылает заявку во все каналы параллельно.
func (s *LeadService) fanOut(ctx context.Context, lead *model.Lead) (int, []error) {
	ctx = context.WithoutCancel(ctx)
	if s.deliveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deliveryTimeout)
		defer cancel()
	}

	errs := make([]error, len(s.notifiers))
	var wg sync.WaitGroup
	for i, n := range s.notifiers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := n.Notify(ctx, lead); err != nil {
				leadDeliveriesTotal.WithLabelValues(n.Name(), "error").Inc()
				s.logger.Warn("Ошибка доставки заявки",
					slog.String("channel", n.Name()),
					slog.String("lead_id", lead.ID),
					slog.String("error", err.Error()),
				)
				errs[i] = fmt.Errorf("%s: %w", n.Name(), err)
				return
			}
			leadDeliveriesTotal.WithLabelValues(n.Name(), "ok").Inc()
		}()
	}
	wg.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	return len(s.notifiers) - len(failed), failed
}

// fingerprint — отпечаток заявки без учёта регистра, пробелов и форматирования телефона.
func fingerprint(lead *model.Lead) string {
	var carID string
	if lead.CarID != nil {
		carID = strconv.FormatInt(*lead.CarID, 10)
	}
	parts := []string{
		strings.ToLower(strings.Join(strings.Fields(lead.Name), " ")),
		digitsOnly(lead.Phone),
		carID,
		strings.ToLower(strings.Join(strings.Fields(lead.Message), " ")),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
