// Пакет chatclient — HTTP-клиент Bot API чата (Telegram-совместимый).
// Отправляет заявки с сайта в один или несколько чатов менеджеров.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xside333/tamx-website-sub001/internal/domain/model"
)

const (
	// maxErrorBody — сколько байт тела ошибочного ответа попадает в текст ошибки.
	maxErrorBody = 512
	// maxResponseBody — предел чтения ответа Bot API (успешный ответ содержит весь текст сообщения).
	maxResponseBody = 1 << 20
)

// sendMessageRequest — тело POST /bot{token}/sendMessage.
type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// apiResponse — общий конверт ответа Bot API.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Client — клиент Bot API.
type Client struct {
	httpClient *http.Client
	apiURL     string
	token      string //nolint:gosec // G101: поле структуры, не содержит секрет напрямую
	chatIDs    []string
	logger     *slog.Logger
}

// New создаёт клиент чата.
// apiURL — базовый URL Bot API (например, https://api.telegram.org).
// timeout — таймаут одного HTTP-запроса (CM_CHAT_TIMEOUT).
func New(apiURL, token string, chatIDs []string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     strings.TrimRight(apiURL, "/"),
		token:      token,
		chatIDs:    chatIDs,
		logger:     logger.With(slog.String("component", "chat_client")),
	}
}

// Name — имя канала доставки.
func (c *Client) Name() string {
	return "chat"
}

// Notify отправляет заявку во все чаты. Ошибка возвращается, только если
// заявку не получил ни один чат.
func (c *Client) Notify(ctx context.Context, lead *model.Lead) error {
	if len(c.chatIDs) == 0 {
		return errors.New("не задан ни один chat id")
	}

	text := FormatLead(lead)
	var errs []error
	for _, chatID := range c.chatIDs {
		if err := c.SendMessage(ctx, chatID, text); err != nil {
			c.logger.Warn("Сообщение в чат не отправлено",
				slog.String("chat_id", chatID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
		}
	}
	if len(errs) == len(c.chatIDs) {
		return errors.Join(errs...)
	}
	return nil
}

// SendMessage отправляет текст в чат.
// POST {api}/bot{token}/sendMessage
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("сериализация sendMessage: %w", err)
	}

	reqURL := c.apiURL + "/bot" + c.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("создание запроса sendMessage: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	if err != nil {
		// Текст ошибки содержит URL с токеном
		return fmt.Errorf("запрос sendMessage к %s: %w", c.apiURL, unwrapURLError(err))
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	var apiResp apiResponse
	_ = json.Unmarshal(raw, &apiResp)

	if resp.StatusCode != http.StatusOK || !apiResp.OK {
		desc := apiResp.Description
		if desc == "" {
			desc = truncate(string(raw), maxErrorBody)
		}
		return fmt.Errorf("Bot API вернул статус %d для чата %s: %s", resp.StatusCode, chatID, desc)
	}

	c.logger.Debug("Сообщение отправлено в чат", slog.String("chat_id", chatID))
	return nil
}

// FormatLead — текст сообщения о заявке.
func FormatLead(lead *model.Lead) string {
	var b strings.Builder
	b.WriteString("Новая заявка с сайта\n\n")
	fmt.Fprintf(&b, "Имя: %s\n", lead.Name)
	fmt.Fprintf(&b, "Телефон: %s\n", lead.Phone)
	if lead.CarID != nil {
		b.WriteString("Автомобиль: #" + strconv.FormatInt(*lead.CarID, 10) + "\n")
	}
	if lead.CarURL != "" {
		fmt.Fprintf(&b, "Ссылка: %s\n", lead.CarURL)
	}
	if lead.Source != "" {
		fmt.Fprintf(&b, "Источник: %s\n", lead.Source)
	}
	if lead.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", lead.Message)
	}
	fmt.Fprintf(&b, "\nID: %s", lead.ID)
	return b.String()
}

// truncate обрезает s до n байт.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// unwrapURLError убирает из ошибки *url.Error, в URL которого есть токен бота.
func unwrapURLError(err error) error {
	var uErr *url.Error
	if errors.As(err, &uErr) {
		return uErr.Err
	}
	return err
}
