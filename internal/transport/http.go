package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pathwise/syncengine/internal/models"
	"github.com/pathwise/syncengine/pkg/api"
)

// DefaultRequestTimeout ограничивает каждый сетевой вызов; истечение
// классифицируется как транзиентная ошибка.
const DefaultRequestTimeout = 30 * time.Second

// HTTPAdapter — реализация Adapter поверх HTTP API бэкенда.
type HTTPAdapter struct {
	httpClient *http.Client
	tokens     TokenProvider
	logger     *slog.Logger
	baseURL    string
	timeout    time.Duration
}

var _ Adapter = (*HTTPAdapter)(nil)

// NewHTTPAdapter создает адаптер для бэкенда по baseURL.
// tokens может быть nil — тогда запросы уходят без Authorization.
func NewHTTPAdapter(baseURL string, tokens TokenProvider, timeout time.Duration, logger *slog.Logger) *HTTPAdapter {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &HTTPAdapter{
		baseURL: baseURL,
		tokens:  tokens,
		timeout: timeout,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовок Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Handshake проверяет доступность бэкенда.
func (a *HTTPAdapter) Handshake(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/v1/sync/handshake", nil)
	if err != nil {
		return fmt.Errorf("failed to create handshake request: %w", err)
	}
	if err := a.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("handshake request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("handshake failed with status %d", resp.StatusCode)
	}
	return nil
}

// Send отправляет операцию и классифицирует исход.
//
// Правила классификации:
//   - сетевые ошибки, таймауты, 408/429 и 5xx → StatusTransient;
//   - 409 и 412 → StatusConflict (тело несет текущую версию и значение);
//   - остальные 4xx (валидация, авторизация) → StatusFatal.
func (a *HTTPAdapter) Send(ctx context.Context, op *models.QueuedOperation) Outcome {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	method, url := a.route(op)

	body := api.MutateRequest{
		Kind:        string(op.Kind),
		Payload:     json.RawMessage(op.Payload),
		BaseVersion: op.BaseVersion,
		ClientOpID:  op.ID,
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		// Неserializable payload не вылечится повтором
		return Outcome{Status: StatusFatal, Reason: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(jsonData))
	if err != nil {
		return Outcome{Status: StatusFatal, Reason: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if err := a.authorize(ctx, req); err != nil {
		return Outcome{Status: StatusFatal, Reason: err.Error()}
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		// Таймауты и потеря связи — повторяемые
		return Outcome{Status: StatusTransient, Reason: fmt.Sprintf("request failed: %v", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{Status: StatusTransient, Reason: fmt.Sprintf("failed to read response body: %v", err)}
	}

	return a.classify(op, resp.StatusCode, respBody)
}

func (a *HTTPAdapter) classify(op *models.QueuedOperation, statusCode int, body []byte) Outcome {
	switch {
	case statusCode >= 200 && statusCode < 300:
		var mResp api.MutateResponse
		if err := json.Unmarshal(body, &mResp); err != nil {
			return Outcome{Status: StatusTransient, Reason: fmt.Sprintf("failed to decode response: %v", err)}
		}
		value := op.Payload
		if mResp.Value != nil {
			raw, err := json.Marshal(mResp.Value)
			if err == nil {
				value = raw
			}
		}
		return Outcome{Status: StatusOK, Version: mResp.Version, Value: value}

	case statusCode == http.StatusConflict || statusCode == http.StatusPreconditionFailed:
		var cResp api.ConflictResponse
		if err := json.Unmarshal(body, &cResp); err != nil {
			// Без тела конфликт неразрешим детерминированно — повторим
			return Outcome{Status: StatusTransient, Reason: fmt.Sprintf("failed to decode conflict body: %v", err)}
		}
		var remoteValue json.RawMessage
		if cResp.CurrentValue != nil {
			remoteValue, _ = json.Marshal(cResp.CurrentValue)
		}
		return Outcome{
			Status:          StatusConflict,
			RemoteVersion:   cResp.CurrentVersion,
			RemoteValue:     remoteValue,
			RemoteTimestamp: cResp.CurrentTimestamp,
			RemoteWriterID:  cResp.WriterID,
		}

	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusTooManyRequests || statusCode >= 500:
		return Outcome{Status: StatusTransient, Reason: fmt.Sprintf("server error (%d): %s", statusCode, errMessage(body))}

	default:
		return Outcome{Status: StatusFatal, Reason: fmt.Sprintf("request rejected (%d): %s", statusCode, errMessage(body))}
	}
}

// route строит метод и URL для операции: ресурсы адресуются как
// /api/v1/resources/{type}/{id}.
func (a *HTTPAdapter) route(op *models.QueuedOperation) (method, url string) {
	url = fmt.Sprintf("%s/api/v1/resources/%s/%s", a.baseURL, op.Key.Type, op.Key.ID)
	switch op.Kind {
	case models.OpCreate:
		method = http.MethodPost
	case models.OpDelete:
		method = http.MethodDelete
	default:
		method = http.MethodPut
	}
	return method, url
}

func (a *HTTPAdapter) authorize(ctx context.Context, req *http.Request) error {
	if a.tokens == nil {
		return nil
	}
	token, err := a.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func errMessage(body []byte) string {
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return errResp.Message
	}
	return string(body)
}
