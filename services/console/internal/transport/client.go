package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"NexusPlatform/pkg/errors"
	"NexusPlatform/pkg/logger"
	"NexusPlatform/pkg/metrics"
	"NexusPlatform/pkg/validation"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "NEXUS-Console/1.0"
	maxResponseBytes = 10 << 20

	// HeaderRequestID заголовок корреляции запросов
	HeaderRequestID = "X-Request-ID"
)

// TokenSource отдает текущий токен доступа; пустая строка означает отсутствие сессии
type TokenSource interface {
	Token() string
}

// TokenFunc адаптер функции к TokenSource
type TokenFunc func() string

// Token возвращает токен
func (f TokenFunc) Token() string { return f() }

// RequestInterceptor изменяет исходящий запрос перед отправкой
type RequestInterceptor func(req *http.Request) error

// UnauthenticatedEvent сигнал о том, что сервер ответил 401
type UnauthenticatedEvent struct {
	Method    string
	Path      string
	RequestID string
}

// Options параметры клиента
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	Tokens     TokenSource
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
	Logger     logger.Logger
}

// Client единственный настроенный транспорт к REST API NEXUS.
//
// Сквозная ответственность: любой ответ 401 на любой запрос публикует
// UnauthenticatedEvent всем подписчикам OnUnauthenticated. Сам клиент состояние
// сессии не трогает; владелец сессии подписывается и очищает ее. Вызывающий
// получает исходную ошибку (код UNAUTHORIZED) и после нее должен сам проверить
// состояние аутентификации.
type Client struct {
	baseURL      string
	userAgent    string
	tokens       TokenSource
	httpClient   *http.Client
	logger       logger.Logger
	interceptors []RequestInterceptor

	mu          sync.RWMutex
	subscribers map[int]func(UnauthenticatedEvent)
	nextID      int
}

// New создает клиент
func New(opts Options) (*Client, error) {
	if err := validation.NewValidator().ValidateURL(opts.BaseURL, []string{"http", "https"}); err != nil {
		return nil, err
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Tokens == nil {
		opts.Tokens = TokenFunc(func() string { return "" })
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
		if opts.Metrics != nil {
			httpClient.Transport = opts.Metrics.Transport(http.DefaultTransport)
		}
	}

	c := &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/") + "/",
		userAgent:   opts.UserAgent,
		tokens:      opts.Tokens,
		httpClient:  httpClient,
		logger:      opts.Logger.With(logger.String("component", "transport")),
		subscribers: make(map[int]func(UnauthenticatedEvent)),
	}
	c.interceptors = []RequestInterceptor{c.authHeader, c.standardHeaders}
	return c, nil
}

// BaseURL возвращает базовый адрес API
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Use добавляет перехватчик запросов в конец цепочки
func (c *Client) Use(interceptor RequestInterceptor) {
	c.interceptors = append(c.interceptors, interceptor)
}

// OnUnauthenticated подписывает fn на ответы 401. Возвращает функцию отписки.
func (c *Client) OnUnauthenticated(fn func(UnauthenticatedEvent)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *Client) emitUnauthenticated(event UnauthenticatedEvent) {
	c.mu.RLock()
	handlers := make([]func(UnauthenticatedEvent), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		handlers = append(handlers, fn)
	}
	c.mu.RUnlock()

	for _, fn := range handlers {
		fn(event)
	}
}

func (c *Client) authHeader(req *http.Request) error {
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func (c *Client) standardHeaders(req *http.Request) error {
	req.Header.Set("Accept", "application/json")
	if req.Body != nil && req.Body != http.NoBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", c.userAgent)
	return nil
}

func (c *Client) url(path string) string {
	return c.baseURL + strings.TrimLeft(path, "/")
}

// Do выполняет запрос к API. body сериализуется в JSON, ответ декодируется в out.
// Ошибки всегда *errors.Error: NETWORK_ERROR без ответа, коды FromHTTPResponse
// для не-2xx ответов, INTERNAL_ERROR для ответа неожиданного формата.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, errors.ErrInternal, "error al codificar la solicitud")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "error al crear la solicitud")
	}

	requestID := requestIDFrom(ctx)
	req.Header.Set(HeaderRequestID, requestID)

	for _, intercept := range c.interceptors {
		if err := intercept(req); err != nil {
			return errors.Wrap(err, errors.ErrInternal, "error al preparar la solicitud")
		}
	}

	log := c.logger.With(
		logger.String("request_id", requestID),
		logger.String("method", method),
		logger.String("path", path),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("request failed without response", logger.Error(err))
		return errors.Wrap(err, errors.ErrNetwork, "No se pudo conectar con el servidor")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Warn("failed to read response body", logger.Error(err))
		return errors.Wrap(err, errors.ErrNetwork, "respuesta interrumpida")
	}

	log.Debug("response received",
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		log.Warn("401 received, invalidating session")
		c.emitUnauthenticated(UnauthenticatedEvent{Method: method, Path: path, RequestID: requestID})
		return errors.FromHTTPResponse(resp.StatusCode, payload)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		appErr := errors.FromHTTPResponse(resp.StatusCode, payload)
		log.Info("request rejected", logger.Int("status", resp.StatusCode), logger.String("code", string(appErr.Code)))
		return appErr
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}

	if err := json.Unmarshal(payload, out); err != nil {
		log.Error("unexpected response shape", logger.Error(err))
		return errors.Wrap(err, errors.ErrInternal, fmt.Sprintf("respuesta inesperada de %s %s", method, path))
	}
	return nil
}

type requestIDKey struct{}

// WithRequestID задает идентификатор запроса для вызова Do (и для логов)
func WithRequestID(ctx context.Context, id string) context.Context {
	return logger.ContextWithRequestID(context.WithValue(ctx, requestIDKey{}, id), id)
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
