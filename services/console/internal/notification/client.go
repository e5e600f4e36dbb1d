package notification

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"

	"NexusPlatform/pkg/errors"
	"NexusPlatform/pkg/logger"
	"NexusPlatform/pkg/validation"
	"NexusPlatform/services/console/internal/domain"
)

const maxTituloLength = 150

// API транспорт к бэкенду
type API interface {
	Do(ctx context.Context, method, path string, body, out interface{}) error
}

// FailedMark уведомление, которое не удалось отметить прочитанным
type FailedMark struct {
	ID    int64  `json:"id"`
	Error string `json:"error"`
}

// MarkAllResult итог массовой отметки
type MarkAllResult struct {
	MarkedCount int          `json:"markedCount"`
	MarkedIDs   []int64      `json:"markedIds,omitempty"`
	Failed      []FailedMark `json:"failed,omitempty"`
}

// Client операции с уведомлениями. Сервер сам фильтрует видимость
// и вычисляет leido; клиент не фильтрует повторно.
type Client struct {
	api       API
	validator *validation.Validator
	logger    logger.Logger
}

// NewClient создает клиента уведомлений
func NewClient(api API, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		api:       api,
		validator: validation.NewValidator(),
		logger:    log.With(logger.String("component", "notifications")),
	}
}

// FetchAll возвращает уведомления, видимые текущему пользователю
func (c *Client) FetchAll(ctx context.Context) ([]domain.Notification, error) {
	var raw json.RawMessage
	if err := c.api.Do(ctx, http.MethodGet, "notificaciones/", nil, &raw); err != nil {
		return nil, errors.WithFallback(err, "Error al obtener notificaciones")
	}
	items, err := decodeList[domain.Notification](raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "Error al obtener notificaciones")
	}
	return items, nil
}

// FetchByID возвращает одно уведомление
func (c *Client) FetchByID(ctx context.Context, id int64) (domain.Notification, error) {
	if err := c.validator.ValidateID(id, "id"); err != nil {
		return domain.Notification{}, err
	}
	var n domain.Notification
	if err := c.api.Do(ctx, http.MethodGet, fmt.Sprintf("notificaciones/%d/", id), nil, &n); err != nil {
		return domain.Notification{}, errors.WithFallback(err, "Error al obtener la notificación")
	}
	return n, nil
}

// FetchUnreadCount запрашивает только счетчик непрочитанных
func (c *Client) FetchUnreadCount(ctx context.Context) (int, error) {
	var resp domain.UnreadCount
	if err := c.api.Do(ctx, http.MethodGet, "notificaciones/count-no-leidas/", nil, &resp); err != nil {
		return 0, errors.WithFallback(err, "Error al obtener notificaciones no leídas")
	}
	return resp.Count, nil
}

// MarkRead отмечает уведомление прочитанным. Повторный вызов успешен:
// сервер не создает вторую квитанцию и отвечает created=false.
func (c *Client) MarkRead(ctx context.Context, id int64) (domain.MarkReadResult, error) {
	if err := c.validator.ValidateID(id, "id"); err != nil {
		return domain.MarkReadResult{}, err
	}
	var resp domain.MarkReadResult
	if err := c.api.Do(ctx, http.MethodPatch, fmt.Sprintf("notificaciones/%d/marcar-leida/", id), nil, &resp); err != nil {
		return domain.MarkReadResult{}, errors.WithFallback(err, "Error al marcar notificación como leída")
	}
	resp.Leido = true
	return resp, nil
}

// CreateReceipt создает квитанцию напрямую (альтернатива MarkRead)
func (c *Client) CreateReceipt(ctx context.Context, id int64) (domain.ReceiptResult, error) {
	if err := c.validator.ValidateID(id, "notificacion"); err != nil {
		return domain.ReceiptResult{}, err
	}
	var resp domain.ReceiptResult
	body := map[string]int64{"notificacion": id}
	if err := c.api.Do(ctx, http.MethodPost, "notificaciones-usuarios/", body, &resp); err != nil {
		return domain.ReceiptResult{}, errors.WithFallback(err, "Error al registrar lectura de notificación")
	}
	return resp, nil
}

// ListReceipts история квитанций текущего пользователя
func (c *Client) ListReceipts(ctx context.Context) ([]domain.ReadReceipt, error) {
	var raw json.RawMessage
	if err := c.api.Do(ctx, http.MethodGet, "notificaciones-usuarios/", nil, &raw); err != nil {
		return nil, errors.WithFallback(err, "Error al obtener historial de lecturas")
	}
	items, err := decodeList[domain.ReadReceipt](raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "Error al obtener historial de lecturas")
	}
	return items, nil
}

// MarkAllRead загружает список, отбирает непрочитанные и отмечает их
// параллельно. Итог сообщается после завершения всех запросов; ошибка
// одного запроса не прерывает остальные.
func (c *Client) MarkAllRead(ctx context.Context) (MarkAllResult, error) {
	items, err := c.FetchAll(ctx)
	if err != nil {
		return MarkAllResult{}, err
	}

	var unread []int64
	for _, n := range items {
		if !n.Leido {
			unread = append(unread, n.ID)
		}
	}

	type outcome struct {
		id  int64
		err error
	}
	outcomes := make([]outcome, len(unread))

	var wg sync.WaitGroup
	for i, id := range unread {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			_, err := c.MarkRead(ctx, id)
			outcomes[i] = outcome{id: id, err: err}
		}(i, id)
	}
	wg.Wait()

	result := MarkAllResult{}
	for _, o := range outcomes {
		if o.err != nil {
			result.Failed = append(result.Failed, FailedMark{ID: o.id, Error: userMessage(o.err)})
			continue
		}
		result.MarkedIDs = append(result.MarkedIDs, o.id)
	}
	result.MarkedCount = len(result.MarkedIDs)

	if len(result.Failed) > 0 {
		c.logger.Warn("mark all read finished with failures",
			logger.Int("marked", result.MarkedCount),
			logger.Int("failed", len(result.Failed)),
		)
	}
	return result, nil
}

// Create создает уведомление. Квитанции не создаются: новое уведомление
// не прочитано никем, пока каждый пользователь не отметит его сам.
func (c *Client) Create(ctx context.Context, in domain.NotificationInput) (domain.Notification, error) {
	if in.Nivel == "" {
		in.Nivel = domain.NivelInformativa
	}
	if err := c.validateInput(in, true); err != nil {
		return domain.Notification{}, err
	}
	var n domain.Notification
	if err := c.api.Do(ctx, http.MethodPost, "notificaciones/", in, &n); err != nil {
		return domain.Notification{}, errors.WithFallback(err, "Error al crear notificación")
	}
	return n, nil
}

// Update частично изменяет уведомление; статус прочтения не затрагивается
func (c *Client) Update(ctx context.Context, id int64, in domain.NotificationInput) (domain.Notification, error) {
	if err := c.validator.ValidateID(id, "id"); err != nil {
		return domain.Notification{}, err
	}
	if err := c.validateInput(in, false); err != nil {
		return domain.Notification{}, err
	}
	var n domain.Notification
	if err := c.api.Do(ctx, http.MethodPatch, fmt.Sprintf("notificaciones/%d/", id), in, &n); err != nil {
		return domain.Notification{}, errors.WithFallback(err, "Error al actualizar notificación")
	}
	return n, nil
}

// Delete удаляет уведомление (квитанции удаляются сервером каскадно)
func (c *Client) Delete(ctx context.Context, id int64) error {
	if err := c.validator.ValidateID(id, "id"); err != nil {
		return err
	}
	if err := c.api.Do(ctx, http.MethodDelete, fmt.Sprintf("notificaciones/%d/", id), nil, nil); err != nil {
		return errors.WithFallback(err, "Error al eliminar notificación")
	}
	return nil
}

func (c *Client) validateInput(in domain.NotificationInput, create bool) error {
	if create {
		if err := c.validator.ValidateRequiredFields(map[string]interface{}{
			"titulo":    in.Titulo,
			"contenido": in.Contenido,
		}, map[string]string{
			"titulo":    "Título",
			"contenido": "Contenido",
		}); err != nil {
			return err
		}
	}
	if in.Titulo != "" {
		if err := c.validator.ValidateStringLength(in.Titulo, "titulo", 1, maxTituloLength); err != nil {
			return err
		}
	}
	if in.Nivel != "" {
		if err := c.validator.ValidateEnum(string(in.Nivel), domain.Niveles, "nivel"); err != nil {
			return err
		}
	}
	if in.Tipo != "" {
		if err := c.validator.ValidateEnum(string(in.Tipo), domain.Tipos, "tipo"); err != nil {
			return err
		}
	}
	return nil
}

// decodeList принимает как массив, так и постраничный ответ {"results": [...]}
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []T{}, nil
	}
	if trimmed[0] == '{' {
		var page struct {
			Results []T `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, err
		}
		if page.Results == nil {
			page.Results = []T{}
		}
		return page.Results, nil
	}
	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func userMessage(err error) string {
	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		return appErr.GetUserMessage()
	}
	return err.Error()
}
