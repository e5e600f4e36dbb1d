package notification

import (
	"context"
	"sync"

	"NexusPlatform/pkg/logger"
	"NexusPlatform/pkg/metrics"
	"NexusPlatform/services/console/internal/domain"
)

// Service операции, которые нужны Inbox
type Service interface {
	FetchAll(ctx context.Context) ([]domain.Notification, error)
	FetchUnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id int64) (domain.MarkReadResult, error)
	MarkAllRead(ctx context.Context) (MarkAllResult, error)
}

// Inbox единственный владелец счетчика непрочитанных и кэша списка.
// Счетчик меняется двумя путями и никогда обоими сразу: локальной
// дельтой после отметки прочтения или полной перезаписью при опросе.
type Inbox struct {
	service Service
	metrics *metrics.Metrics
	logger  logger.Logger

	mu     sync.RWMutex
	items  []domain.Notification
	index  map[int64]int
	unread int

	subMu       sync.Mutex
	subscribers map[int]func(int)
	nextID      int
}

// NewInbox создает Inbox; m может быть nil
func NewInbox(service Service, m *metrics.Metrics, log logger.Logger) *Inbox {
	if log == nil {
		log = logger.NewNop()
	}
	return &Inbox{
		service:     service,
		metrics:     m,
		logger:      log.With(logger.String("component", "inbox")),
		index:       make(map[int64]int),
		subscribers: make(map[int]func(int)),
	}
}

// Unread текущее значение счетчика
func (b *Inbox) Unread() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.unread
}

// Items копия кэшированного списка
func (b *Inbox) Items() []domain.Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]domain.Notification(nil), b.items...)
}

// Refresh заменяет кэш списком с сервера; счетчик перезаписывается
func (b *Inbox) Refresh(ctx context.Context) ([]domain.Notification, error) {
	items, err := b.service.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.items = append([]domain.Notification(nil), items...)
	b.index = make(map[int64]int, len(items))
	for i, n := range b.items {
		b.index[n.ID] = i
	}
	count := b.setUnreadLocked(domain.CountUnread(items))
	b.mu.Unlock()

	b.publish(count)
	return items, nil
}

// Poll запрашивает счетчик и перезаписывает локальное значение
func (b *Inbox) Poll(ctx context.Context) error {
	count, err := b.service.FetchUnreadCount(ctx)
	if err != nil {
		return err
	}
	b.ApplyCount(count)
	return nil
}

// ApplyCount перезаписывает счетчик значением сервера
func (b *Inbox) ApplyCount(count int) {
	b.mu.Lock()
	count = b.setUnreadLocked(count)
	b.mu.Unlock()
	b.publish(count)
}

// MarkRead отмечает уведомление и меняет только его флаг. Счетчик
// уменьшается на один (не ниже нуля), только если уведомление было
// непрочитанным; повторный вызов счетчик не меняет. Полная перезагрузка не делается.
func (b *Inbox) MarkRead(ctx context.Context, id int64) (domain.Notification, error) {
	result, err := b.service.MarkRead(ctx, id)
	if err != nil {
		return domain.Notification{}, err
	}

	b.mu.Lock()
	var updated domain.Notification
	wasUnread := result.Created
	if i, ok := b.index[id]; ok {
		wasUnread = !b.items[i].Leido
		b.items[i].Leido = true
		updated = b.items[i]
	} else {
		updated = domain.Notification{ID: id, Leido: true}
	}
	count := b.unread
	if wasUnread {
		count = b.setUnreadLocked(b.unread - 1)
	}
	b.mu.Unlock()

	if wasUnread {
		b.publish(count)
	}
	return updated, nil
}

// MarkAllRead отмечает все непрочитанные и отражает успешные локально
func (b *Inbox) MarkAllRead(ctx context.Context) (MarkAllResult, error) {
	result, err := b.service.MarkAllRead(ctx)
	if err != nil {
		return result, err
	}

	b.mu.Lock()
	flipped := 0
	for _, id := range result.MarkedIDs {
		if i, ok := b.index[id]; ok {
			if !b.items[i].Leido {
				b.items[i].Leido = true
				flipped++
			}
			continue
		}
		flipped++
	}
	count := b.setUnreadLocked(b.unread - flipped)
	b.mu.Unlock()

	b.publish(count)
	return result, nil
}

// Subscribe подписывает fn на изменения счетчика. Возвращает функцию отписки.
func (b *Inbox) Subscribe(fn func(unread int)) func() {
	b.subMu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = fn
	b.subMu.Unlock()

	return func() {
		b.subMu.Lock()
		delete(b.subscribers, id)
		b.subMu.Unlock()
	}
}

// setUnreadLocked записывает счетчик, ограничивая его снизу нулем
func (b *Inbox) setUnreadLocked(count int) int {
	if count < 0 {
		count = 0
	}
	b.unread = count
	return count
}

func (b *Inbox) publish(count int) {
	if b.metrics != nil {
		b.metrics.SetUnread(count)
	}

	b.subMu.Lock()
	handlers := make([]func(int), 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		handlers = append(handlers, fn)
	}
	b.subMu.Unlock()

	for _, fn := range handlers {
		fn(count)
	}
}
