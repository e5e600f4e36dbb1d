package notification

import (
	"context"
	"sync"
	"time"

	"NexusPlatform/pkg/errors"
	"NexusPlatform/pkg/logger"
	"NexusPlatform/pkg/metrics"
)

// DefaultPollInterval период опроса счетчика непрочитанных
const DefaultPollInterval = 45 * time.Second

// Ticker источник тиков
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory создает Ticker с заданным периодом
type TickerFactory func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// PollTarget то, что опрашивается на каждом тике
type PollTarget interface {
	Poll(ctx context.Context) error
}

// PollerOption настраивает Poller
type PollerOption func(*Poller)

// WithTickerFactory подменяет источник тиков
func WithTickerFactory(f TickerFactory) PollerOption {
	return func(p *Poller) { p.newTicker = f }
}

// WithPollMetrics учитывает тики в метриках
func WithPollMetrics(m *metrics.Metrics) PollerOption {
	return func(p *Poller) { p.metrics = m }
}

// Poller периодически опрашивает счетчик непрочитанных: один раз сразу
// после Start и далее на каждом тике. После возврата из Stop опросов нет.
type Poller struct {
	target    PollTarget
	interval  time.Duration
	newTicker TickerFactory
	metrics   *metrics.Metrics
	logger    logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller создает Poller; interval <= 0 означает DefaultPollInterval
func NewPoller(target PollTarget, interval time.Duration, log logger.Logger, opts ...PollerOption) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = logger.NewNop()
	}
	p := &Poller{
		target:    target,
		interval:  interval,
		newTicker: newTimeTicker,
		logger:    log.With(logger.String("component", "poller")),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start запускает опрос. Повторный Start без Stop возвращает ошибку.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		return errors.New(errors.ErrConflict, "el sondeo ya está en ejecución")
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	ticker := p.newTicker(p.interval)
	go p.loop(ctx, ticker, p.done)

	p.logger.Debug("poller started", logger.Duration("interval", p.interval))
	return nil
}

// Stop останавливает опрос и ждет завершения цикла
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Debug("poller stopped")
}

// Running сообщает, запущен ли опрос
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done != nil
}

func (p *Poller) loop(ctx context.Context, ticker Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if ctx.Err() != nil {
				return
			}
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	err := p.target.Poll(ctx)
	if err != nil && ctx.Err() != nil {
		return
	}
	if p.metrics != nil {
		p.metrics.IncPollTick(err == nil)
	}
	if err != nil {
		p.logger.Warn("poll failed", logger.Error(err))
	}
}
