package metrics

import (
	"context"
	stderrors "errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Metrics представляет систему метрик клиента
type Metrics struct {
	// Метрики исходящих запросов к бэкенду
	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ErrorsCount     *prometheus.CounterVec

	// Метрики уведомлений
	UnreadNotifications prometheus.Gauge
	PollTicks           *prometheus.CounterVec

	// OpenTelemetry Tracer
	Tracer trace.Tracer `json:"-"`

	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
}

// Option настраивает Metrics
type Option func(*Metrics)

// WithRegistry регистрирует метрики в отдельном реестре вместо глобального
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Metrics) {
		m.registerer = registry
		m.gatherer = registry
	}
}

// WithTracer задает tracer вместо глобального провайдера
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Metrics) {
		m.Tracer = tracer
	}
}

// NewMetrics создает новую систему метрик. namespace должен быть допустимым
// именем prometheus (например, "nexus_console").
func NewMetrics(namespace string, opts ...Option) *Metrics {
	m := &Metrics{
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.Tracer == nil {
		m.Tracer = otel.Tracer(namespace)
	}

	m.RequestCount = register(m.registerer, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total number of requests sent to the NEXUS API",
		},
		[]string{"method", "endpoint", "status"},
	))

	m.RequestDuration = register(m.registerer, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Duration of requests to the NEXUS API in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	))

	m.ErrorsCount = register(m.registerer, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "errors_total",
			Help:      "Total number of failed requests to the NEXUS API",
		},
		[]string{"method", "endpoint", "error_type"},
	))

	m.UnreadNotifications = register(m.registerer, prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "unread",
			Help:      "Current unread notifications counter",
		},
	))

	m.PollTicks = register(m.registerer, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "poll_ticks_total",
			Help:      "Unread counter polls by result",
		},
		[]string{"result"},
	))

	return m
}

// register регистрирует коллектор; при повторной регистрации возвращает уже существующий
func register[C prometheus.Collector](registerer prometheus.Registerer, c C) C {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if stderrors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
			return c
		}
		panic(err)
	}
	return c
}

// GetHandler возвращает HTTP обработчик для эндпоинта /metrics
func (m *Metrics) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// EndpointLabel сворачивает числовые идентификаторы в ":id", чтобы метки не разрастались
func EndpointLabel(path string) string {
	for numericSegment.MatchString(path) {
		path = numericSegment.ReplaceAllString(path, "/:id$1")
	}
	return path
}

// ObserveRequest записывает результат одного запроса к API.
// status == 0 означает, что ответ не был получен.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	endpoint := EndpointLabel(path)
	m.RequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())

	if status == 0 {
		m.RequestCount.WithLabelValues(method, endpoint, "none").Inc()
		m.ErrorsCount.WithLabelValues(method, endpoint, "network").Inc()
		return
	}

	m.RequestCount.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	if status >= 400 {
		errorType := "client_error"
		if status >= 500 {
			errorType = "server_error"
		}
		m.ErrorsCount.WithLabelValues(method, endpoint, errorType).Inc()
	}
}

// SetUnread устанавливает значение счетчика непрочитанных
func (m *Metrics) SetUnread(count int) {
	m.UnreadNotifications.Set(float64(count))
}

// IncPollTick учитывает один тик опроса
func (m *Metrics) IncPollTick(success bool) {
	result := "ok"
	if !success {
		result = "error"
	}
	m.PollTicks.WithLabelValues(result).Inc()
}

// Transport оборачивает RoundTripper: каждый исходящий запрос выполняется в спане
// и учитывается в метриках.
func (m *Metrics) Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		endpoint := EndpointLabel(req.URL.Path)
		ctx, span := m.Tracer.Start(req.Context(), req.Method+" "+endpoint, trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()

		start := time.Now()
		resp, err := next.RoundTrip(req.WithContext(ctx))
		duration := time.Since(start)

		span.SetAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.Float64("http.duration", duration.Seconds()),
		)

		if err != nil {
			m.ObserveRequest(req.Method, req.URL.Path, 0, duration)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		m.ObserveRequest(req.Method, req.URL.Path, resp.StatusCode, duration)
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		if resp.StatusCode >= 500 {
			span.SetStatus(codes.Error, resp.Status)
		}
		return resp, nil
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Middleware создает middleware для собственного HTTP сервера (watch-режим: /metrics, /health)
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, span := m.Tracer.Start(r.Context(), r.URL.Path)
		defer span.End()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.Int("http.status_code", wrapped.statusCode),
		)
	})
}

// responseWriter обертка для перехвата статуса ответа
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader перехватывает установку статуса
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// InitializeOpenTelemetry устанавливает глобальный провайдер трассировки.
// Возвращает функцию завершения, которую нужно вызвать при выходе.
func InitializeOpenTelemetry(serviceName, version string) (func(context.Context) error, error) {
	tp := tracesdk.NewTracerProvider(
		tracesdk.WithSampler(tracesdk.AlwaysSample()),
		tracesdk.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", version),
		)),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
