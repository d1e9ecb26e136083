package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор метрик сервиса
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// База данных
	DBQueryDuration      *prometheus.HistogramVec
	DBOpenConnections    *prometheus.GaugeVec
	DBInUseConnections   *prometheus.GaugeVec
	DBIdleConnections    *prometheus.GaugeVec
	DBWaitCount          *prometheus.GaugeVec
	DBWaitDurationSecond *prometheus.GaugeVec

	// Доменные метрики
	AppointmentsCreated   *prometheus.CounterVec
	SlotConflicts         *prometheus.CounterVec
	StatusTransitions     *prometheus.CounterVec
	BalanceRecomputations *prometheus.CounterVec
}

// New регистрирует метрики в глобальном реестре prometheus
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer регистрирует метрики в переданном реестре (удобно для тестов)
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),

		DBOpenConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of established connections",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBInUseConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBIdleConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle connections",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBWaitCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBWaitDurationSecond: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_duration_seconds",
			Help:        "Total time blocked waiting for a new connection",
			ConstLabels: constLabels,
		}, []string{"db"}),

		AppointmentsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "appointments_created_total",
			Help:        "Appointments created, by initial status",
			ConstLabels: constLabels,
		}, []string{"status"}),

		SlotConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "appointment_slot_conflicts_total",
			Help:        "Booking attempts rejected because the slot was taken",
			ConstLabels: constLabels,
		}, []string{"source"}),

		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "appointment_status_transitions_total",
			Help:        "Appointment status transitions",
			ConstLabels: constLabels,
		}, []string{"from", "to"}),

		BalanceRecomputations: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "provider_balance_recomputations_total",
			Help:        "Provider balance recomputations, by result",
			ConstLabels: constLabels,
		}, []string{"result"}),
	}
}

// ObserveTransition увеличивает счетчик переходов статуса (nil-safe)
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(from, to).Inc()
}

// ObserveAppointmentCreated увеличивает счетчик созданных записей (nil-safe)
func (m *Metrics) ObserveAppointmentCreated(status string) {
	if m == nil {
		return
	}
	m.AppointmentsCreated.WithLabelValues(status).Inc()
}

// ObserveSlotConflict увеличивает счетчик конфликтов слотов (nil-safe)
func (m *Metrics) ObserveSlotConflict(source string) {
	if m == nil {
		return
	}
	m.SlotConflicts.WithLabelValues(source).Inc()
}

// ObserveRecompute увеличивает счетчик пересчетов баланса (nil-safe)
func (m *Metrics) ObserveRecompute(result string) {
	if m == nil {
		return
	}
	m.BalanceRecomputations.WithLabelValues(result).Inc()
}
