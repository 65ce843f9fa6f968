package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kitbuilder587/gnews-go/pkg/gnews"
)

type Metrics struct {
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec

	BotUpdatesTotal    *prometheus.CounterVec
	BotUpdateDuration  *prometheus.HistogramVec
	BotUpdatesInFlight prometheus.Gauge

	RateLimitHitsTotal prometheus.Counter

	gatherer prometheus.Gatherer
}

var _ gnews.Observer = (*Metrics)(nil)

// New регистрирует метрики в глобальном реестре. Вызывать один раз на процесс.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gnews_api_requests_total",
				Help: "Total number of GNews API requests",
			},
			[]string{"endpoint", "outcome"},
		),
		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gnews_api_request_duration_seconds",
				Help:    "GNews API request duration in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"endpoint"},
		),

		BotUpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gnews_bot_updates_total",
				Help: "Total number of Telegram updates processed",
			},
			[]string{"type", "status"},
		),
		BotUpdateDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gnews_bot_update_duration_seconds",
				Help:    "Telegram update handling duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"type"},
		),
		BotUpdatesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "gnews_bot_updates_in_flight",
				Help: "Number of Telegram updates currently being handled",
			},
		),

		RateLimitHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "gnews_bot_rate_limit_hits_total",
				Help: "Total number of throttled bot requests",
			},
		),

		gatherer: gatherer,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(endpoint, outcome string, duration time.Duration) {
	m.APIRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.APIRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *Metrics) RecordUpdate(updateType, status string, duration time.Duration) {
	m.BotUpdatesTotal.WithLabelValues(updateType, status).Inc()
	m.BotUpdateDuration.WithLabelValues(updateType).Observe(duration.Seconds())
}

// без user_id в лейблах: кардинальность
func (m *Metrics) RecordRateLimitHit() {
	m.RateLimitHitsTotal.Inc()
}

func (m *Metrics) IncUpdatesInFlight() {
	m.BotUpdatesInFlight.Inc()
}

func (m *Metrics) DecUpdatesInFlight() {
	m.BotUpdatesInFlight.Dec()
}
