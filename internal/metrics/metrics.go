package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
)

const namespace = "sirius_schedule"

// Metrics коллекторы сервиса. Все методы безопасны для nil.
type Metrics struct {
	resolveTotal       *prometheus.CounterVec
	fetchDuration      *prometheus.HistogramVec
	online             prometheus.Gauge
	restartSuggestions prometheus.Counter
	notificationsSent  prometheus.Counter
	refreshRuns        *prometheus.CounterVec
}

// New регистрирует коллекторы в reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_total",
			Help:      "Terminal outcomes of schedule resolve sequences.",
		}, []string{"state", "stale", "reason"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Latency of remote schedule fetches.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"result"}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connectivity_online",
			Help:      "1 when the schedule API is reachable.",
		}),
		restartSuggestions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restart_suggestions_total",
			Help:      "Restart suggestions issued to sessions after reconnect.",
		}),
		notificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Upcoming lesson notifications delivered.",
		}),
		refreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "background_refresh_total",
			Help:      "Background refresh runs per entity by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.resolveTotal,
		m.fetchDuration,
		m.online,
		m.restartSuggestions,
		m.notificationsSent,
		m.refreshRuns,
	)
	return m
}

// ObserveResolve учитывает терминальное состояние resolve
func (m *Metrics) ObserveResolve(outcome model.FetchOutcome) {
	if m == nil || !outcome.IsTerminal() {
		return
	}
	m.resolveTotal.WithLabelValues(
		outcome.State.String(),
		strconv.FormatBool(outcome.Stale),
		string(outcome.Reason),
	).Inc()
}

// ObserveFetch учитывает длительность запроса к API
func (m *Metrics) ObserveFetch(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.fetchDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

// SetOnline отражает состояние связи
func (m *Metrics) SetOnline(online bool) {
	if m == nil {
		return
	}
	if online {
		m.online.Set(1)
	} else {
		m.online.Set(0)
	}
}

func (m *Metrics) RestartSuggested() {
	if m == nil {
		return
	}
	m.restartSuggestions.Inc()
}

func (m *Metrics) NotificationSent() {
	if m == nil {
		return
	}
	m.notificationsSent.Inc()
}

// RefreshRun учитывает фоновое обновление: ok, stale, error
func (m *Metrics) RefreshRun(result string) {
	if m == nil {
		return
	}
	m.refreshRuns.WithLabelValues(result).Inc()
}
