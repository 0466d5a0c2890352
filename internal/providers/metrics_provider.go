package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"streakd/internal/structures"
	"time"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	IncEventsTotal(eventType string)
	IncQualifications(criterion string)
	IncStreakResets()
	IncMilestones(milestone string)
	SetProfilesLoaded(count int)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	eventsTotal         *prometheus.CounterVec
	qualifications      *prometheus.CounterVec
	streakResets        prometheus.Counter
	milestones          *prometheus.CounterVec
	profilesLoaded      prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncEventsTotal(eventType string) {
	m.eventsTotal.WithLabelValues(eventType).Inc()
}

func (m *MetricsProvider) IncQualifications(criterion string) {
	m.qualifications.WithLabelValues(criterion).Inc()
}

func (m *MetricsProvider) IncStreakResets() {
	m.streakResets.Inc()
}

func (m *MetricsProvider) IncMilestones(milestone string) {
	m.milestones.WithLabelValues(milestone).Inc()
}

func (m *MetricsProvider) SetProfilesLoaded(count int) {
	m.profilesLoaded.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streakd_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "streakd_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streakd_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streakd_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "streakd_persistence_duration_seconds",
			Help:    "Duration of state blob writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		eventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streakd_events_total",
			Help: "Reader events accepted, by type",
		}, []string{"type"}),

		qualifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streakd_qualifications_total",
			Help: "Qualified days recorded, by criterion",
		}, []string{"criterion"}),

		streakResets: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streakd_streak_resets_total",
			Help: "Streaks expired after a missed day",
		}),

		milestones: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streakd_milestones_total",
			Help: "Milestones achieved, by milestone",
		}, []string{"milestone"}),

		profilesLoaded: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streakd_profiles_loaded",
			Help: "Number of profiles with a live engine",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncEventsTotal(_ string)                          {}
func (n *noopMetrics) IncQualifications(_ string)                       {}
func (n *noopMetrics) IncStreakResets()                                 {}
func (n *noopMetrics) IncMilestones(_ string)                           {}
func (n *noopMetrics) SetProfilesLoaded(_ int)                          {}
