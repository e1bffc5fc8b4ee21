package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keithlinneman/yummigo-web/internal/version"
)

// ServerMetrics owns a private registry with the process collectors, HTTP
// request metrics and the content, upload, auth and watcher series. Labels
// are bounded: routes are chi patterns, buckets are validated names.
type ServerMetrics struct {
	reg     *prometheus.Registry
	handler http.Handler

	inflight    prometheus.Gauge
	reqTotal    *prometheus.CounterVec
	reqDur      *prometheus.HistogramVec
	respBytes   *prometheus.HistogramVec
	errorsTotal *prometheus.CounterVec
	panicsTotal prometheus.Counter

	buildInfo       *prometheus.GaugeVec
	profilingActive prometheus.Gauge

	rateLimitDenied   *prometheus.CounterVec
	rateLimitCapacity prometheus.Counter

	contentInfo     *prometheus.GaugeVec
	contentLoadedTs prometheus.Gauge
	contentSaves    *prometheus.CounterVec
	contentEdits    prometheus.Counter
	contentLoadDur  prometheus.Histogram

	uploadsTotal  *prometheus.CounterVec
	uploadBytes   prometheus.Histogram
	imageDeletes  *prometheus.CounterVec
	loginAttempts *prometheus.CounterVec

	watcherPolls       prometheus.Counter
	watcherSwaps       prometheus.Counter
	watcherErrors      *prometheus.CounterVec
	watcherLastSuccess prometheus.Gauge
	watcherStale       prometheus.Gauge
}

func New() *ServerMetrics {
	m := &ServerMetrics{
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests",
		}),
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		}, []string{"method", "route", "status"}),
		reqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency by method and route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		respBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Response size by method and route",
			Buckets: prometheus.ExponentialBuckets(256, 4, 9),
		}, []string{"method", "route"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total 5xx HTTP server errors by method and route",
		}, []string{"method", "route"}),
		panicsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_panic_total",
			Help: "Total number of recovered handler panics",
		}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build metadata (value is always 1)",
		}, []string{"app", "version", "commit", "build_date", "go_version", "vcs_modified"}),
		profilingActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "profiling_active",
			Help: "Whether continuous profiling is active (1) or disabled/failed (0)",
		}),
		rateLimitDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_rate_limited_total",
			Help: "Requests rejected by a rate limiter, by limiter",
		}, []string{"limiter"}),
		rateLimitCapacity: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_requests_rate_limited_capacity_total",
			Help: "Times a rate limiter hit its client table capacity",
		}),
		contentInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "content_info",
			Help: "Active content document (labels carry identity, value is always 1)",
		}, []string{"source", "sha256"}),
		contentLoadedTs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "content_loaded_timestamp_seconds",
			Help: "Unix timestamp of when the active content document was loaded",
		}),
		contentSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_saves_total",
			Help: "Content document writes by operation and result",
		}, []string{"op", "result"}),
		contentEdits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "content_field_edits_total",
			Help: "Individual path edits applied to the content document",
		}),
		contentLoadDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "content_load_duration_seconds",
			Help:    "Time to read and decode the content document from its store",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		uploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "image_uploads_total",
			Help: "Image uploads by bucket and result",
		}, []string{"bucket", "result"}),
		uploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "image_upload_size_bytes",
			Help:    "Size of accepted image uploads",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 9),
		}),
		imageDeletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "image_deletes_total",
			Help: "Image deletions by bucket and result",
		}, []string{"bucket", "result"}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_auth_attempts_total",
			Help: "Admin authentication attempts by kind and result",
		}, []string{"kind", "result"}),
		watcherPolls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "content_watcher_polls_total",
			Help: "Total number of watcher poll cycles",
		}),
		watcherSwaps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "content_watcher_swaps_total",
			Help: "Times the watcher activated a changed document",
		}),
		watcherErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_watcher_errors_total",
			Help: "Total watcher errors by type",
		}, []string{"type"}),
		watcherLastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "content_watcher_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful poll",
		}),
		watcherStale: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "content_watcher_stale",
			Help: "Whether the content watcher is stale (1) or healthy (0)",
		}),
	}

	m.reg = prometheus.NewRegistry()
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.inflight, m.reqTotal, m.reqDur, m.respBytes, m.errorsTotal, m.panicsTotal,
		m.buildInfo, m.profilingActive,
		m.rateLimitDenied, m.rateLimitCapacity,
		m.contentInfo, m.contentLoadedTs, m.contentSaves, m.contentEdits, m.contentLoadDur,
		m.uploadsTotal, m.uploadBytes, m.imageDeletes, m.loginAttempts,
		m.watcherPolls, m.watcherSwaps, m.watcherErrors, m.watcherLastSuccess, m.watcherStale,
	)
	m.handler = promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
	return m
}

func (m *ServerMetrics) Handler() http.Handler { return m.handler }

// Registry exposes the registry for tests and extra collectors.
func (m *ServerMetrics) Registry() *prometheus.Registry { return m.reg }

// SetBuildInfo is called once at startup.
func (m *ServerMetrics) SetBuildInfo(vi version.Info) {
	modified := "unknown"
	if vi.Modified != nil {
		modified = strconv.FormatBool(*vi.Modified)
	}
	m.buildInfo.WithLabelValues(vi.App, vi.Version, vi.Commit, vi.BuildDate, vi.GoVersion, modified).Set(1)
}

func (m *ServerMetrics) IncHttpPanic() { m.panicsTotal.Inc() }

func (m *ServerMetrics) SetProfilingActive(active bool) { m.profilingActive.Set(boolGauge(active)) }

func (m *ServerMetrics) IncRateLimitDenied(limiter string) {
	m.rateLimitDenied.WithLabelValues(limiter).Inc()
}

func (m *ServerMetrics) IncRateLimitCapacity() { m.rateLimitCapacity.Inc() }

// SetContent records the document now being served.
func (m *ServerMetrics) SetContent(source, sha256 string, loadedAt time.Time) {
	m.contentInfo.Reset()
	m.contentInfo.WithLabelValues(source, sha256).Set(1)
	m.contentLoadedTs.Set(float64(loadedAt.Unix()))
}

func (m *ServerMetrics) ObserveContentLoad(d time.Duration) { m.contentLoadDur.Observe(d.Seconds()) }

func (m *ServerMetrics) IncContentSave(op string, err error) {
	m.contentSaves.WithLabelValues(op, result(err)).Inc()
}

func (m *ServerMetrics) AddContentEdits(n int) { m.contentEdits.Add(float64(n)) }

func (m *ServerMetrics) ObserveUpload(bucket string, size int64, err error) {
	m.uploadsTotal.WithLabelValues(bucket, result(err)).Inc()
	if err == nil {
		m.uploadBytes.Observe(float64(size))
	}
}

func (m *ServerMetrics) IncImageDelete(bucket string, err error) {
	m.imageDeletes.WithLabelValues(bucket, result(err)).Inc()
}

// IncAuthAttempt counts a login ("password") or key check ("api_key").
func (m *ServerMetrics) IncAuthAttempt(kind string, err error) {
	m.loginAttempts.WithLabelValues(kind, result(err)).Inc()
}

func (m *ServerMetrics) IncWatcherPolls() { m.watcherPolls.Inc() }
func (m *ServerMetrics) IncWatcherSwaps() { m.watcherSwaps.Inc() }
func (m *ServerMetrics) IncWatcherError(errType string) {
	m.watcherErrors.WithLabelValues(errType).Inc()
}
func (m *ServerMetrics) SetWatcherLastSuccess(t time.Time) {
	m.watcherLastSuccess.Set(float64(t.Unix()))
}
func (m *ServerMetrics) SetWatcherStale(stale bool) { m.watcherStale.Set(boolGauge(stale)) }

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
