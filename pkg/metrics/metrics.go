package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inspectrack/inspectrack/internal/common/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry     *prometheus.Registry
	namespace    string
	httpReqCnt   *prometheus.CounterVec
	httpDur      *prometheus.HistogramVec
	httpInfl     *prometheus.GaugeVec
	eventsPub    *prometheus.CounterVec
	inspComplete *prometheus.CounterVec
	alertsCnt    *prometheus.CounterVec
	subscribers  *prometheus.GaugeVec
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	if ns == "" {
		ns = "inspectrack"
	}
	r := prometheus.NewRegistry()
	// Register standard process and Go collectors
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: cfg.Buckets}, []string{"method", "route", "status"})
	httpInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "http_requests_inflight"}, []string{"route"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl)

	eventsPub := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "events_published_total"}, []string{"event"})
	inspComplete := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "inspections_completed_total"}, []string{"company"})
	alertsCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "quality_alerts_total"}, []string{"severity", "type"})
	subscribers := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "realtime_subscribers"}, []string{"audience"})
	r.MustRegister(eventsPub, inspComplete, alertsCnt, subscribers)

	return &Metrics{
		registry:     r,
		namespace:    ns,
		httpReqCnt:   httpReqCnt,
		httpDur:      httpDur,
		httpInfl:     httpInfl,
		eventsPub:    eventsPub,
		inspComplete: inspComplete,
		alertsCnt:    alertsCnt,
		subscribers:  subscribers,
	}
}

func (m *Metrics) EventPublished(event string) {
	m.eventsPub.WithLabelValues(event).Inc()
}

func (m *Metrics) InspectionCompleted(companyID uint) {
	m.inspComplete.WithLabelValues(strconv.FormatUint(uint64(companyID), 10)).Inc()
}

func (m *Metrics) AlertTriggered(severity, alertType string) {
	m.alertsCnt.WithLabelValues(severity, alertType).Inc()
}

func (m *Metrics) SubscriberAttached(audience string) {
	m.subscribers.WithLabelValues(audience).Inc()
}

func (m *Metrics) SubscriberDetached(audience string) {
	m.subscribers.WithLabelValues(audience).Dec()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		m.httpInfl.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
