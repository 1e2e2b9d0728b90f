// Package metrics holds the Prometheus instruments for a batch run.
//
// Each run gets its own registry; batch jobs dump it to a node-exporter
// textfile at exit instead of serving /metrics.
//
//	iptv_mirror_probes_total            counter: probe requests by method/outcome
//	iptv_mirror_probe_retries_429_total counter: 429 backoffs
//	iptv_mirror_proxy_rotations_total   counter: attempts moved to another proxy
//	iptv_mirror_probe_duration_seconds  histogram: probe latency by method
//	iptv_mirror_valid_links             gauge: valid links in the last validate run
//	iptv_mirror_epg_downloads_total     counter: EPG feed downloads by result
//	iptv_mirror_last_run_timestamp      gauge: unix time each stage finished
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	Registry *prometheus.Registry

	probes         *prometheus.CounterVec
	retries429     prometheus.Counter
	proxyRotations prometheus.Counter
	probeDuration  *prometheus.HistogramVec
	validLinks     prometheus.Gauge
	epgDownloads   *prometheus.CounterVec
	lastRun        *prometheus.GaugeVec
}

// New builds and registers the instruments on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iptv_mirror_probes_total",
			Help: "Probe requests by HTTP method and outcome.",
		}, []string{"method", "outcome"}),
		retries429: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iptv_mirror_probe_retries_429_total",
			Help: "Probe attempts that backed off after HTTP 429.",
		}),
		proxyRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iptv_mirror_proxy_rotations_total",
			Help: "Probe attempts retried through a different proxy.",
		}),
		probeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "iptv_mirror_probe_duration_seconds",
			Help:    "Latency of a single probe request.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		validLinks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "iptv_mirror_valid_links",
			Help: "Valid links found by the last validate run.",
		}),
		epgDownloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iptv_mirror_epg_downloads_total",
			Help: "EPG feed downloads by result.",
		}, []string{"result"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "iptv_mirror_last_run_timestamp",
			Help: "Unix time the stage last finished.",
		}, []string{"stage", "status"}),
	}
	m.Registry.MustRegister(m.probes, m.retries429, m.proxyRotations, m.probeDuration,
		m.validLinks, m.epgDownloads, m.lastRun)
	return m
}

func (m *Metrics) ObserveProbe(method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(method, outcome).Inc()
	m.probeDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) Retry429() {
	if m == nil {
		return
	}
	m.retries429.Inc()
}

func (m *Metrics) ProxyRotation() {
	if m == nil {
		return
	}
	m.proxyRotations.Inc()
}

func (m *Metrics) SetValidLinks(n int) {
	if m == nil {
		return
	}
	m.validLinks.Set(float64(n))
}

func (m *Metrics) EPGDownload(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.epgDownloads.WithLabelValues(result).Inc()
}

// StageDone records the finish time of a command stage.
func (m *Metrics) StageDone(stage string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.lastRun.WithLabelValues(stage, status).SetToCurrentTime()
}

// WriteTextfile writes the registry in text exposition format for the node-exporter
// textfile collector. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
