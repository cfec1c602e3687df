package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SessionSource gives the collector access to live transcription state.
type SessionSource interface {
	ActiveSessions() int
	BaseURL() string
}

// Collector implements prometheus.Collector to read live gauges at scrape time.
type Collector struct {
	source SessionSource

	activeSessions *prometheus.Desc
	backendInfo    *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time.
// source may be nil (metrics will report 0).
func NewCollector(source SessionSource) *Collector {
	return &Collector{
		source: source,
		activeSessions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "active_sessions"),
			"Transcription sessions currently buffering or awaiting the ASR service.",
			nil, nil,
		),
		backendInfo: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "asr", "info"),
			"Configured ASR endpoint.",
			[]string{"url"}, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeSessions
	ch <- c.backendInfo
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.source == nil {
		ch <- prometheus.MustNewConstMetric(c.activeSessions, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.activeSessions, prometheus.GaugeValue, float64(c.source.ActiveSessions()))
	ch <- prometheus.MustNewConstMetric(c.backendInfo, prometheus.GaugeValue, 1, c.source.BaseURL())
}
