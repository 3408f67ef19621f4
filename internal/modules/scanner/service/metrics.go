package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics: prometheus-коллекторы цикла сканирования.
type Metrics struct {
	Cycles        *prometheus.CounterVec // labels: result=done|paused|failed
	CycleDuration prometheus.Histogram
	Assets        *prometheus.CounterVec // labels: outcome
	Matches       *prometheus.CounterVec // labels: setup
	Alerts        *prometheus.CounterVec // labels: setup, result=sent|suppressed|failed
	LastCycle     prometheus.Gauge
}

// NewMetrics регистрирует коллекторы в reg. nil — prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_cycles_total",
			Help: "Scan cycles by result",
		}, []string{"result"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scanner_cycle_duration_seconds",
			Help:    "Wall time of one scan cycle",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		Assets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_assets_total",
			Help: "Per-asset outcomes: scanned, insufficient, error",
		}, []string{"outcome"}),
		Matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_setup_matches_total",
			Help: "Setup matches by setup id",
		}, []string{"setup"}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_alerts_total",
			Help: "Alert decisions by setup and result",
		}, []string{"setup", "result"}),
		LastCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scanner_last_cycle_timestamp_seconds",
			Help: "Unix time the last cycle finished",
		}),
	}
	reg.MustRegister(m.Cycles, m.CycleDuration, m.Assets, m.Matches, m.Alerts, m.LastCycle)
	return m
}
