package service

import (
	"errors"
	"time"

	"github.com/milad/nem12/internal/nem12"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	parseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nem12_parse_total",
			Help: "Total number of NEM12 payloads parsed, by result.",
		},
		[]string{"result"},
	)
	parseDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nem12_parse_duration_seconds",
			Help:    "NEM12 parse latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	meterReadsParsedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nem12_meter_reads_parsed_total",
			Help: "Total number of meter reads produced by successful parses.",
		},
	)
	orphanVolumesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nem12_orphan_volumes_total",
			Help: "Total number of volume records skipped for lack of a parent meter read.",
		},
	)
)

func observeParse(err error, reads int, dur time.Duration) {
	parseDurationSeconds.Observe(dur.Seconds())
	parseTotal.WithLabelValues(parseResultLabel(err)).Inc()
	if err == nil {
		meterReadsParsedTotal.Add(float64(reads))
	}
}

func parseResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, nem12.ErrFormat):
		return "format_error"
	case errors.Is(err, nem12.ErrIO):
		return "io_error"
	default:
		return "error"
	}
}
