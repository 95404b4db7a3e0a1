// Package metrics exports scan results in the Prometheus text format,
// for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pratik-anurag/openport/internal/model"
)

// Snapshot holds the gauges for one scan on a private registry.
type Snapshot struct {
	reg *prometheus.Registry

	Sockets      *prometheus.GaugeVec
	RiskySockets *prometheus.GaugeVec
	Malformed    prometheus.Gauge
	Success      prometheus.Gauge
	LastScan     prometheus.Gauge
}

func NewSnapshot() *Snapshot {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Snapshot{
		reg: reg,
		Sockets: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "openport_sockets",
			Help: "Sockets observed in the last scan",
		}, []string{"protocol"}),
		RiskySockets: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "openport_risky_sockets",
			Help: "Sockets bound to a known risky local port",
		}, []string{"service", "port", "protocol"}),
		Malformed: f.NewGauge(prometheus.GaugeOpts{
			Name: "openport_malformed_records",
			Help: "OS records skipped because they could not be read",
		}),
		Success: f.NewGauge(prometheus.GaugeOpts{
			Name: "openport_enumeration_success",
			Help: "1 if the OS connection table could be read",
		}),
		LastScan: f.NewGauge(prometheus.GaugeOpts{
			Name: "openport_last_scan_timestamp_seconds",
			Help: "Unix time of the last scan",
		}),
	}
}

// Record sets every gauge from one scan. Earlier values are replaced.
func (s *Snapshot) Record(recs []model.AnnotatedRecord, malformed int, ok bool, at time.Time) {
	s.Sockets.Reset()
	s.RiskySockets.Reset()
	s.Sockets.WithLabelValues(model.TCP.Lower()).Set(0)
	s.Sockets.WithLabelValues(model.UDP.Lower()).Set(0)

	for _, r := range recs {
		s.Sockets.WithLabelValues(r.Protocol.Lower()).Inc()
		if r.Security.IsRisky() {
			s.RiskySockets.WithLabelValues(r.ServiceName, r.LocalPort.String(), r.Protocol.Lower()).Inc()
		}
	}
	s.Malformed.Set(float64(malformed))
	if ok {
		s.Success.Set(1)
	} else {
		s.Success.Set(0)
	}
	s.LastScan.Set(float64(at.Unix()))
}

// Gatherer exposes the registry, e.g. for an HTTP handler.
func (s *Snapshot) Gatherer() prometheus.Gatherer {
	return s.reg
}

// WriteTextfile writes the registry to path atomically.
func (s *Snapshot) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, s.reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
