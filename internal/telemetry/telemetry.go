// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package telemetry provides opt-in Prometheus instrumentation for a
// pipeline run, adapted from the churn exporter pattern: global (non-per-key)
// metrics registered eagerly, a no-op default, and an optional standalone
// /metrics HTTP endpoint.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the Prometheus instrumentation surface for a pipeline
// run: queue depths, per-module dispatch duration, per-server load, and
// error-kind counters (ServerUnreachable, TransportError, ModuleRunError).
type Metrics struct {
	reg *prometheus.Registry

	inputQueueDepth  prometheus.Gauge
	outputQueueDepth prometheus.Gauge
	dispatchDuration *prometheus.HistogramVec
	serverLoad       *prometheus.GaugeVec
	errorsTotal      *prometheus.CounterVec
}

// New builds a fresh, independently-registered Metrics instance. Using a
// private registry (rather than prometheus.MustRegister into the global
// default registry) lets a test or a second Controller run in the same
// process without a duplicate-registration panic.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		inputQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corrigo_input_queue_depth",
			Help: "Number of unit payloads buffered in the input queue.",
		}),
		outputQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corrigo_output_queue_depth",
			Help: "Number of result records buffered in the output queue.",
		}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "corrigo_module_dispatch_seconds",
			Help:    "Per-module dispatch wall-clock duration, local and remote.",
			Buckets: prometheus.DefBuckets,
		}, []string{"module", "remote"}),
		serverLoad: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "corrigo_server_load",
			Help: "Last load value reported by a remote module server's %GETLOAD% frame.",
		}, []string{"module", "server"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corrigo_errors_total",
			Help: "Count of pipeline error kinds (ServerUnreachable, TransportError, ModuleRunError).",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.inputQueueDepth, m.outputQueueDepth, m.dispatchDuration, m.serverLoad, m.errorsTotal)
	return m
}

// SetInputQueueDepth records the current input queue length.
func (m *Metrics) SetInputQueueDepth(n int) { m.inputQueueDepth.Set(float64(n)) }

// SetOutputQueueDepth records the current output queue length.
func (m *Metrics) SetOutputQueueDepth(n int) { m.outputQueueDepth.Set(float64(n)) }

// ObserveDispatch implements pipeline.Telemetry: records one module
// dispatch's duration, labeled by whether it ran locally or remotely.
func (m *Metrics) ObserveDispatch(moduleID string, d time.Duration, remote bool) {
	label := "false"
	if remote {
		label = "true"
	}
	m.dispatchDuration.WithLabelValues(moduleID, label).Observe(d.Seconds())
}

// IncError implements pipeline.Telemetry: increments the named error-kind
// counter. kind is expected to be one of "ServerUnreachable",
// "TransportError", or "ModuleRunError".
func (m *Metrics) IncError(kind string) { m.errorsTotal.WithLabelValues(kind).Inc() }

// SetServerLoad records a load value for a module/server pair. Neither the
// pipeline nor findservers calls it.
func (m *Metrics) SetServerLoad(moduleID, server string, load float64) {
	m.serverLoad.WithLabelValues(moduleID, server).Set(load)
}

// Handler returns the HTTP handler serving this instance's /metrics page.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// ServeAddr starts a standalone HTTP server exposing /metrics at addr,
// mirroring churn.startMetricsEndpoint. It runs until ctx is canceled.
func (m *Metrics) ServeAddr(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
