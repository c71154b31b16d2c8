// Package prometheus renders goToken counters and latency histograms in the
// Prometheus text exposition format.
//
// Counters are named gotoken_*_total and histograms gotoken_*_latency_seconds.
// Nothing is registered globally; mount [PrometheusExporter.Handler] where
// the scraper expects it.
package prometheus
