// Package otel publishes goToken metrics through an OpenTelemetry Meter.
//
// Each counter becomes an Int64ObservableCounter; each latency histogram
// becomes one Int64ObservableGauge per cumulative bucket plus a count gauge.
// The caller owns the MeterProvider.
package otel
