// Package telemetry bootstraps OpenTelemetry tracing for guardstack and
// records metrics describing chain-of-verification behaviour.
package telemetry
