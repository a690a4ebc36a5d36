// Package middleware provides HTTP observability middleware and the
// prometheus-backed relay metrics recorder: request counting and timing
// for the REST surface, OpenTelemetry spans per request, and gauges and
// counters for relay sessions, events, and broadcasts.
package middleware
