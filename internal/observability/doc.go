// Package observability exposes analysis runs as Prometheus metrics.
package observability
