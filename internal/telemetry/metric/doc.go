// Package metric provides Prometheus metrics for the Timi client.
//
//   - prometheus.go: session transition, route decision and backend
//     request metrics on a private registry
//   - collector.go: a collector reporting token store size on scrape
//
// A CLI has no /metrics endpoint; the registry is written to a node
// exporter textfile when --metrics-file is given.
package metric
