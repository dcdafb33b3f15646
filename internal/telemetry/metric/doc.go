// Package metric collects Prometheus metrics for one sdncli invocation.
//
// A CLI process is too short-lived to be scraped, so the registry is
// written out with WriteTextfile when --metrics-file is set and the
// node_exporter textfile collector picks it up from there.
package metric
