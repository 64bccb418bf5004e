// Package bench drives repeated requests against one endpoint at a
// paced rate and aggregates latencies into an HDR histogram for
// percentile reporting.
package bench
