// Package prometheus exposes storeauth engine counters in Prometheus text
// exposition format without depending on the Prometheus client library.
// Mount [Exporter.Handler] on a scrape endpoint.
package prometheus
