// Package internaldefs holds the shared metric name and help-text
// definitions used by the Prometheus and OTel exporters. It exists so the
// two exporters cannot drift apart; nothing else should import it.
package internaldefs
