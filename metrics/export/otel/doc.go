// Package otel exports storeauth engine counters through an OpenTelemetry
// meter. Counters are observable: values are pulled from engine snapshots
// at collection time, so the hot path never touches the OTel SDK.
package otel
