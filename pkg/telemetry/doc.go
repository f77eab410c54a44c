// Package telemetry provides router observers that export metrics and
// traces.
//
// Metrics collected by Prometheus:
//   - navrouter_publishes_total: published values by route label
//   - navrouter_navigations_total: history changes by kind
//   - navrouter_redirects_total: redirects by target
//   - navrouter_errors_total: failed operations by operation and error code
//   - navrouter_active_sessions: dev server sessions
//   - navrouter_request_duration_seconds: dev server request latency
//
// Example:
//
//	metrics := telemetry.Prometheus(telemetry.WithNamespace("myapp"))
//	r := router.New(win, kv, router.WithObserver(
//	    telemetry.Multi(metrics, telemetry.Tracing()),
//	))
//
//	http.Handle("/metrics", promhttp.Handler())
package telemetry
