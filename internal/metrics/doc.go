// Package metrics records preview pipeline metrics.
//
// Components receive a Recorder. NoopRecorder is the default so call sites
// never check for nil; NewPrometheusRecorder activates real collection and
// HTTPHandler exposes it.
//
//	rec := metrics.NewPrometheusRecorder(reg)
//	ctrl := preview.NewController(deps, preview.WithRecorder(rec))
package metrics
