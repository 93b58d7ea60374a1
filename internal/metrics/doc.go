// Package metrics records install and health metrics for astro runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no caller needs nil checks. When a command is given
// --metrics-file, a PrometheusRecorder backed by a private registry is used
// instead and its registry is written in the node_exporter textfile format
// at the end of the run:
//
//	reg := prom.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	inst := installer.New(reg, ..., installer.WithRecorder(recorder))
//	...
//	err := metrics.WriteTextfile(path, reg)
package metrics
