package metrics

import "time"

// GateLabel names the gate that stopped a change.
type GateLabel string

const (
	GateChange GateLabel = "change"
	GateHealth GateLabel = "health"
)

// Recorder defines the observability hooks of the preview pipeline.
type Recorder interface {
	ObserveBuildDuration(channel string, d time.Duration)
	IncBuildOutcome(status string)
	IncGateSkip(gate GateLabel)
	IncStaleCompletion()
	SetInflightBuilds(n int)
	SetStatus(status string)
	ObserveAnnotations(errors, warnings int)
	SetBackendHealthy(healthy bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are disabled).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(string, time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) IncGateSkip(GateLabel)                      {}
func (NoopRecorder) IncStaleCompletion()                        {}
func (NoopRecorder) SetInflightBuilds(int)                      {}
func (NoopRecorder) SetStatus(string)                           {}
func (NoopRecorder) ObserveAnnotations(int, int)                {}
func (NoopRecorder) SetBackendHealthy(bool)                     {}
