package plugin

// Type represents the functional category of a plugin within the pipeline.
type Type string

const (
	// TypeSource plugins ingest raw telemetry records into the pipeline.
	TypeSource Type = "source"
	// TypeProcessor plugins transform, enrich or validate records.
	TypeProcessor Type = "processor"
	// TypeSink plugins route processed records out of the pipeline.
	TypeSink Type = "sink"
)

// Capability expresses optional features a plugin may request access to.
type Capability string

const (
	CapabilityFilesystem Capability = "filesystem"
	CapabilityNetwork    Capability = "network"
	CapabilityExecution  Capability = "execution"
)

// Info contains descriptive metadata for a plugin implementation. Version is
// the pipeline contract version the plugin was built against; activation is
// refused when it is not compatible with the running pipeline.
type Info struct {
	ID           string
	Name         string
	Description  string
	Author       string
	Version      string
	Category     Type
	Capabilities []Capability
}

// State represents the lifecycle position of a plugin instance.
type State string

const (
	StateRegistered  State = "registered"
	StateInitialised State = "initialised"
	StateStarted     State = "started"
	StateStopped     State = "stopped"
)
