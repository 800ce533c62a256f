package adaptive

import "runtime"

// ResourceProbe reports device characteristics used to bound concurrency.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - ProcessorCount is static and may be read once at startup.
// - MemoryPressure is sampled on every limit computation and must be cheap.
type ResourceProbe interface {
	// MemoryPressure returns resident memory as a fraction of total, 0..1.
	MemoryPressure() float64

	// ProcessorCount returns the number of usable processors.
	ProcessorCount() int
}

const defaultTotalMemory = 4 << 30 // assume 4GiB when the platform total is unknown

// RuntimeProbe is the production probe backed by the Go runtime.
type RuntimeProbe struct {
	totalMemory uint64
}

// NewRuntimeProbe creates a probe. totalMemoryBytes is the device memory to
// measure pressure against; 0 selects a conservative default.
func NewRuntimeProbe(totalMemoryBytes uint64) *RuntimeProbe {
	if totalMemoryBytes == 0 {
		totalMemoryBytes = defaultTotalMemory
	}
	return &RuntimeProbe{totalMemory: totalMemoryBytes}
}

// MemoryPressure returns heap bytes obtained from the system as a fraction
// of total device memory, clamped to 0..1.
func (p *RuntimeProbe) MemoryPressure() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	pressure := float64(m.Sys) / float64(p.totalMemory)
	if pressure > 1 {
		pressure = 1
	}
	return pressure
}

// ProcessorCount returns the number of logical CPUs.
func (p *RuntimeProbe) ProcessorCount() int {
	return runtime.NumCPU()
}

// StaticProbe is a deterministic probe for tests.
type StaticProbe struct {
	Pressure   float64
	Processors int
}

// MemoryPressure returns the configured pressure.
func (p *StaticProbe) MemoryPressure() float64 { return p.Pressure }

// ProcessorCount returns the configured processor count.
func (p *StaticProbe) ProcessorCount() int { return p.Processors }

// Ensure both probes implement ResourceProbe
var (
	_ ResourceProbe = (*RuntimeProbe)(nil)
	_ ResourceProbe = (*StaticProbe)(nil)
)
