package health

import (
	"context"
	"fmt"

	"github.com/hongliangan/inflight/adaptive"
)

// MemoryCheckerConfig configures the memory pressure checker.
type MemoryCheckerConfig struct {
	// Probe supplies memory pressure. Default: runtime probe.
	Probe adaptive.ResourceProbe

	// WarningThreshold is the pressure fraction that triggers degraded status.
	// Default: 0.8.
	WarningThreshold float64

	// CriticalThreshold is the pressure fraction that triggers unhealthy status.
	// Default: 0.95.
	CriticalThreshold float64
}

// MemoryChecker reports device memory pressure. It reads the same resource
// probe the concurrency controller uses, so health output and throttling
// decisions agree.
type MemoryChecker struct {
	config MemoryCheckerConfig
}

// NewMemoryChecker creates a memory pressure checker.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	if config.Probe == nil {
		config.Probe = adaptive.NewRuntimeProbe(0)
	}
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = config.WarningThreshold
	}

	return &MemoryChecker{config: config}
}

// Name returns the name of this checker.
func (m *MemoryChecker) Name() string {
	return "memory"
}

// Check reads memory pressure and classifies it against the thresholds.
func (m *MemoryChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	pressure := m.config.Probe.MemoryPressure()
	details := map[string]any{
		"pressure":           pressure,
		"warning_threshold":  m.config.WarningThreshold,
		"critical_threshold": m.config.CriticalThreshold,
	}

	switch {
	case pressure >= m.config.CriticalThreshold:
		return Unhealthy(
			fmt.Sprintf("memory pressure critical: %.0f%%", pressure*100),
			ErrCheckFailed,
		).WithDetails(details)
	case pressure >= m.config.WarningThreshold:
		return Degraded(
			fmt.Sprintf("memory pressure high: %.0f%%", pressure*100),
		).WithDetails(details)
	default:
		return Healthy(
			fmt.Sprintf("memory pressure normal: %.0f%%", pressure*100),
		).WithDetails(details)
	}
}
