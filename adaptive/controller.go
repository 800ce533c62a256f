package adaptive

import (
	"sync"
	"time"
)

// NetworkTier classifies observed round-trip quality.
type NetworkTier int

const (
	// TierExcellent means fast round trips, full network ceiling.
	TierExcellent NetworkTier = iota
	// TierGood means moderate round trips.
	TierGood
	// TierFair means slow round trips.
	TierFair
	// TierPoor means very slow round trips, minimum ceiling.
	TierPoor
)

// String returns the string representation of the tier.
func (t NetworkTier) String() string {
	switch t {
	case TierExcellent:
		return "excellent"
	case TierGood:
		return "good"
	case TierFair:
		return "fair"
	case TierPoor:
		return "poor"
	default:
		return "unknown"
	}
}

// Tier boundaries on the round-trip EWMA.
const (
	excellentBelow = 150 * time.Millisecond
	goodBelow      = 400 * time.Millisecond
	fairBelow      = time.Second
)

// EWMA smoothing: avg = avg*0.8 + sample*0.2.
const ewmaWeight = 0.2

// Config configures the controller.
type Config struct {
	// Probe supplies device characteristics. Required.
	Probe ResourceProbe

	// MaxConcurrent caps the limit regardless of ceilings.
	// Default: 6.
	MaxConcurrent int
}

// Controller computes the enforced concurrency limit.
//
// The limit is min(network ceiling, device ceiling, memory ceiling): no
// signal can override another to permit more concurrency than the tightest
// constraint allows.
type Controller struct {
	probe         ResourceProbe
	maxConcurrent int
	deviceCeiling int // static, derived once at construction

	mu         sync.Mutex
	rttEWMA    time.Duration
	hasSamples bool
	activeLoad int
}

// NewController creates a controller. The device ceiling is derived from the
// probe's processor count once, at construction.
func NewController(cfg Config) *Controller {
	if cfg.Probe == nil {
		cfg.Probe = NewRuntimeProbe(0)
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 6
	}

	return &Controller{
		probe:         cfg.Probe,
		maxConcurrent: cfg.MaxConcurrent,
		deviceCeiling: deviceCeiling(cfg.Probe.ProcessorCount()),
	}
}

// Observe feeds a backend round-trip time into the moving average.
func (c *Controller) Observe(rtt time.Duration) {
	if rtt <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasSamples {
		c.rttEWMA = rtt
		c.hasSamples = true
		return
	}
	c.rttEWMA = time.Duration(float64(c.rttEWMA)*(1-ewmaWeight) + float64(rtt)*ewmaWeight)
}

// ObserveLoad records the current number of active backend calls, used for
// the load timeout multiplier.
func (c *Controller) ObserveLoad(active int) {
	c.mu.Lock()
	c.activeLoad = active
	c.mu.Unlock()
}

// Limit returns the enforced concurrency limit, always at least 1.
func (c *Controller) Limit() int {
	limit := c.networkCeiling()
	if c.deviceCeiling < limit {
		limit = c.deviceCeiling
	}
	if mc := memoryCeiling(c.probe.MemoryPressure()); mc < limit {
		limit = mc
	}
	if limit > c.maxConcurrent {
		limit = c.maxConcurrent
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

// Tier returns the current network quality classification.
func (c *Controller) Tier() NetworkTier {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tierLocked()
}

// RTT returns the current round-trip moving average.
func (c *Controller) RTT() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rttEWMA
}

// NetworkMultiplier returns the timeout multiplier for the current tier.
func (c *Controller) NetworkMultiplier() float64 {
	switch c.Tier() {
	case TierExcellent:
		return 1.0
	case TierGood:
		return 1.2
	case TierFair:
		return 1.6
	default:
		return 2.0
	}
}

// DeviceMultiplier returns the timeout multiplier for this device class.
func (c *Controller) DeviceMultiplier() float64 {
	switch {
	case c.deviceCeiling >= 6:
		return 1.0
	case c.deviceCeiling >= 4:
		return 1.2
	default:
		return 1.5
	}
}

// LoadMultiplier returns a timeout multiplier that grows with the ratio of
// active calls to the current limit, capped at 2.0.
func (c *Controller) LoadMultiplier() float64 {
	limit := c.Limit()

	c.mu.Lock()
	active := c.activeLoad
	c.mu.Unlock()

	if limit <= 0 || active <= 0 {
		return 1.0
	}
	mult := 1.0 + 0.5*float64(active)/float64(limit)
	if mult > 2.0 {
		mult = 2.0
	}
	return mult
}

// Snapshot reports the controller's current view, for stats and health.
type Snapshot struct {
	Limit          int
	Tier           NetworkTier
	RTT            time.Duration
	MemoryPressure float64
	DeviceCeiling  int
	ActiveLoad     int
}

// State returns a snapshot of the controller.
func (c *Controller) State() Snapshot {
	limit := c.Limit()

	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Limit:          limit,
		Tier:           c.tierLocked(),
		RTT:            c.rttEWMA,
		MemoryPressure: c.probe.MemoryPressure(),
		DeviceCeiling:  c.deviceCeiling,
		ActiveLoad:     c.activeLoad,
	}
}

// tierLocked classifies the EWMA. Caller holds c.mu. With no samples yet the
// network is assumed excellent so cold starts are not throttled.
func (c *Controller) tierLocked() NetworkTier {
	if !c.hasSamples {
		return TierExcellent
	}
	switch {
	case c.rttEWMA < excellentBelow:
		return TierExcellent
	case c.rttEWMA < goodBelow:
		return TierGood
	case c.rttEWMA < fairBelow:
		return TierFair
	default:
		return TierPoor
	}
}

func (c *Controller) networkCeiling() int {
	switch c.Tier() {
	case TierExcellent:
		return 6
	case TierGood:
		return 4
	case TierFair:
		return 2
	default:
		return 1
	}
}

func deviceCeiling(processors int) int {
	switch {
	case processors >= 8:
		return 6
	case processors >= 4:
		return 4
	case processors >= 2:
		return 2
	default:
		return 1
	}
}

func memoryCeiling(pressure float64) int {
	switch {
	case pressure < 0.5:
		return 6
	case pressure < 0.7:
		return 4
	case pressure < 0.85:
		return 2
	default:
		return 1
	}
}
