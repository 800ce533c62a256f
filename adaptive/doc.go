// Package adaptive computes the permitted number of simultaneously in-flight
// backend calls from observed network quality, static device capability, and
// current memory pressure.
//
// The controller keeps an exponentially weighted moving average of backend
// round-trip times and classifies it into network tiers. The enforced limit
// is the minimum of the network, device, and memory ceilings, so any single
// constrained resource throttles the whole system.
package adaptive
