package spatial

import (
	"fmt"
	"math"
)

// Default thresholds. They are heuristics rather than properties of the
// domain and can be overridden through Config.
const (
	DefaultDominanceAreaRatio  = 0.10
	DefaultProximityWidthRatio = 0.15
	DefaultOverlapIoU          = 0.05
	DefaultOverlapWeight       = 1000
	DefaultMaxPairs            = 15
)

// Config holds the tunable thresholds of the engine.
type Config struct {
	// DominanceAreaRatio is the fraction of the frame area a box must
	// strictly exceed to produce a dominance fact.
	DominanceAreaRatio float64 `json:"dominance_area_ratio" yaml:"dominance_area_ratio"`

	// ProximityWidthRatio times the frame width is the center distance a
	// pair must stay strictly below to be considered.
	ProximityWidthRatio float64 `json:"proximity_width_ratio" yaml:"proximity_width_ratio"`

	// OverlapIoU is the IoU a pair must strictly exceed to be reported as
	// overlapping rather than close.
	OverlapIoU float64 `json:"overlap_iou" yaml:"overlap_iou"`

	// OverlapWeight scales IoU against pixel distance in the rank score.
	OverlapWeight float64 `json:"overlap_weight" yaml:"overlap_weight"`

	// MaxPairs caps the number of pair facts returned. 0 disables pairs.
	MaxPairs int `json:"max_pairs" yaml:"max_pairs"`
}

// DefaultConfig returns the thresholds the engine ships with.
func DefaultConfig() Config {
	return Config{
		DominanceAreaRatio:  DefaultDominanceAreaRatio,
		ProximityWidthRatio: DefaultProximityWidthRatio,
		OverlapIoU:          DefaultOverlapIoU,
		OverlapWeight:       DefaultOverlapWeight,
		MaxPairs:            DefaultMaxPairs,
	}
}

// Validate checks that every threshold is finite and in range.
func (c Config) Validate() error {
	ratios := []struct {
		name  string
		value float64
	}{
		{"dominance_area_ratio", c.DominanceAreaRatio},
		{"proximity_width_ratio", c.ProximityWidthRatio},
		{"overlap_iou", c.OverlapIoU},
	}
	for _, r := range ratios {
		if math.IsNaN(r.value) || r.value < 0 || r.value > 1 {
			return invalidf(-1, r.name, "must be within [0, 1], got %v", r.value)
		}
	}
	if math.IsNaN(c.OverlapWeight) || math.IsInf(c.OverlapWeight, 0) || c.OverlapWeight < 0 {
		return invalidf(-1, "overlap_weight", "must be finite and non-negative, got %v", c.OverlapWeight)
	}
	if c.MaxPairs < 0 {
		return invalidf(-1, "max_pairs", "must not be negative, got %d", c.MaxPairs)
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("dominance>%.2f proximity<%.2fw overlap>%.2f weight=%g max_pairs=%d",
		c.DominanceAreaRatio, c.ProximityWidthRatio, c.OverlapIoU, c.OverlapWeight, c.MaxPairs)
}
