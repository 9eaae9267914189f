package spatial

import (
	"cmp"
	"math"
	"slices"
)

// Engine infers relationship facts from detections using a fixed Config.
type Engine struct {
	cfg Config
}

// New returns an Engine using cfg, or an error if cfg is out of range.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

var defaultEngine = &Engine{cfg: DefaultConfig()}

// InferRelationships runs the engine with the default thresholds.
func InferRelationships(detections []Detection, width, height int) ([]Fact, error) {
	return defaultEngine.Infer(detections, Frame{Width: width, Height: height})
}

// Config returns the thresholds the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Infer returns the dominance facts in detection order followed by the
// ranked pair facts. The output is identical for identical input.
func (e *Engine) Infer(detections []Detection, frame Frame) ([]Fact, error) {
	if err := validateFrame(frame); err != nil {
		return nil, err
	}
	for i, d := range detections {
		if err := validateBox(i, d.Box); err != nil {
			return nil, err
		}
	}

	facts := make([]Fact, 0, len(detections))
	facts = e.appendDominance(facts, detections, frame)
	facts = e.appendPairs(facts, detections, frame)
	return facts, nil
}

func (e *Engine) appendDominance(facts []Fact, detections []Detection, frame Frame) []Fact {
	frameArea := float64(frame.Width) * float64(frame.Height)

	for i, d := range detections {
		if d.Box.Area()/frameArea <= e.cfg.DominanceAreaRatio {
			continue
		}
		facts = append(facts, Fact{
			Kind:       KindDominance,
			Label:      d.Label,
			Zone:       zoneOf(d.Box.Center().X, frame.Width),
			Detections: []int{i},
		})
	}
	return facts
}

// zoneOf classifies a center x coordinate into a horizontal third. Both
// boundaries belong to the center zone.
func zoneOf(cx float64, width int) Zone {
	w := float64(width)
	switch {
	case cx < w/3:
		return ZoneLeft
	case cx > 2*w/3:
		return ZoneRight
	default:
		return ZoneCenter
	}
}

type pairCandidate struct {
	i, j  int
	iou   float64
	score float64
}

func (e *Engine) appendPairs(facts []Fact, detections []Detection, frame Frame) []Fact {
	if e.cfg.MaxPairs == 0 {
		return facts
	}

	threshold := float64(frame.Width) * e.cfg.ProximityWidthRatio
	var candidates []pairCandidate

	for i := 0; i < len(detections); i++ {
		for j := i + 1; j < len(detections); j++ {
			a, b := detections[i].Box, detections[j].Box
			dist := CenterDistance(a, b)
			if dist >= threshold {
				continue
			}
			iou := IoU(a, b)
			candidates = append(candidates, pairCandidate{
				i:     i,
				j:     j,
				iou:   iou,
				score: dist - iou*e.cfg.OverlapWeight,
			})
		}
	}

	// Candidates are appended in (i, j) order, so a stable sort keeps
	// enumeration order among equal scores.
	slices.SortStableFunc(candidates, func(x, y pairCandidate) int {
		return cmp.Compare(x.score, y.score)
	})
	if len(candidates) > e.cfg.MaxPairs {
		candidates = candidates[:e.cfg.MaxPairs]
	}

	for _, c := range candidates {
		facts = append(facts, Fact{
			Kind:       KindPair,
			Subject:    detections[c.i].Label,
			Object:     detections[c.j].Label,
			Relation:   e.relation(c.iou),
			Detections: []int{c.i, c.j},
			Score:      c.score,
		})
	}
	return facts
}

func (e *Engine) relation(iou float64) Relation {
	if iou > e.cfg.OverlapIoU {
		return RelationOverlapping
	}
	return RelationClose
}

// PairMeasurement reports the quantities the pairwise pass computes for two
// boxes, whether or not the pair would be kept.
type PairMeasurement struct {
	CenterA     Point    `json:"center_a"`
	CenterB     Point    `json:"center_b"`
	Distance    float64  `json:"distance_pixels"`
	Threshold   float64  `json:"threshold_pixels"`
	IoU         float64  `json:"iou"`
	Score       float64  `json:"score"`
	Significant bool     `json:"significant"`
	Relation    Relation `json:"relation"`
}

// Measure computes the pairwise metrics for a and b in frame.
func (e *Engine) Measure(a, b Box, frame Frame) (*PairMeasurement, error) {
	if err := validateFrame(frame); err != nil {
		return nil, err
	}
	if err := validateBox(0, a); err != nil {
		return nil, err
	}
	if err := validateBox(1, b); err != nil {
		return nil, err
	}

	dist := CenterDistance(a, b)
	iou := IoU(a, b)
	threshold := float64(frame.Width) * e.cfg.ProximityWidthRatio

	return &PairMeasurement{
		CenterA:     a.Center(),
		CenterB:     b.Center(),
		Distance:    dist,
		Threshold:   threshold,
		IoU:         iou,
		Score:       dist - iou*e.cfg.OverlapWeight,
		Significant: dist < threshold,
		Relation:    e.relation(iou),
	}, nil
}

func validateFrame(frame Frame) error {
	if frame.Width <= 0 {
		return invalidf(-1, "width", "must be positive, got %d", frame.Width)
	}
	if frame.Height <= 0 {
		return invalidf(-1, "height", "must be positive, got %d", frame.Height)
	}
	return nil
}

func validateBox(index int, b Box) error {
	for _, v := range [...]float64{b.X1, b.Y1, b.X2, b.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalidf(index, "box", "coordinates must be finite, got (%v,%v,%v,%v)", b.X1, b.Y1, b.X2, b.Y2)
		}
	}
	if b.X1 > b.X2 {
		return invalidf(index, "box", "x1 %v is greater than x2 %v", b.X1, b.X2)
	}
	if b.Y1 > b.Y2 {
		return invalidf(index, "box", "y1 %v is greater than y2 %v", b.Y1, b.Y2)
	}
	return nil
}
