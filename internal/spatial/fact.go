package spatial

// Detection is a labeled, confidence-scored box produced by an object detector.
type Detection struct {
	Label      string  `json:"label"`
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"`
}

// Frame is the coordinate space detections are expressed in.
type Frame struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Kind tells which pass produced a Fact.
type Kind string

const (
	KindDominance Kind = "dominance"
	KindPair      Kind = "pair"
)

// Zone is a coarse horizontal third of the frame.
type Zone string

const (
	ZoneLeft   Zone = "left"
	ZoneCenter Zone = "center"
	ZoneRight  Zone = "right"
)

// Relation describes how two nearby detections relate.
type Relation string

const (
	RelationClose       Relation = "close to"
	RelationOverlapping Relation = "overlapping/interacting with"
)

// Fact is one relationship statement ready to be rendered as text.
//
// Dominance facts fill Label and Zone. Pair facts fill Subject, Object and
// Relation, where Subject is the detection that comes first in input order.
// Detections holds the input indices the fact was derived from: one for
// dominance, two (subject, object) for pairs.
type Fact struct {
	Kind Kind `json:"kind"`

	Label string `json:"label,omitempty"`
	Zone  Zone   `json:"zone,omitempty"`

	Subject  string   `json:"subject,omitempty"`
	Object   string   `json:"object,omitempty"`
	Relation Relation `json:"relation,omitempty"`

	Detections []int `json:"detections"`

	// Score orders pair facts (lower ranks first). It carries no meaning
	// outside of that ordering.
	Score float64 `json:"-"`
}
