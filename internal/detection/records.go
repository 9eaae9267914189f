package detection

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/scene-relations-mcp/internal/spatial"
)

// Format identifies the encoding of a detector output document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned when a file extension maps to no Format.
var ErrUnknownFormat = errors.New("unknown detections format")

// Record is one detection as emitted by the upstream detector:
//
//	{"label": "person", "box": [x1, y1, x2, y2], "confidence": 0.91}
type Record struct {
	// Label is the object class name.
	Label string `json:"label" yaml:"label"`

	// Box holds x1, y1, x2, y2 in pixel coordinates.
	Box []float64 `json:"box" yaml:"box"`

	// Confidence is the detector score in [0, 1].
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Document is a detector output file. Files may also be a bare list of
// records, in which case only Detections is filled.
type Document struct {
	// Width and Height give the frame the boxes are expressed in, when the
	// detector recorded it.
	Width  int `json:"width,omitempty" yaml:"width,omitempty"`
	Height int `json:"height,omitempty" yaml:"height,omitempty"`

	// SceneType is the scene classifier label, when present.
	SceneType string `json:"scene_type,omitempty" yaml:"scene_type,omitempty"`

	Detections []Record `json:"detections" yaml:"detections"`
}

// Frame returns the document frame, and false when the document carries none.
func (d *Document) Frame() (spatial.Frame, bool) {
	if d.Width <= 0 || d.Height <= 0 {
		return spatial.Frame{}, false
	}
	return spatial.Frame{Width: d.Width, Height: d.Height}, true
}

// FormatFromPath picks a Format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// LoadFile reads a detections document from path.
func LoadFile(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open detections: %w", err)
	}
	defer f.Close()

	doc, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode reads a detections document, either a bare list of records or an
// object with a "detections" list.
func Decode(r io.Reader, format Format) (*Document, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(r)
	case FormatYAML:
		return decodeYAML(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func decodeJSON(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read detections: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return &Document{}, nil
	}

	var doc Document
	if data[0] == '[' {
		err = json.Unmarshal(data, &doc.Detections)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode detections: %w", err)
	}
	return &doc, nil
}

func decodeYAML(r io.Reader) (*Document, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("failed to decode detections: %w", err)
	}

	var doc Document
	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	var err error
	switch root.Kind {
	case yaml.SequenceNode:
		err = root.Decode(&doc.Detections)
	case yaml.MappingNode:
		err = root.Decode(&doc)
	default:
		err = fmt.Errorf("expected a list or a mapping at line %d", root.Line)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode detections: %w", err)
	}
	return &doc, nil
}

// ToDetection converts the record into the engine's Detection. Confidence is
// rounded to two decimals.
func (r Record) ToDetection() (spatial.Detection, error) {
	if len(r.Box) != 4 {
		return spatial.Detection{}, fmt.Errorf("box must have 4 values, got %d", len(r.Box))
	}
	return spatial.Detection{
		Label: r.Label,
		Box: spatial.Box{
			X1: r.Box[0],
			Y1: r.Box[1],
			X2: r.Box[2],
			Y2: r.Box[3],
		},
		Confidence: math.Round(r.Confidence*100) / 100,
	}, nil
}

// ToDetections converts records in order, failing on the first malformed one.
func ToDetections(records []Record) ([]spatial.Detection, error) {
	out := make([]spatial.Detection, 0, len(records))
	for i, r := range records {
		d, err := r.ToDetection()
		if err != nil {
			return nil, fmt.Errorf("detection %d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// FromDetections converts engine detections back to detector records.
func FromDetections(dets []spatial.Detection) []Record {
	out := make([]Record, len(dets))
	for i, d := range dets {
		out[i] = Record{
			Label:      d.Label,
			Box:        []float64{d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2},
			Confidence: d.Confidence,
		}
	}
	return out
}

// FilterByConfidence returns the detections scoring at least minConfidence, in input
// order. The input slice is not modified.
func FilterByConfidence(dets []spatial.Detection, minConfidence float64) []spatial.Detection {
	out := make([]spatial.Detection, 0, len(dets))
	for _, d := range dets {
		if d.Confidence >= minConfidence {
			out = append(out, d)
		}
	}
	return out
}

// LabelCount is the number of detections sharing a label.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary counts detections per label, most frequent first, ties by label.
func Summary(dets []spatial.Detection) []LabelCount {
	counts := make(map[string]int)
	for _, d := range dets {
		counts[d.Label]++
	}

	out := make([]LabelCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, LabelCount{Label: label, Count: n})
	}
	slices.SortFunc(out, func(a, b LabelCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Label, b.Label)
	})
	return out
}
