package detection

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/scene-relations-mcp/internal/spatial"
)

func TestDecode_JSONList(t *testing.T) {
	input := `[
		{"label": "person", "box": [100, 100, 400, 900], "confidence": 0.914},
		{"label": "dog", "box": [420, 500, 700, 900], "confidence": 0.85}
	]`

	doc, err := Decode(strings.NewReader(input), FormatJSON)
	require.NoError(t, err)
	require.Len(t, doc.Detections, 2)
	assert.Equal(t, "person", doc.Detections[0].Label)
	assert.Equal(t, []float64{100, 100, 400, 900}, doc.Detections[0].Box)

	_, ok := doc.Frame()
	assert.False(t, ok)
}

func TestDecode_JSONDocument(t *testing.T) {
	input := `{"width": 640, "height": 480, "scene_type": "park",
		"detections": [{"label": "bench", "box": [1, 2, 3, 4], "confidence": 0.5}]}`

	doc, err := Decode(strings.NewReader(input), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "park", doc.SceneType)
	require.Len(t, doc.Detections, 1)

	frame, ok := doc.Frame()
	require.True(t, ok)
	assert.Equal(t, spatial.Frame{Width: 640, Height: 480}, frame)
}

func TestDecode_YAML(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		labels []string
	}{
		{
			name: "list",
			input: `
- label: person
  box: [100, 100, 400, 900]
  confidence: 0.9
- label: dog
  box: [420, 500, 700, 900]
  confidence: 0.8
`,
			labels: []string{"person", "dog"},
		},
		{
			name: "document",
			input: `
width: 1000
height: 1000
detections:
  - label: car
    box: [0, 0, 10, 10]
    confidence: 0.7
`,
			labels: []string{"car"},
		},
		{name: "empty", input: "", labels: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode(strings.NewReader(tt.input), FormatYAML)
			require.NoError(t, err)

			var labels []string
			for _, r := range doc.Detections {
				labels = append(labels, r.Label)
			}
			assert.Equal(t, tt.labels, labels)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"detections": "nope"}`), FormatJSON)
	assert.Error(t, err)

	_, err = Decode(strings.NewReader("just a string"), FormatYAML)
	assert.Error(t, err)

	_, err = Decode(strings.NewReader("[]"), Format("xml"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "dets.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"label":"cat","box":[0,0,5,5],"confidence":1}]`), 0o644))
	doc, err := LoadFile(jsonPath)
	require.NoError(t, err)
	require.Len(t, doc.Detections, 1)

	ymlPath := filepath.Join(dir, "dets.YML")
	require.NoError(t, os.WriteFile(ymlPath, []byte("- label: cat\n  box: [0, 0, 5, 5]\n"), 0o644))
	doc, err = LoadFile(ymlPath)
	require.NoError(t, err)
	require.Len(t, doc.Detections, 1)

	_, err = LoadFile(filepath.Join(dir, "dets.txt"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestToDetections(t *testing.T) {
	records := []Record{
		{Label: "person", Box: []float64{1, 2, 3, 4}, Confidence: 0.914},
		{Label: "dog", Box: []float64{5, 6, 7, 8}, Confidence: 0.855},
	}

	dets, err := ToDetections(records)
	require.NoError(t, err)
	require.Len(t, dets, 2)

	assert.Equal(t, spatial.Box{X1: 1, Y1: 2, X2: 3, Y2: 4}, dets[0].Box)
	assert.Equal(t, 0.91, dets[0].Confidence)
	assert.Equal(t, "dog", dets[1].Label)
	assert.Equal(t, records, []Record{
		{Label: "person", Box: []float64{1, 2, 3, 4}, Confidence: 0.914},
		{Label: "dog", Box: []float64{5, 6, 7, 8}, Confidence: 0.855},
	})

	back := FromDetections(dets)
	assert.Equal(t, []float64{5, 6, 7, 8}, back[1].Box)
}

func TestToDetections_BadBox(t *testing.T) {
	_, err := ToDetections([]Record{
		{Label: "ok", Box: []float64{0, 0, 1, 1}},
		{Label: "bad", Box: []float64{0, 0, 1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detection 1")
	assert.Contains(t, err.Error(), "4 values, got 3")
}

func TestFilterByConfidence(t *testing.T) {
	dets := []spatial.Detection{
		{Label: "a", Confidence: 0.2},
		{Label: "b", Confidence: 0.9},
		{Label: "c", Confidence: 0.5},
	}

	kept := FilterByConfidence(dets, 0.5)
	require.Len(t, kept, 2)
	assert.Equal(t, "b", kept[0].Label)
	assert.Equal(t, "c", kept[1].Label)
	assert.Len(t, dets, 3)

	assert.Len(t, FilterByConfidence(dets, 0), 3)
	assert.Empty(t, FilterByConfidence(nil, 0.5))
}

func TestSummary(t *testing.T) {
	dets := []spatial.Detection{
		{Label: "person"}, {Label: "dog"}, {Label: "person"}, {Label: "cat"}, {Label: "dog"}, {Label: "person"},
	}

	assert.Equal(t, []LabelCount{
		{Label: "person", Count: 3},
		{Label: "dog", Count: 2},
		{Label: "cat", Count: 1},
	}, Summary(dets))
	assert.Empty(t, Summary(nil))
}
