package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/ironsheep/scene-relations-mcp/internal/detection"
	"github.com/ironsheep/scene-relations-mcp/internal/imaging"
	"github.com/ironsheep/scene-relations-mcp/internal/narrative"
	"github.com/ironsheep/scene-relations-mcp/internal/spatial"
)

var (
	errNoDetections = errors.New("either detections or detections_path is required")
	errNoFrame      = errors.New("width and height are required when no image or document frame is available")
	errNoGenerator  = errors.New("GEMINI_API_KEY is not set")
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "scene_relationships").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	if s.debug {
		log.Printf("tools/call %s %s", params.Name, truncate(params.Arguments, 256))
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		if s.debug {
			log.Printf("tools/call %s failed: %v", params.Name, err)
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Relationship inference
	case "scene_relationships":
		return s.handleSceneRelationships(args)
	case "scene_measure_pair":
		return s.handleSceneMeasurePair(args)

	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Rendering
	case "scene_annotate":
		return s.handleSceneAnnotate(args)
	case "scene_crop_detection":
		return s.handleSceneCropDetection(args)

	// Narrative
	case "scene_narrative":
		return s.handleSceneNarrative(args)
	case "scene_analyze":
		return s.handleSceneAnalyze(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// === Shared argument handling ===

// detectionsArgs is embedded by every tool that takes a detection list,
// given inline or as a JSON/YAML detector output file.
type detectionsArgs struct {
	Detections     []detection.Record `json:"detections"`
	DetectionsPath string             `json:"detections_path"`
	MinConfidence  *float64           `json:"min_confidence"`
}

// sceneInput is a resolved detection list plus whatever the source document
// said about its frame and scene.
type sceneInput struct {
	detections []spatial.Detection
	frame      spatial.Frame
	hasFrame   bool
	sceneType  string
}

func (s *Server) resolveDetections(a detectionsArgs) (*sceneInput, error) {
	in := &sceneInput{}
	records := a.Detections
	switch {
	case a.Detections != nil && a.DetectionsPath != "":
		return nil, errors.New("detections and detections_path are mutually exclusive")
	case a.DetectionsPath != "":
		doc, err := detection.LoadFile(a.DetectionsPath)
		if err != nil {
			return nil, err
		}
		records = doc.Detections
		in.frame, in.hasFrame = doc.Frame()
		in.sceneType = doc.SceneType
	case a.Detections == nil:
		return nil, errNoDetections
	}

	dets, err := detection.ToDetections(records)
	if err != nil {
		return nil, err
	}

	minConfidence := s.minConfidence
	if a.MinConfidence != nil {
		minConfidence = *a.MinConfidence
	}
	in.detections = detection.FilterByConfidence(dets, minConfidence)
	return in, nil
}

// resolveFrame picks the frame in order: explicit width and height, the image
// at path, then the detections document.
func (s *Server) resolveFrame(width, height int, path string, in *sceneInput) (spatial.Frame, error) {
	if width != 0 || height != 0 {
		return spatial.Frame{Width: width, Height: height}, nil
	}
	if path != "" {
		img, err := s.cache.Load(path)
		if err != nil {
			return spatial.Frame{}, err
		}
		return imaging.FrameFor(img), nil
	}
	if in != nil && in.hasFrame {
		return in.frame, nil
	}
	return spatial.Frame{}, errNoFrame
}

func boxFromSlice(field string, v []float64) (spatial.Box, error) {
	if len(v) != 4 {
		return spatial.Box{}, fmt.Errorf("%s must have 4 values [x1, y1, x2, y2], got %d", field, len(v))
	}
	return spatial.Box{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, nil
}

// === Relationship Handlers ===

type sceneRelationshipsArgs struct {
	detectionsArgs
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// RelationshipsResult is the scene_relationships response.
type RelationshipsResult struct {
	Frame          spatial.Frame  `json:"frame"`
	DetectionCount int            `json:"detection_count"`
	DominanceCount int            `json:"dominance_count"`
	PairCount      int            `json:"pair_count"`
	Facts          []spatial.Fact `json:"facts"`
	Statements     []string       `json:"statements"`
}

func (s *Server) infer(in *sceneInput, frame spatial.Frame) (*RelationshipsResult, error) {
	facts, err := s.engine.Infer(in.detections, frame)
	if err != nil {
		return nil, err
	}
	res := &RelationshipsResult{
		Frame:          frame,
		DetectionCount: len(in.detections),
		Facts:          facts,
		Statements:     narrative.RenderAll(facts),
	}
	for _, f := range facts {
		if f.Kind == spatial.KindDominance {
			res.DominanceCount++
		} else {
			res.PairCount++
		}
	}
	return res, nil
}

func (s *Server) handleSceneRelationships(args json.RawMessage) (interface{}, error) {
	var a sceneRelationshipsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	in, err := s.resolveDetections(a.detectionsArgs)
	if err != nil {
		return nil, err
	}
	frame, err := s.resolveFrame(a.Width, a.Height, a.Path, in)
	if err != nil {
		return nil, err
	}
	return s.infer(in, frame)
}

type sceneMeasurePairArgs struct {
	BoxA   []float64 `json:"box_a"`
	BoxB   []float64 `json:"box_b"`
	Path   string    `json:"path"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
}

func (s *Server) handleSceneMeasurePair(args json.RawMessage) (interface{}, error) {
	var a sceneMeasurePairArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	boxA, err := boxFromSlice("box_a", a.BoxA)
	if err != nil {
		return nil, err
	}
	boxB, err := boxFromSlice("box_b", a.BoxB)
	if err != nil {
		return nil, err
	}
	frame, err := s.resolveFrame(a.Width, a.Height, a.Path, nil)
	if err != nil {
		return nil, err
	}
	return s.engine.Measure(boxA, boxB, frame)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Rendering Handlers ===

type sceneAnnotateArgs struct {
	detectionsArgs
	Path      string `json:"path"`
	BoxColor  string `json:"box_color"`
	LineWidth int    `json:"line_width"`
	Palette   bool   `json:"palette"`
	ShowZones bool   `json:"show_zones"`
	Quality   int    `json:"quality"`
}

func (s *Server) handleSceneAnnotate(args json.RawMessage) (interface{}, error) {
	var a sceneAnnotateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	in, err := s.resolveDetections(a.detectionsArgs)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Annotate(img, in.detections, imaging.AnnotateOptions{
		BoxColor:  a.BoxColor,
		LineWidth: a.LineWidth,
		Palette:   a.Palette,
		ShowZones: a.ShowZones,
		Quality:   a.Quality,
	})
}

type sceneCropDetectionArgs struct {
	Path  string    `json:"path"`
	Box   []float64 `json:"box"`
	Scale float64   `json:"scale"`
}

func (s *Server) handleSceneCropDetection(args json.RawMessage) (interface{}, error) {
	var a sceneCropDetectionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	box, err := boxFromSlice("box", a.Box)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.CropDetection(img, box, a.Scale)
}

// === Narrative Handlers ===

type sceneNarrativeArgs struct {
	detectionsArgs
	SceneType string `json:"scene_type"`
	Path      string `json:"path"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// NarrativeResult is the scene_narrative response.
type NarrativeResult struct {
	SceneType  string   `json:"scene_type"`
	Statements []string `json:"statements"`
	Prompt     string   `json:"prompt"`
	Narrative  string   `json:"narrative,omitempty"`
}

func (s *Server) handleSceneNarrative(args json.RawMessage) (interface{}, error) {
	var a sceneNarrativeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	in, err := s.resolveDetections(a.detectionsArgs)
	if err != nil {
		return nil, err
	}
	frame, err := s.resolveFrame(a.Width, a.Height, a.Path, in)
	if err != nil {
		return nil, err
	}
	rel, err := s.infer(in, frame)
	if err != nil {
		return nil, err
	}

	sceneType := firstNonEmpty(a.SceneType, in.sceneType, "unknown")
	res, err := s.describe(narrative.PromptInput{
		SceneType:  sceneType,
		Detections: in.detections,
		Statements: rel.Statements,
	})
	if err != nil {
		return nil, err
	}
	return &NarrativeResult{
		SceneType:  sceneType,
		Statements: rel.Statements,
		Prompt:     res.Prompt,
		Narrative:  res.Narrative,
	}, nil
}

func (s *Server) describe(in narrative.PromptInput) (*narrative.Result, error) {
	ctx := context.Background()
	if s.narrativeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.narrativeTimeout)
		defer cancel()
	}
	return narrative.Describe(ctx, s.generator, in)
}

type sceneAnalyzeArgs struct {
	detectionsArgs
	Path      string `json:"path"`
	SceneType string `json:"scene_type"`
	Palette   bool   `json:"palette"`
	ShowZones bool   `json:"show_zones"`
}

// AnalyzeResult is the scene_analyze response: the whole pipeline from
// detections to annotated image and narrative in one call.
type AnalyzeResult struct {
	Status      string         `json:"status"`
	SceneType   string         `json:"scene_type"`
	Narrative   string         `json:"narrative"`
	ObjectCount int            `json:"object_count"`
	SpatialData []string       `json:"spatial_data"`
	Facts       []spatial.Fact `json:"facts"`
	ImageData   string         `json:"image_data"`
}

func (s *Server) handleSceneAnalyze(args json.RawMessage) (interface{}, error) {
	var a sceneAnalyzeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	in, err := s.resolveDetections(a.detectionsArgs)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	rel, err := s.infer(in, imaging.FrameFor(img))
	if err != nil {
		return nil, err
	}

	sceneType := firstNonEmpty(a.SceneType, in.sceneType, "unknown")
	text := narrative.ErrorNarrative(errNoGenerator)
	if s.generator != nil {
		res, err := s.describe(narrative.PromptInput{
			SceneType:  sceneType,
			Detections: in.detections,
			Statements: rel.Statements,
		})
		if err != nil {
			log.Printf("narrative generation failed: %v", err)
			text = narrative.ErrorNarrative(err)
		} else {
			text = res.Narrative
		}
	}

	annotated, err := imaging.Annotate(img, in.detections, imaging.AnnotateOptions{
		Palette:   a.Palette,
		ShowZones: a.ShowZones,
	})
	if err != nil {
		return nil, err
	}

	return &AnalyzeResult{
		Status:      "success",
		SceneType:   sceneType,
		Narrative:   text,
		ObjectCount: len(in.detections),
		SpatialData: rel.Statements,
		Facts:       rel.Facts,
		ImageData:   annotated.ImageData,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
