package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func boxProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items":       map[string]interface{}{"type": "number"},
		"minItems":    4,
		"maxItems":    4,
	}
}

func frameProperties(props map[string]interface{}) map[string]interface{} {
	props["width"] = map[string]interface{}{
		"type":        "integer",
		"description": "Image width in pixels. Taken from the image at path or the detections document when omitted",
	}
	props["height"] = map[string]interface{}{
		"type":        "integer",
		"description": "Image height in pixels",
	}
	return props
}

// detectionProperties adds the inputs shared by every tool that takes
// detector output.
func detectionProperties(props map[string]interface{}) map[string]interface{} {
	props["detections"] = map[string]interface{}{
		"type":        "array",
		"description": "Detections in detector order. Fact indices refer to positions in this list",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"label":      map[string]interface{}{"type": "string"},
				"box":        boxProperty("Pixel box [x1, y1, x2, y2], top-left origin"),
				"confidence": map[string]interface{}{"type": "number"},
			},
			"required": []string{"label", "box", "confidence"},
		},
	}
	props["detections_path"] = pathProperty("Path to a JSON or YAML detector output file, used instead of detections")
	props["min_confidence"] = map[string]interface{}{
		"type":        "number",
		"description": "Drop detections below this confidence before inference. Defaults to SCENE_MIN_CONFIDENCE",
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Relationship inference
		{
			Name:        "scene_relationships",
			Description: "Infer spatial facts from object detections: large objects dominating the left, center or right of the frame, then up to 15 close or overlapping pairs ranked by proximity with overlap weighted heavily. Returns structured facts and one sentence per fact.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": frameProperties(detectionProperties(map[string]interface{}{
					"path": pathProperty("Optional image file used to read width and height"),
				})),
			},
		},
		{
			Name:        "scene_measure_pair",
			Description: "Measure two boxes the way the relationship engine does: center distance, proximity threshold, IoU, ranking score and the relation that would be reported.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": frameProperties(map[string]interface{}{
					"box_a": boxProperty("First box [x1, y1, x2, y2]"),
					"box_b": boxProperty("Second box [x1, y1, x2, y2]"),
					"path":  pathProperty("Optional image file used to read width and height"),
				}),
				"required": []string{"box_a", "box_b"},
			},
		},

		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},

		// Rendering
		{
			Name:        "scene_annotate",
			Description: "Draw detections on an image as outlined boxes with label and confidence tags. Returns a JPEG data URL.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": detectionProperties(map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
					"box_color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as #RRGGBB. Default #FF0000",
					},
					"line_width": map[string]interface{}{
						"type":        "integer",
						"description": "Outline thickness in pixels. Default 3",
						"default":     3,
					},
					"palette": map[string]interface{}{
						"type":        "boolean",
						"description": "Give each label its own color",
						"default":     false,
					},
					"show_zones": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw guides at the left/center/right zone boundaries",
						"default":     false,
					},
					"quality": map[string]interface{}{
						"type":        "integer",
						"description": "JPEG quality 1-100. Default 90",
						"default":     90,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "scene_crop_detection",
			Description: "Crop one detection box out of an image and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
					"box":  boxProperty("Detection box [x1, y1, x2, y2]"),
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "box"},
			},
		},

		// Narrative
		{
			Name:        "scene_narrative",
			Description: "Build the scene description prompt from detections and their spatial facts. When a Gemini API key is configured the generated narrative is returned too.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": frameProperties(detectionProperties(map[string]interface{}{
					"scene_type": map[string]interface{}{
						"type":        "string",
						"description": "Scene classification, e.g. \"park\". Default \"unknown\"",
					},
					"path": pathProperty("Optional image file used to read width and height"),
				})),
			},
		},
		{
			Name:        "scene_analyze",
			Description: "Full analysis of an image and its detections: spatial facts, sentences, annotated JPEG and narrative. A narrative failure is reported in the narrative text and does not fail the call.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": detectionProperties(map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
					"scene_type": map[string]interface{}{
						"type":        "string",
						"description": "Scene classification. Defaults to the detections document value, then \"unknown\"",
					},
					"palette": map[string]interface{}{
						"type":        "boolean",
						"description": "Give each label its own color",
						"default":     false,
					},
					"show_zones": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw zone boundary guides",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools.
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
