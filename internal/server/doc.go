// Package server implements the MCP (Model Context Protocol) server for scene
// relationship tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Relationship inference:
//   - scene_relationships: Dominance and pair facts with sentences
//   - scene_measure_pair: Distance, IoU and score for two boxes
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Rendering:
//   - scene_annotate: Draw detections as labeled boxes
//   - scene_crop_detection: Extract one detection as PNG
//
// Narrative:
//   - scene_narrative: Prompt and optional Gemini narrative
//   - scene_analyze: Facts, annotated image and narrative in one call
//
// Detections are given inline or as detections_path, a JSON or YAML detector
// output file. Engine input errors are returned as JSON-RPC error -32000 with
// the offending detection index in the message.
package server
