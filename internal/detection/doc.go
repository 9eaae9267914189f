// Package detection reads object detector output and converts it for the
// relationship engine.
//
// Detector output is either a bare list of records or a document that also
// carries the frame size and a scene classification:
//
//	width: 1000
//	height: 1000
//	scene_type: park
//	detections:
//	  - {label: person, box: [100, 200, 400, 900], confidence: 0.91}
//	  - {label: dog, box: [420, 500, 680, 930], confidence: 0.87}
//
// JSON and YAML encodings are accepted. The format of a file is taken from its
// extension (.json, .yaml, .yml).
//
// # Order
//
// Record order is preserved through every conversion and filter. Facts refer
// to detections by position, so reordering here would change the meaning of
// the engine output.
//
// # Confidence
//
// Confidences are rounded to two decimals on conversion, the precision used
// when detections are shown to people or to a language model.
package detection
