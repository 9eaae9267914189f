// Package imaging loads images and renders detections onto them for the MCP
// server.
//
// It covers image loading and caching, drawing labeled detection boxes,
// cropping a single detection and summarizing its colors. Detection boxes use
// the same pixel convention as the relationship engine: (0,0) is the top-left
// corner, X increases rightward and Y increases downward.
//
// # Pixel Rectangles
//
// Detection boxes are floating point. Where pixels must be selected, a box is
// expanded outward to whole pixels (floor of x1,y1 and ceiling of x2,y2) and
// clamped to the image bounds, so (x1,y1) is inclusive and (x2,y2) exclusive.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Annotate clones its input
// and never modifies the cached image, so cached images can be shared between
// concurrent calls.
//
// # Output Encoding
//
// Annotated images are JPEG data URLs ("data:image/jpeg;base64,..."). Crops
// are base64 PNG with a separate mime type.
//
// # Performance Considerations
//
// For repeated operations on the same image, use ImageCache to avoid redundant
// disk reads. NewImageCache takes an entry limit; the oldest image is evicted
// once the limit is exceeded.
package imaging
