package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/scene-relations-mcp/internal/spatial"
)

// CropResult contains a cropped detection as PNG.
type CropResult struct {
	// X1..Y2 is the pixel rectangle actually cropped, after clamping the
	// detection box to the image.
	X1          int    `json:"x1"`
	Y1          int    `json:"y1"`
	X2          int    `json:"x2"`
	Y2          int    `json:"y2"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`

	// DominantColors is measured on the unscaled crop.
	DominantColors []ColorShare `json:"dominant_colors"`
}

// CropDetection extracts the pixels under box, expanded outward to whole
// pixels and clamped to the image. A scale other than 1 resizes the crop with
// Lanczos resampling.
func CropDetection(img image.Image, box spatial.Box, scale float64) (*CropResult, error) {
	bounds := img.Bounds()
	r := image.Rect(
		bounds.Min.X+int(math.Floor(box.X1)), bounds.Min.Y+int(math.Floor(box.Y1)),
		bounds.Min.X+int(math.Ceil(box.X2)), bounds.Min.Y+int(math.Ceil(box.Y2)),
	).Intersect(bounds)

	if r.Empty() {
		return nil, fmt.Errorf("detection box (%g,%g)-(%g,%g) does not overlap image bounds %v",
			box.X1, box.Y1, box.X2, box.Y2, bounds)
	}

	cropped := imaging.Crop(img, r)

	if scale != 1.0 && scale > 0 {
		newWidth := max(1, int(float64(cropped.Bounds().Dx())*scale))
		newHeight := max(1, int(float64(cropped.Bounds().Dy())*scale))
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	rel := r.Sub(bounds.Min)
	return &CropResult{
		X1:          rel.Min.X,
		Y1:          rel.Min.Y,
		X2:          rel.Max.X,
		Y2:          rel.Max.Y,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",

		DominantColors: DominantColors(img, r, dominantColorCount),
	}, nil
}
