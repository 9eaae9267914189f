package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/scene-relations-mcp/internal/spatial"
)

// JPEGDataURLPrefix precedes the base64 payload of annotated images.
const JPEGDataURLPrefix = "data:image/jpeg;base64,"

// AnnotateOptions controls how detections are drawn.
type AnnotateOptions struct {
	// BoxColor is the outline and tag color as "#RRGGBB". Default "#FF0000".
	BoxColor string

	// TextColor is the tag text color as "#RRGGBB". Default "#FFFFFF".
	TextColor string

	// LineWidth is the outline thickness in pixels. Default 3.
	LineWidth int

	// Palette gives every label its own hue instead of BoxColor.
	Palette bool

	// ShowZones draws dashed guides at one and two thirds of the width,
	// the boundaries of the left/center/right zones.
	ShowZones bool

	// Quality is the JPEG quality, 1-100. Default 90.
	Quality int
}

func (o *AnnotateOptions) applyDefaults() {
	if o.BoxColor == "" {
		o.BoxColor = "#FF0000"
	}
	if o.TextColor == "" {
		o.TextColor = "#FFFFFF"
	}
	if o.LineWidth <= 0 {
		o.LineWidth = 3
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = 90
	}
}

// AnnotateResult holds the rendered image.
type AnnotateResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Boxes  int `json:"boxes"`

	// ImageData is a "data:image/jpeg;base64," URL.
	ImageData string `json:"image_data"`
}

// Annotate draws every detection on a copy of img as an outlined box with a
// "label 0.91" tag at its top-left corner. Tags are drawn after all outlines
// so no outline covers a tag. img is not modified.
func Annotate(img image.Image, dets []spatial.Detection, opts AnnotateOptions) (*AnnotateResult, error) {
	opts.applyDefaults()

	boxColor, err := colorful.Hex(opts.BoxColor)
	if err != nil {
		return nil, fmt.Errorf("invalid box color %q: %w", opts.BoxColor, err)
	}
	textColor, err := colorful.Hex(opts.TextColor)
	if err != nil {
		return nil, fmt.Errorf("invalid text color %q: %w", opts.TextColor, err)
	}

	dst := imaging.Clone(img)

	if opts.ShowZones {
		drawZoneGuides(dst)
	}

	type tag struct {
		x, y int
		text string
		bg   color.Color
	}
	tags := make([]tag, 0, len(dets))

	for _, d := range dets {
		c := color.Color(boxColor)
		if opts.Palette {
			c = LabelColor(d.Label)
		}
		r := pixelRect(d.Box)
		strokeRect(dst, r, opts.LineWidth, c)
		tags = append(tags, tag{
			x:    r.Min.X,
			y:    r.Min.Y,
			text: fmt.Sprintf("%s %.2f", d.Label, d.Confidence),
			bg:   c,
		})
	}

	for _, t := range tags {
		drawTag(dst, t.x, t.y, t.text, textColor, t.bg)
	}

	var buf bytes.Buffer
	if err := imgio.JPEGEncoder(opts.Quality)(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode annotated image: %w", err)
	}

	b := dst.Bounds()
	return &AnnotateResult{
		Width:     b.Dx(),
		Height:    b.Dy(),
		Boxes:     len(dets),
		ImageData: JPEGDataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// LabelColor returns a stable, readable color for label.
func LabelColor(label string) color.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(label))
	hue := float64(h.Sum32() % 360)
	return colorful.Hcl(hue, 0.6, 0.55).Clamped()
}

// pixelRect rounds a detection box to whole pixels.
func pixelRect(b spatial.Box) image.Rectangle {
	return image.Rect(
		int(math.Round(b.X1)), int(math.Round(b.Y1)),
		int(math.Round(b.X2)), int(math.Round(b.Y2)),
	)
}

func fillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// strokeRect draws the outline of r, lw pixels thick, inside r.
func strokeRect(dst draw.Image, r image.Rectangle, lw int, c color.Color) {
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+lw), c)
	fillRect(dst, image.Rect(r.Min.X, r.Max.Y-lw, r.Max.X, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+lw, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Max.X-lw, r.Min.Y, r.Max.X, r.Max.Y), c)
}

const tagPad = 2

// drawTag writes text on a filled background with its top-left corner at
// (x, y), shifted back inside dst when it would overflow.
func drawTag(dst draw.Image, x, y int, text string, fg, bg color.Color) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil() + 2*tagPad
	h := face.Height + 2*tagPad

	b := dst.Bounds()
	if x+w > b.Max.X {
		x = b.Max.X - w
	}
	if y+h > b.Max.Y {
		y = b.Max.Y - h
	}
	x = max(x, b.Min.X)
	y = max(y, b.Min.Y)

	fillRect(dst, image.Rect(x, y, x+w, y+h), bg)

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x+tagPad, y+tagPad+face.Ascent),
	}
	d.DrawString(text)
}

// drawZoneGuides draws dashed vertical lines at width/3 and 2*width/3.
func drawZoneGuides(dst draw.Image) {
	b := dst.Bounds()
	guide := color.NRGBA{R: 255, G: 255, B: 255, A: 160}
	for _, x := range []int{b.Min.X + b.Dx()/3, b.Min.X + 2*b.Dx()/3} {
		for y := b.Min.Y; y < b.Max.Y; y += 16 {
			fillRect(dst, image.Rect(x, y, x+1, y+8), guide)
		}
	}
}
