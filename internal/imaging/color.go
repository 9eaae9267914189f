package imaging

import (
	"cmp"
	"image"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
)

// dominantColorCount is how many colors CropDetection reports.
const dominantColorCount = 3

// ColorShare is a quantized color and the share of pixels it covers.
type ColorShare struct {
	Hex     string  `json:"hex"`
	Percent float64 `json:"percent"`
}

// DominantColors returns up to count colors covering the most pixels of img
// inside r, most frequent first. Components are quantized to steps of 16 so
// near-identical shades group together. Equal shares order by hex.
func DominantColors(img image.Image, r image.Rectangle, count int) []ColorShare {
	r = r.Intersect(img.Bounds())
	if r.Empty() || count <= 0 {
		return []ColorShare{}
	}

	counts := make(map[[3]uint8]int)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			key := [3]uint8{quantize(cr), quantize(cg), quantize(cb)}
			counts[key]++
		}
	}

	total := float64(r.Dx() * r.Dy())
	shares := make([]ColorShare, 0, len(counts))
	for rgb, n := range counts {
		c := colorful.Color{
			R: float64(rgb[0]) / 255,
			G: float64(rgb[1]) / 255,
			B: float64(rgb[2]) / 255,
		}
		shares = append(shares, ColorShare{
			Hex:     c.Hex(),
			Percent: float64(n) / total * 100,
		})
	}

	slices.SortFunc(shares, func(a, b ColorShare) int {
		if c := cmp.Compare(b.Percent, a.Percent); c != 0 {
			return c
		}
		return cmp.Compare(a.Hex, b.Hex)
	})

	if len(shares) > count {
		shares = shares[:count]
	}
	return shares
}

// quantize maps a 16-bit color component to an 8-bit value rounded down to a
// multiple of 16.
func quantize(v uint32) uint8 {
	return uint8((v >> 8) / 16 * 16)
}
