package imaging

import (
	"context"
	"image"

	"github.com/fjyeo/Open-Photo-Lab/internal/debug"
)

// Bins is the number of buckets per histogram channel.
const Bins = 256

// Histogram holds per-channel pixel counts.
type Histogram struct {
	Red   [Bins]uint64
	Green [Bins]uint64
	Blue  [Bins]uint64
	Lum   [Bins]uint64
}

// Dataset is one chart series derived from a Histogram.
type Dataset struct {
	Label  string
	Fill   [4]uint8 // RGBA
	Stroke [4]uint8 // RGBA
	Values []uint64
}

// Datasets returns the chart series in draw order: Lum, Red, Green, Blue.
func (h *Histogram) Datasets() []Dataset {
	return []Dataset{
		{Label: "Lum", Fill: [4]uint8{200, 200, 200, 51}, Stroke: [4]uint8{200, 200, 200, 255}, Values: h.Lum[:]},
		{Label: "Red", Fill: [4]uint8{255, 0, 0, 51}, Stroke: [4]uint8{255, 0, 0, 255}, Values: h.Red[:]},
		{Label: "Green", Fill: [4]uint8{0, 255, 0, 51}, Stroke: [4]uint8{0, 255, 0, 255}, Values: h.Green[:]},
		{Label: "Blue", Fill: [4]uint8{0, 128, 255, 51}, Stroke: [4]uint8{0, 128, 255, 255}, Values: h.Blue[:]},
	}
}

// ComputeHistogram decodes path and counts red, green, blue and luminance
// values over every pixel.
func (s *Service) ComputeHistogram(ctx context.Context, path string) (Histogram, error) {
	if err := ctx.Err(); err != nil {
		return Histogram{}, err
	}

	img, err := decodeFile(path)
	if err != nil {
		return Histogram{}, err
	}

	var h Histogram
	if err := accumulate(ctx, img, &h); err != nil {
		return Histogram{}, err
	}

	debug.Log(debug.IMAGING, "ComputeHistogram: %s (%dx%d)", path, img.Bounds().Dx(), img.Bounds().Dy())
	return h, nil
}

func accumulate(ctx context.Context, img image.Image, h *Histogram) error {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		if y%64 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			r, g, bl := r16>>8, g16>>8, b16>>8
			h.Red[r]++
			h.Green[g]++
			h.Blue[bl]++
			h.Lum[luma(r, g, bl)]++
		}
	}
	return nil
}

// luma returns the Rec. 601 luminance of an 8-bit RGB triple.
func luma(r, g, b uint32) uint32 {
	return (299*r + 587*g + 114*b + 500) / 1000
}
