// Package imaging implements the image-processing operations the catalog
// engine awaits: thumbnails, full-resolution payloads, histograms and export.
package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"mime"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/fjyeo/Open-Photo-Lab/internal/debug"
)

// DefaultQuality is the JPEG quality used for thumbnails.
const DefaultQuality = 80

// ErrUnsupportedFormat is returned when a file cannot be decoded as an image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Thumbnail is the result of LoadThumbnail.
type Thumbnail struct {
	Width  int    // original image width
	Height int    // original image height
	Format string // lower-cased file extension
	Data   string // data:image/jpeg;base64,... of the scaled image
}

// Service decodes and processes images from the local filesystem.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	quality int
}

// NewService creates a service encoding thumbnails at quality (1-100).
func NewService(quality int) *Service {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Service{quality: quality}
}

// LoadThumbnail decodes path and returns a JPEG thumbnail that fits within
// maxDim x maxDim together with the original dimensions.
func (s *Service) LoadThumbnail(ctx context.Context, path string, maxDim int) (Thumbnail, error) {
	if err := ctx.Err(); err != nil {
		return Thumbnail{}, err
	}

	img, err := decodeFile(path)
	if err != nil {
		return Thumbnail{}, err
	}
	size := img.Bounds().Size()

	thumb := scaleToFit(img, maxDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: s.quality}); err != nil {
		return Thumbnail{}, fmt.Errorf("encode thumbnail %s: %w", path, err)
	}

	debug.Log(debug.IMAGING, "LoadThumbnail: %s original %dx%d thumb %dx%d",
		path, size.X, size.Y, thumb.Bounds().Dx(), thumb.Bounds().Dy())

	return Thumbnail{
		Width:  size.X,
		Height: size.Y,
		Format: formatOf(path),
		Data:   dataURL("image/jpeg", buf.Bytes()),
	}, nil
}

// LoadFullImage returns the file contents of path as a data URL.
func (s *Service) LoadFullImage(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load full image: %w", err)
	}

	debug.Log(debug.IMAGING, "LoadFullImage: %s (%d bytes)", path, len(data))
	return dataURL(mimeOf(path), data), nil
}

// decodeFile opens and decodes the image at path.
func decodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
		}
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// scaleToFit scales src down so neither side exceeds maxDim.
// Images already small enough are returned unchanged.
func scaleToFit(src image.Image, maxDim int) image.Image {
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if maxDim <= 0 || (width <= maxDim && height <= maxDim) {
		return src
	}

	var scale float64
	if width > height {
		scale = float64(maxDim) / float64(width)
	} else {
		scale = float64(maxDim) / float64(height)
	}

	newWidth := max(1, int(float64(width)*scale))
	newHeight := max(1, int(float64(height)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

// formatOf returns the lower-cased extension of path without the dot.
func formatOf(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "unknown"
	}
	return strings.ToLower(ext)
}

func mimeOf(path string) string {
	switch formatOf(path) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t
	}
	return "application/octet-stream"
}

func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
