package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writePNG creates a w x h PNG where fill decides each pixel's colour.
func writePNG(t *testing.T, dir, name string, w, h int, fill func(x, y int) color.Color) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill(x, y))
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
	return path
}

func solid(c color.Color) func(x, y int) color.Color {
	return func(int, int) color.Color { return c }
}

func decodeDataURL(t *testing.T, url, prefix string) []byte {
	t.Helper()
	if !strings.HasPrefix(url, prefix) {
		t.Fatalf("expected prefix %q, got %q", prefix, url[:min(len(url), 40)])
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	if err != nil {
		t.Fatalf("invalid base64 payload: %v", err)
	}
	return data
}

func TestLoadThumbnailScales(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "Wide.PNG", 400, 200, solid(color.NRGBA{R: 255, A: 255}))

	s := NewService(0)
	thumb, err := s.LoadThumbnail(context.Background(), path, 100)
	if err != nil {
		t.Fatalf("LoadThumbnail returned error: %v", err)
	}

	if thumb.Width != 400 || thumb.Height != 200 {
		t.Errorf("expected original size 400x200, got %dx%d", thumb.Width, thumb.Height)
	}
	if thumb.Format != "png" {
		t.Errorf("expected format png, got %q", thumb.Format)
	}

	data := decodeDataURL(t, thumb.Data, "data:image/jpeg;base64,")
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("thumbnail is not a JPEG: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Errorf("expected 100x50 thumbnail, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestLoadThumbnailSmallImageUnscaled(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "small.png", 20, 30, solid(color.White))

	thumb, err := NewService(90).LoadThumbnail(context.Background(), path, 256)
	if err != nil {
		t.Fatalf("LoadThumbnail returned error: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(decodeDataURL(t, thumb.Data, "data:image/jpeg;base64,")))
	if err != nil {
		t.Fatalf("thumbnail is not a JPEG: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 30 {
		t.Errorf("expected 20x30 thumbnail, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestLoadThumbnailErrors(t *testing.T) {
	dir := t.TempDir()
	s := NewService(DefaultQuality)

	notImage := filepath.Join(dir, "notes.jpg")
	if err := os.WriteFile(notImage, []byte("not an image"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := s.LoadThumbnail(context.Background(), notImage, 100); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}

	if _, err := s.LoadThumbnail(context.Background(), filepath.Join(dir, "missing.png"), 100); err == nil {
		t.Error("expected error for missing file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := writePNG(t, dir, "ok.png", 2, 2, solid(color.Black))
	if _, err := s.LoadThumbnail(ctx, path, 100); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoadFullImage(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "full.png", 3, 3, solid(color.White))
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read back file: %v", err)
	}

	url, err := NewService(DefaultQuality).LoadFullImage(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFullImage returned error: %v", err)
	}
	if got := decodeDataURL(t, url, "data:image/png;base64,"); !bytes.Equal(got, raw) {
		t.Error("payload does not match file contents")
	}

	if _, err := NewService(DefaultQuality).LoadFullImage(context.Background(), filepath.Join(dir, "nope.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestComputeHistogram(t *testing.T) {
	dir := t.TempDir()
	// Left half pure red, right half white
	path := writePNG(t, dir, "split.png", 4, 4, func(x, y int) color.Color {
		if x < 2 {
			return color.NRGBA{R: 255, A: 255}
		}
		return color.White
	})

	h, err := NewService(DefaultQuality).ComputeHistogram(context.Background(), path)
	if err != nil {
		t.Fatalf("ComputeHistogram returned error: %v", err)
	}

	checks := []struct {
		name     string
		got      uint64
		expected uint64
	}{
		{"red[255]", h.Red[255], 16},
		{"green[0]", h.Green[0], 8},
		{"green[255]", h.Green[255], 8},
		{"blue[0]", h.Blue[0], 8},
		{"lum[255]", h.Lum[255], 8},
		{"lum[76]", h.Lum[76], 8},
	}
	for _, c := range checks {
		if c.got != c.expected {
			t.Errorf("%s: expected %d, got %d", c.name, c.expected, c.got)
		}
	}

	for _, ds := range h.Datasets() {
		var total uint64
		for _, v := range ds.Values {
			total += v
		}
		if total != 16 {
			t.Errorf("dataset %s: expected 16 samples, got %d", ds.Label, total)
		}
		if len(ds.Values) != Bins {
			t.Errorf("dataset %s: expected %d bins, got %d", ds.Label, Bins, len(ds.Values))
		}
	}
}

func TestDatasetsOrder(t *testing.T) {
	var h Histogram
	labels := []string{"Lum", "Red", "Green", "Blue"}
	for i, ds := range h.Datasets() {
		if ds.Label != labels[i] {
			t.Errorf("dataset %d: expected %s, got %s", i, labels[i], ds.Label)
		}
	}
}

func TestExportImages(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	a := writePNG(t, src, "a.png", 1, 1, solid(color.White))
	b := writePNG(t, src, "b.png", 1, 1, solid(color.Black))

	// Pre-existing file forces a renamed copy
	if err := os.WriteFile(filepath.Join(dest, "a.png"), []byte("existing"), 0644); err != nil {
		t.Fatalf("failed to seed destination: %v", err)
	}

	if err := NewService(DefaultQuality).ExportImages(context.Background(), dest, []string{a, b}); err != nil {
		t.Fatalf("ExportImages returned error: %v", err)
	}

	for _, name := range []string{"a.png", "a_copy1.png", "b.png"} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Errorf("expected %s in destination: %v", name, err)
		}
	}
	existing, _ := os.ReadFile(filepath.Join(dest, "a.png"))
	if string(existing) != "existing" {
		t.Error("existing file was overwritten")
	}
}

func TestExportImagesErrors(t *testing.T) {
	dir := t.TempDir()
	file := writePNG(t, dir, "x.png", 1, 1, solid(color.White))
	s := NewService(DefaultQuality)

	if err := s.ExportImages(context.Background(), file, []string{file}); err == nil {
		t.Error("expected error when destination is a file")
	}
	if err := s.ExportImages(context.Background(), filepath.Join(dir, "missing"), []string{file}); err == nil {
		t.Error("expected error for missing destination")
	}
	if err := s.ExportImages(context.Background(), t.TempDir(), []string{filepath.Join(dir, "gone.png")}); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestScaleToFitPortrait(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 50, 200))
	dst := scaleToFit(src, 100)
	if dst.Bounds().Dx() != 25 || dst.Bounds().Dy() != 100 {
		t.Errorf("expected 25x100, got %dx%d", dst.Bounds().Dx(), dst.Bounds().Dy())
	}
}
