package imaging

import (
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"
)

func rgbaAt(t *testing.T, img image.Image, x, y int) color.RGBA {
	t.Helper()
	r, g, b, a := img.At(x, y).RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func TestRenderOverlay_StretchesBase(t *testing.T) {
	base := NewIntensityImage(2, 1)
	base.Set(0, 0, 100)
	base.Set(1, 0, 300)

	img, err := RenderOverlay(base, nil, OverlayOptions{})
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}
	if got := rgbaAt(t, img, 0, 0); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("min sample: got %v, want black", got)
	}
	if got := rgbaAt(t, img, 1, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("max sample: got %v, want white", got)
	}
}

func TestRenderOverlay_FixedColorFill(t *testing.T) {
	mask := mustMask(t, [][]int{
		{0, 0, 0},
		{0, 1, 0},
		{0, 0, 0},
	})
	layers := []OverlayLayer{{Mask: mask, Color: "#00ff00", Opacity: 1, Outline: true}}

	img, err := RenderOverlay(nil, layers, OverlayOptions{})
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}

	green := color.RGBA{0, 255, 0, 255}
	if got := rgbaAt(t, img, 1, 1); got != green {
		t.Errorf("object pixel: got %v, want %v", got, green)
	}
	// Every neighbour of the single pixel lies in the outline band.
	for _, p := range []Point{{0, 0}, {1, 0}, {2, 2}, {0, 1}} {
		if got := rgbaAt(t, img, p.X, p.Y); got != green {
			t.Errorf("outline pixel (%d,%d): got %v, want %v", p.X, p.Y, got, green)
		}
	}
}

func TestRenderOverlay_HalfOpacityBlends(t *testing.T) {
	mask := mustMask(t, [][]int{{1}})
	img, err := RenderOverlay(nil, []OverlayLayer{{Mask: mask, Color: "#ff0000", Opacity: 0.5}}, OverlayOptions{})
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}
	got := rgbaAt(t, img, 0, 0)
	if got.R < 126 || got.R > 129 || got.G != 0 {
		t.Errorf("got %v, want roughly half red", got)
	}
}

func TestRenderOverlay_Scale(t *testing.T) {
	mask := mustMask(t, [][]int{{1, 0}, {0, 2}})
	img, err := RenderOverlay(nil, []OverlayLayer{{Mask: mask, Opacity: 1}}, OverlayOptions{Scale: 3})
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}
	if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 6 {
		t.Errorf("scaled size: got %dx%d, want 6x6", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestRenderOverlay_Errors(t *testing.T) {
	tests := []struct {
		name   string
		base   *IntensityImage
		layers []OverlayLayer
	}{
		{"nothing to draw", nil, nil},
		{"bad color", nil, []OverlayLayer{{Mask: NewLabelMask(2, 2), Color: "green"}}},
		{"nil mask", NewIntensityImage(2, 2), []OverlayLayer{{}}},
		{"shape mismatch", nil, []OverlayLayer{{Mask: NewLabelMask(2, 2)}, {Mask: NewLabelMask(2, 3)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RenderOverlay(tt.base, tt.layers, OverlayOptions{}); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestEncodeOverlay(t *testing.T) {
	img, err := RenderOverlay(NewIntensityImage(5, 4), nil, OverlayOptions{})
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}
	result, err := EncodeOverlay(img)
	if err != nil {
		t.Fatalf("EncodeOverlay failed: %v", err)
	}
	if result.MimeType != "image/png" || result.Width != 5 || result.Height != 4 {
		t.Errorf("unexpected result metadata: %+v", result)
	}

	data, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	decoded, err := png.Decode(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 5 {
		t.Errorf("decoded width: got %d, want 5", decoded.Bounds().Dx())
	}
}

func TestSaveOverlay(t *testing.T) {
	img, err := RenderOverlay(nil, []OverlayLayer{{Mask: mustMask(t, [][]int{{1}}), Opacity: 1}}, OverlayOptions{})
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "overlay.png")
	if err := SaveOverlay(path, img); err != nil {
		t.Fatalf("SaveOverlay failed: %v", err)
	}
	if _, err := NewImageCache().Load(path); err != nil {
		t.Errorf("saved overlay cannot be read back: %v", err)
	}
}
